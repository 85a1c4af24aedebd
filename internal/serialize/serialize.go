// Package serialize records the adjustment chain at the top of an image
// graph as a portable document and rebuilds it over another image.
//
// Only transforms, crops and filters whose descriptor is marked
// serializable are recorded. The walk starts at the root and stops at the
// first node that is none of these; that node is the base the chain was
// applied to, and its extent is stored so Deserialize can refuse a base of
// a different size.
package serialize

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/ironsheep/cigraph/internal/filter"
	"github.com/ironsheep/cigraph/internal/geom"
	"github.com/ironsheep/cigraph/internal/graph"
	"github.com/ironsheep/cigraph/internal/imgerr"
	"github.com/ironsheep/cigraph/internal/logging"
)

// Filter names used for graph nodes that are not filter nodes.
const (
	AffineFilter = "CIAffineTransform"
	CropFilter   = "CICrop"
)

// extentTolerance absorbs rounding in extents that went through text.
const extentTolerance = 1e-6

// Step is one filter application.
type Step struct {
	Filter string         `json:"filter"`
	Params map[string]any `json:"params,omitempty"`
}

// Document is a serialized adjustment chain. Steps are in application
// order, the first one applied to the base image.
type Document struct {
	Extent geom.Rect `json:"-"`
	Steps  []Step    `json:"steps"`
}

type jsonDocument struct {
	Extent any    `json:"extent"`
	Steps  []Step `json:"steps"`
}

// MarshalJSON writes the extent as [x, y, w, h] or "infinite".
func (d Document) MarshalJSON() ([]byte, error) {
	ext, err := filter.EncodeValue(filter.TypeRectangle, d.Extent)
	if err != nil {
		return nil, err
	}
	steps := d.Steps
	if steps == nil {
		steps = []Step{}
	}
	return json.Marshal(jsonDocument{Extent: ext, Steps: steps})
}

// UnmarshalJSON reads the form written by MarshalJSON.
func (d *Document) UnmarshalJSON(data []byte) error {
	var raw jsonDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Extent == nil {
		return fmt.Errorf("document has no extent")
	}
	ext, err := filter.DecodeValue(filter.TypeRectangle, raw.Extent)
	if err != nil {
		return fmt.Errorf("bad document extent: %w", err)
	}
	d.Extent = ext.(geom.Rect)
	d.Steps = raw.Steps
	return nil
}

// Serialize records the serializable chain at the top of img. Parameter
// values are encoded with the schemas in reg. The second result is false
// when the root itself is not serializable.
func Serialize(img *graph.Image, reg *filter.Registry) (Document, bool) {
	var steps []Step
	n := img
	for n != nil {
		step, ok := stepFor(n, reg)
		if !ok {
			break
		}
		steps = append(steps, step)
		n = n.Children()[0]
	}
	if len(steps) == 0 || n == nil {
		return Document{}, false
	}
	slices.Reverse(steps)
	logging.Logger().Debug("serialized chain", "steps", len(steps), "base", n.String())
	return Document{Extent: n.Extent(), Steps: steps}, true
}

func stepFor(n *graph.Image, reg *filter.Registry) (Step, bool) {
	switch n.Kind() {
	case graph.KindTransform:
		m, err := filter.EncodeValue(filter.TypeTransform, n.Matrix())
		if err != nil {
			return Step{}, false
		}
		return Step{Filter: AffineFilter, Params: map[string]any{"inputTransform": m}}, true
	case graph.KindCrop:
		r, err := filter.EncodeValue(filter.TypeRectangle, n.Rect())
		if err != nil {
			return Step{}, false
		}
		return Step{Filter: CropFilter, Params: map[string]any{"inputRectangle": r}}, true
	case graph.KindFilter:
		f := n.Filter()
		if !f.Serializable || len(n.Children()) != 1 {
			return Step{}, false
		}
		desc, ok := reg.Lookup(f.Name)
		if !ok {
			return Step{}, false
		}
		params := make(map[string]any, len(desc.Params))
		for _, p := range desc.Params {
			v, ok := f.Params[p.Key]
			if !ok {
				continue
			}
			enc, err := filter.EncodeValue(p.Type, v)
			if err != nil {
				return Step{}, false
			}
			params[p.Key] = enc
		}
		return Step{Filter: f.Name, Params: params}, true
	}
	return Step{}, false
}

// Deserialize applies the steps of doc to base. It fails with
// imgerr.ErrInvalidParameter when base's extent differs from the one the
// chain was recorded against, and with the registry's errors for unknown
// or unserializable filters and bad parameters.
func Deserialize(doc Document, base *graph.Image, reg *filter.Registry) (*graph.Image, error) {
	if base == nil {
		return nil, imgerr.New("deserialize", imgerr.ErrInvalidParameter, "nil base image")
	}
	if !base.Extent().NearlyEqual(doc.Extent, extentTolerance) {
		return nil, imgerr.Newf("deserialize", imgerr.ErrInvalidParameter,
			"base extent %v does not match recorded extent %v", base.Extent(), doc.Extent)
	}
	img := base
	for i, s := range doc.Steps {
		desc, ok := reg.Lookup(s.Filter)
		if !ok {
			return nil, imgerr.New("deserialize", imgerr.ErrUnknownFilter, fmt.Sprintf("step %d: %q", i, s.Filter))
		}
		if !desc.Serializable {
			return nil, imgerr.Newf("deserialize", imgerr.ErrInvalidParameter, "step %d: %s is not serializable", i, s.Filter)
		}
		next, err := reg.Apply(s.Filter, []*graph.Image{img}, s.Params)
		if err != nil {
			return nil, fmt.Errorf("failed to apply step %d: %w", i, err)
		}
		img = next
	}
	return img, nil
}
