// Package pipeline builds image graphs from JSON descriptions.
//
// A description names a source and a list of steps applied in order:
//
//	{
//	  "source": {"path": "/tmp/photo.jpg"},
//	  "steps": [
//	    {"op": "filter", "filter": "CIExposureAdjust", "params": {"inputEV": 0.5}},
//	    {"op": "blur", "sigma": 2},
//	    {"op": "crop", "rect": [0, 0, 320, 200]}
//	  ]
//	}
//
// Steps that need a second image (source-over and two-input filters) embed
// a nested description.
package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/ironsheep/cigraph/internal/color"
	"github.com/ironsheep/cigraph/internal/colorspace"
	"github.com/ironsheep/cigraph/internal/filter"
	"github.com/ironsheep/cigraph/internal/geom"
	"github.com/ironsheep/cigraph/internal/graph"
	"github.com/ironsheep/cigraph/internal/imgerr"
	"github.com/ironsheep/cigraph/internal/metadata"
	"github.com/ironsheep/cigraph/internal/serialize"
	"github.com/ironsheep/cigraph/internal/source"
)

// Step operations.
const (
	OpFilter           = "filter"
	OpTransform        = "transform"
	OpOrient           = "orient"
	OpCrop             = "crop"
	OpOver             = "over"
	OpBlur             = "blur"
	OpClampToExtent    = "clamp_to_extent"
	OpClamp            = "clamp"
	OpPremultiply      = "premultiply"
	OpUnpremultiply    = "unpremultiply"
	OpSetAlphaOne      = "set_alpha_one"
	OpMatchToWorking   = "match_to_working"
	OpMatchFromWorking = "match_from_working"
	OpSetProperties    = "set_properties"
	OpReplay           = "replay"
)

// Ops lists the step operations in the order they are documented.
var Ops = []string{
	OpFilter, OpTransform, OpOrient, OpCrop, OpOver, OpBlur, OpClampToExtent,
	OpClamp, OpPremultiply, OpUnpremultiply, OpSetAlphaOne, OpMatchToWorking,
	OpMatchFromWorking, OpSetProperties, OpReplay,
}

// Description is a JSON image graph.
type Description struct {
	Source Source `json:"source"`
	Steps  []Step `json:"steps,omitempty"`
}

// Source selects the image a description starts from. Exactly one of
// Path, Color and Empty is set.
type Source struct {
	// Path is an image file, decoded lazily.
	Path string `json:"path,omitempty"`
	// Color is an infinite constant image in any form color.Parse reads.
	Color string `json:"color,omitempty"`
	// Empty selects the empty image.
	Empty bool `json:"empty,omitempty"`
	// ColorSpace names the space the source pixels are in. They are
	// matched to the working space when it is not sRGB.
	ColorSpace string `json:"color_space,omitempty"`
}

// Step is one operation. Which fields are read depends on Op.
type Step struct {
	Op string `json:"op"`

	// Filter, Params and Inputs are read by "filter". Inputs holds the
	// images for every input key after the first.
	Filter string                  `json:"filter,omitempty"`
	Params map[string]any          `json:"params,omitempty"`
	Inputs map[string]*Description `json:"inputs,omitempty"`

	// Matrix is [a b c d e f] for "transform".
	Matrix []float64 `json:"matrix,omitempty"`
	// Orientation is the TIFF value for "orient".
	Orientation int `json:"orientation,omitempty"`
	// Rect is [x y w h] for "crop", "clamp" and "set_alpha_one".
	Rect []float64 `json:"rect,omitempty"`
	// Image is the background for "over".
	Image *Description `json:"image,omitempty"`
	// Sigma is the standard deviation for "blur".
	Sigma float64 `json:"sigma,omitempty"`
	// ColorSpace names the space for the match steps.
	ColorSpace string `json:"color_space,omitempty"`
	// Properties replace the metadata for "set_properties".
	Properties map[string]any `json:"properties,omitempty"`
	// Document is a serialized chain for "replay".
	Document *serialize.Document `json:"document,omitempty"`
}

// Parse reads a description. Unknown fields are rejected.
func Parse(data []byte) (Description, error) {
	var d Description
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&d); err != nil {
		return Description{}, fmt.Errorf("failed to parse pipeline: %w", err)
	}
	return d, nil
}

// Loader opens image files. *source.Cache implements it.
type Loader interface {
	Load(path string) (*source.Handle, error)
}

// Builder turns descriptions into graphs.
type Builder struct {
	registry *filter.Registry
	loader   Loader
}

// NewBuilder returns a builder that applies filters from reg and opens
// files with loader.
func NewBuilder(reg *filter.Registry, loader Loader) *Builder {
	return &Builder{registry: reg, loader: loader}
}

// Build constructs the graph for d. Errors name the failing step.
func (b *Builder) Build(d Description) (*graph.Image, error) {
	stages, err := b.Stages(d)
	if err != nil {
		return nil, err
	}
	return stages[len(stages)-1], nil
}

// Stages constructs the graph for d and returns the image after every
// step. Element 0 is the source and the last element is the result.
func (b *Builder) Stages(d Description) ([]*graph.Image, error) {
	img, err := b.source(d.Source)
	if err != nil {
		return nil, err
	}
	stages := make([]*graph.Image, 0, len(d.Steps)+1)
	stages = append(stages, img)
	for i, s := range d.Steps {
		img, err = b.step(img, s)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, s.Op, err)
		}
		stages = append(stages, img)
	}
	return stages, nil
}

func (b *Builder) source(s Source) (*graph.Image, error) {
	set := 0
	for _, ok := range []bool{s.Path != "", s.Color != "", s.Empty} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return nil, imgerr.New("build pipeline", imgerr.ErrInvalidParameter, "source needs exactly one of path, color or empty")
	}

	var img *graph.Image
	switch {
	case s.Path != "":
		h, err := b.loader.Load(s.Path)
		if err != nil {
			return nil, err
		}
		img = h.Image()
	case s.Color != "":
		c, err := color.Parse(s.Color)
		if err != nil {
			return nil, err
		}
		img = graph.NewFromColor(c)
	default:
		img = graph.Empty()
	}

	if s.ColorSpace == "" {
		return img, nil
	}
	space, err := lookupSpace(s.ColorSpace)
	if err != nil {
		return nil, err
	}
	return img.MatchedToWorkingSpace(space)
}

func (b *Builder) step(img *graph.Image, s Step) (*graph.Image, error) {
	switch s.Op {
	case OpFilter:
		return b.filter(img, s)
	case OpTransform:
		if len(s.Matrix) != 6 {
			return nil, invalid("matrix needs 6 values, got %d", len(s.Matrix))
		}
		return img.Applying(geom.AffineFromArray([6]float64(s.Matrix))), nil
	case OpOrient:
		return img.ApplyingOrientation(geom.Orientation(s.Orientation))
	case OpCrop:
		r, err := rect(s.Rect)
		if err != nil {
			return nil, err
		}
		return img.Cropping(r), nil
	case OpOver:
		if s.Image == nil {
			return nil, invalid("over needs an image")
		}
		bg, err := b.Build(*s.Image)
		if err != nil {
			return nil, fmt.Errorf("background: %w", err)
		}
		return img.CompositingOver(bg), nil
	case OpBlur:
		return img.ApplyingGaussianBlur(s.Sigma), nil
	case OpClampToExtent:
		return img.ClampingToExtent(), nil
	case OpClamp:
		r, err := rect(s.Rect)
		if err != nil {
			return nil, err
		}
		return img.Clamping(r), nil
	case OpPremultiply:
		return img.PremultiplyingAlpha(), nil
	case OpUnpremultiply:
		return img.UnpremultiplyingAlpha(), nil
	case OpSetAlphaOne:
		r, err := rect(s.Rect)
		if err != nil {
			return nil, err
		}
		return img.SettingAlphaOne(r), nil
	case OpMatchToWorking, OpMatchFromWorking:
		space, err := lookupSpace(s.ColorSpace)
		if err != nil {
			return nil, err
		}
		if s.Op == OpMatchToWorking {
			return img.MatchedToWorkingSpace(space)
		}
		return img.MatchedFromWorkingSpace(space)
	case OpSetProperties:
		return img.SettingProperties(metadata.Properties(s.Properties)), nil
	case OpReplay:
		if s.Document == nil {
			return nil, invalid("replay needs a document")
		}
		return serialize.Deserialize(*s.Document, img, b.registry)
	}
	return nil, invalid("unknown op %q", s.Op)
}

func (b *Builder) filter(img *graph.Image, s Step) (*graph.Image, error) {
	desc, ok := b.registry.Lookup(s.Filter)
	if !ok {
		return nil, imgerr.New("build pipeline", imgerr.ErrUnknownFilter, fmt.Sprintf("%q", s.Filter))
	}
	if len(desc.Inputs) == 0 {
		if len(s.Inputs) > 0 {
			return nil, invalid("%s takes no image inputs", s.Filter)
		}
		return b.registry.Apply(s.Filter, nil, s.Params)
	}

	inputs := []*graph.Image{img}
	for _, key := range desc.Inputs[1:] {
		d, ok := s.Inputs[key]
		if !ok || d == nil {
			return nil, invalid("%s needs input %s", s.Filter, key)
		}
		in, err := b.Build(*d)
		if err != nil {
			return nil, fmt.Errorf("input %s: %w", key, err)
		}
		inputs = append(inputs, in)
	}
	for key := range s.Inputs {
		if !slices.Contains(desc.Inputs[1:], key) {
			return nil, invalid("%s has no input %s", s.Filter, key)
		}
	}
	return b.registry.Apply(s.Filter, inputs, s.Params)
}

func rect(v []float64) (geom.Rect, error) {
	if len(v) != 4 {
		return geom.Rect{}, invalid("rect needs [x y w h], got %d values", len(v))
	}
	if v[2] < 0 || v[3] < 0 {
		return geom.Rect{}, invalid("rect has negative size %gx%g", v[2], v[3])
	}
	return geom.XYWH(v[0], v[1], v[2], v[3]), nil
}

func lookupSpace(name string) (*colorspace.Space, error) {
	space, ok := colorspace.ByName(name)
	if !ok {
		return nil, imgerr.New("build pipeline", imgerr.ErrInvalidColorSpace, fmt.Sprintf("%q", name))
	}
	return space, nil
}

func invalid(format string, args ...any) error {
	return imgerr.Newf("build pipeline", imgerr.ErrInvalidParameter, format, args...)
}
