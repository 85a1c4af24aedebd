// Package builtin provides the standard filter set.
//
// Nothing is registered implicitly. A program that wants these filters
// calls Register with its registry:
//
//	reg := filter.NewRegistry()
//	if err := builtin.Register(reg); err != nil {
//	    return err
//	}
//
// # Filter Families
//
// The filters fall into four groups:
//
//   - Colour adjustments and effects (CIColorInvert, CIColorMatrix,
//     CIColorControls, ...): per-pixel functions evaluated on float
//     pixels.
//   - Geometry and compositing (CIAffineTransform, CICrop,
//     CISourceOverCompositing, CILanczosScaleTransform): most of these
//     return the graph's own transform, crop and composite nodes.
//   - Blur and convolution (CIGaussianBlur, CIBoxBlur, CIMedianFilter, ...):
//     neighbourhood filters that grow the extent by their reach.
//   - Blend modes (CIMultiplyBlendMode, CIScreenBlendMode, ...): two-input
//     filters over inputImage and inputBackgroundImage.
//
// Filters backed by bild or imaging run on an 8-bit copy of their input,
// so their output is quantised to 8 bits per channel.
//
// The affine transform, crop and colour-adjustment filters are marked
// serializable and may appear in serialized filter chains.
package builtin

import (
	"fmt"

	"github.com/ironsheep/cigraph/internal/filter"
)

type definition struct {
	name string
	desc filter.Descriptor
	ctor filter.Constructor
}

// definitions returns every builtin filter. Each family file contributes a
// slice.
func definitions() []definition {
	var defs []definition
	defs = append(defs, colorDefinitions()...)
	defs = append(defs, geometryDefinitions()...)
	defs = append(defs, convolutionDefinitions()...)
	defs = append(defs, blendDefinitions()...)
	return defs
}

// Register adds every builtin filter to reg. It stops at the first failure,
// which is usually a name already taken in reg.
func Register(reg *filter.Registry) error {
	for _, d := range definitions() {
		if err := reg.Register(d.name, d.desc, d.ctor); err != nil {
			return fmt.Errorf("failed to register builtin filters: %w", err)
		}
	}
	return nil
}

// Names returns the names of the builtin filters in registration order.
func Names() []string {
	defs := definitions()
	names := make([]string, len(defs))
	for i, d := range defs {
		names[i] = d.name
	}
	return names
}

// categories prefixes cats with the categories every builtin filter has.
func categories(cats ...string) []string {
	return append([]string{filter.CategoryBuiltIn, filter.CategoryStillImage, filter.CategoryVideo}, cats...)
}

var singleInput = []string{filter.InputImage}

var twoInputs = []string{filter.InputImage, filter.InputBackgroundImage}
