package builtin

import (
	"image"

	"github.com/anthonynsimon/bild/blend"

	"github.com/ironsheep/cigraph/internal/filter"
	"github.com/ironsheep/cigraph/internal/graph"
)

type blendMode struct {
	name, display, description string
	fn                         func(bg, fg image.Image) *image.RGBA
}

var blendModes = []blendMode{
	{"CIMultiplyBlendMode", "Multiply Blend Mode", "Multiplies the input image samples with the background image samples.", blend.Multiply},
	{"CIScreenBlendMode", "Screen Blend Mode", "Multiplies the inverse of the input image samples with the inverse of the background image samples.", blend.Screen},
	{"CIOverlayBlendMode", "Overlay Blend Mode", "Either multiplies or screens the input image samples with the background image samples, depending on the background color.", blend.Overlay},
	{"CIDarkenBlendMode", "Darken Blend Mode", "Creates composite image samples by choosing the darker samples.", blend.Darken},
	{"CILightenBlendMode", "Lighten Blend Mode", "Creates composite image samples by choosing the lighter samples.", blend.Lighten},
	{"CIDifferenceBlendMode", "Difference Blend Mode", "Subtracts either the input image sample color from the background image sample color, or the reverse, depending on which sample has the greater brightness value.", blend.Difference},
	{"CISoftLightBlendMode", "Soft Light Blend Mode", "Either darkens or lightens colors, depending on the input image sample color.", blend.SoftLight},
}

func blendDefinitions() []definition {
	defs := make([]definition, 0, len(blendModes))
	for _, m := range blendModes {
		fn := m.fn
		defs = append(defs, definition{
			name: m.name,
			desc: filter.Descriptor{
				DisplayName: m.display,
				Description: m.description,
				Categories:  categories(filter.CategoryCompositeOperation, filter.CategoryInterlaced, filter.CategoryNonSquarePixels),
				Inputs:      twoInputs,
			},
			ctor: func(req filter.Request) (*graph.Image, error) {
				return req.Node(filter.BlendImageKernel{Fn: func(bg, fg image.Image) image.Image {
					return fn(bg, fg)
				}}), nil
			},
		})
	}
	return defs
}
