package builtin

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/blend"
	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"

	"github.com/ironsheep/cigraph/internal/filter"
	"github.com/ironsheep/cigraph/internal/graph"
)

func convolutionDefinitions() []definition {
	return []definition{
		{
			name: "CIGaussianBlur",
			desc: filter.Descriptor{
				DisplayName: "Gaussian Blur",
				Description: "Spreads source pixels by an amount specified by a Gaussian distribution.",
				Categories:  categories(filter.CategoryBlur),
				Inputs:      singleInput,
				Params: []filter.Param{
					{Key: "inputRadius", Type: filter.TypeDistance, Description: "The standard deviation of the blur in pixels.", Default: 10.0, Identity: 0.0, Range: filter.AtLeast(0), SliderMin: 0, SliderMax: 100},
				},
			},
			ctor: func(req filter.Request) (*graph.Image, error) {
				return req.Inputs[0].ApplyingGaussianBlur(req.Values.Float("inputRadius")), nil
			},
		},
		{
			name: "CIBoxBlur",
			desc: filter.Descriptor{
				DisplayName: "Box Blur",
				Description: "Blurs an image using a box-shaped convolution kernel.",
				Categories:  categories(filter.CategoryBlur),
				Inputs:      singleInput,
				Params: []filter.Param{
					{Key: "inputRadius", Type: filter.TypeDistance, Description: "The radius determines how many pixels are used to create the blur.", Default: 10.0, Identity: 1.0, Range: filter.Bounded(1, 100), SliderMin: 1, SliderMax: 100},
				},
			},
			ctor: func(req filter.Request) (*graph.Image, error) {
				r := req.Values.Float("inputRadius")
				return req.Node(filter.ImageKernel{Inset: math.Ceil(r), Fn: func(img image.Image) image.Image {
					return blur.Box(img, r)
				}}), nil
			},
		},
		{
			name: "CIMedianFilter",
			desc: filter.Descriptor{
				DisplayName: "Median",
				Description: "Computes the median value for a group of neighboring pixels and replaces each pixel value with the median.",
				Categories:  categories(filter.CategoryBlur),
				Inputs:      singleInput,
			},
			ctor: func(req filter.Request) (*graph.Image, error) {
				return req.Node(filter.ImageKernel{Inset: 1, Fn: func(img image.Image) image.Image {
					return effect.Median(img, 1)
				}}), nil
			},
		},
		{
			name: "CIEdges",
			desc: filter.Descriptor{
				DisplayName: "Edges",
				Description: "Finds all edges in an image and displays them in color.",
				Categories:  categories(filter.CategoryStylize),
				Inputs:      singleInput,
				Params: []filter.Param{
					{Key: "inputIntensity", Type: filter.TypeScalar, Description: "The intensity of the edges.", Default: 1.0, Identity: 0.0, Range: filter.AtLeast(0), SliderMin: 0, SliderMax: 10},
				},
			},
			ctor: func(req filter.Request) (*graph.Image, error) {
				intensity := req.Values.Float("inputIntensity")
				return req.Node(filter.ImageKernel{Inset: 1, Fn: func(img image.Image) image.Image {
					return scaleColor(effect.EdgeDetection(img, 1), intensity)
				}}), nil
			},
		},
		{
			name: "CIEmboss",
			desc: filter.Descriptor{
				DisplayName: "Emboss",
				Description: "Replaces each pixel with a highlight or shadow depending on its neighbors.",
				Categories:  categories(filter.CategoryStylize),
				Inputs:      singleInput,
			},
			ctor: func(req filter.Request) (*graph.Image, error) {
				return req.Node(filter.ImageKernel{Inset: 1, Fn: func(img image.Image) image.Image {
					return keepAlpha(img, effect.Emboss(img))
				}}), nil
			},
		},
		{
			name: "CISharpenLuminance",
			desc: filter.Descriptor{
				DisplayName: "Sharpen Luminance",
				Description: "Increases image detail by sharpening.",
				Categories:  categories(filter.CategorySharpen),
				Inputs:      singleInput,
				Params: []filter.Param{
					{Key: "inputSharpness", Type: filter.TypeScalar, Description: "The amount of sharpening to apply.", Default: 0.4, Identity: 0.0, Range: filter.Bounded(0, 1), SliderMin: 0, SliderMax: 1},
					{Key: "inputRadius", Type: filter.TypeDistance, Description: "The distance from the center of the effect.", Default: 1.69, Identity: 0.0, Range: filter.Bounded(0, 20), SliderMin: 0, SliderMax: 20},
				},
			},
			ctor: func(req filter.Request) (*graph.Image, error) {
				amount := req.Values.Float("inputSharpness")
				sigma := req.Values.Float("inputRadius")
				return req.Node(filter.ImageKernel{Inset: graph.BlurPadding(sigma), Fn: func(img image.Image) image.Image {
					return keepAlpha(img, blend.Opacity(img, imaging.Sharpen(img, sigma), amount))
				}}), nil
			},
		},
		{
			name: "CISigmoidContrast",
			desc: filter.Descriptor{
				DisplayName: "Sigmoid Contrast",
				Description: "Changes contrast along a sigmoid curve while keeping highlights and shadows from clipping.",
				Categories:  categories(filter.CategoryColorAdjustment),
				Inputs:      singleInput,
				Params: []filter.Param{
					{Key: "inputMidpoint", Type: filter.TypeScalar, Description: "The midpoint of the contrast curve.", Default: 0.5, Identity: 0.5, Range: filter.Bounded(0, 1), SliderMin: 0, SliderMax: 1},
					{Key: "inputFactor", Type: filter.TypeScalar, Description: "The strength of the contrast change; negative values reduce contrast.", Default: 0.0, Identity: 0.0, Range: filter.Bounded(-10, 10), SliderMin: -10, SliderMax: 10},
				},
			},
			ctor: func(req filter.Request) (*graph.Image, error) {
				mid := req.Values.Float("inputMidpoint")
				factor := req.Values.Float("inputFactor")
				return req.Node(filter.ImageKernel{Fn: func(img image.Image) image.Image {
					return imaging.AdjustSigmoid(img, mid, factor)
				}}), nil
			},
		},
		{
			name: "CIConvolution3X3",
			desc: filter.Descriptor{
				DisplayName: "3 by 3 Convolution",
				Description: "Modifies pixel values by performing a 3x3 matrix convolution.",
				Categories:  categories(filter.CategoryStylize),
				Inputs:      singleInput,
				Params: []filter.Param{
					vectorParam("inputWeights", "A 3x3 matrix of weights, in row order.", 0, 0, 0, 0, 1, 0, 0, 0, 0),
					{Key: "inputBias", Type: filter.TypeScalar, Description: "A value that is added to the color components of each output pixel.", Default: 0.0, Identity: 0.0, Range: filter.Bounded(-1, 1), SliderMin: -1, SliderMax: 1},
				},
			},
			ctor: func(req filter.Request) (*graph.Image, error) {
				weights := [9]float64(req.Values.Vector("inputWeights"))
				opts := &imaging.ConvolveOptions{Bias: int(math.Round(req.Values.Float("inputBias") * 255))}
				return req.Node(filter.ImageKernel{Inset: 1, Fn: func(img image.Image) image.Image {
					return imaging.Convolve3x3(img, weights, opts)
				}}), nil
			},
		},
	}
}

// scaleColor multiplies the colour channels of img by f, keeping alpha.
func scaleColor(img *image.RGBA, f float64) *image.RGBA {
	if f == 1 {
		return img
	}
	for i := 0; i < len(img.Pix); i += 4 {
		a := float64(img.Pix[i+3])
		for c := 0; c < 3; c++ {
			img.Pix[i+c] = uint8(math.Min(a, math.Round(float64(img.Pix[i+c])*f)))
		}
	}
	return img
}
