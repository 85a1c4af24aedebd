package builtin

import (
	"image"
	"image/draw"
	"math"

	"github.com/anthonynsimon/bild/blend"
	"github.com/anthonynsimon/bild/effect"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/cigraph/internal/color"
	"github.com/ironsheep/cigraph/internal/colorspace"
	"github.com/ironsheep/cigraph/internal/filter"
	"github.com/ironsheep/cigraph/internal/graph"
	"github.com/ironsheep/cigraph/internal/pixel"
)

// Rec. 709 luma weights.
const (
	lumaR = 0.2125
	lumaG = 0.7154
	lumaB = 0.0721
)

func colorDefinitions() []definition {
	return []definition{
		{
			name: "CIColorInvert",
			desc: filter.Descriptor{
				DisplayName: "Color Invert",
				Description: "Inverts the colors in an image.",
				Categories:  categories(filter.CategoryColorEffect),
				Inputs:      singleInput,
			},
			ctor: straight(func(filter.Values) func(pixel.Pixel) pixel.Pixel {
				return func(p pixel.Pixel) pixel.Pixel {
					return pixel.Pixel{1 - p[0], 1 - p[1], 1 - p[2], p[3]}
				}
			}),
		},
		{
			name: "CIColorMatrix",
			desc: filter.Descriptor{
				DisplayName: "Color Matrix",
				Description: "Multiplies source color values and adds a bias factor to each color component.",
				Categories:  categories(filter.CategoryColorAdjustment, filter.CategoryInterlaced, filter.CategoryNonSquarePixels, filter.CategoryHighDynamicRange),
				Inputs:      singleInput,
				Params: []filter.Param{
					vectorParam("inputRVector", "The amount of red to multiply the source color values by.", 1, 0, 0, 0),
					vectorParam("inputGVector", "The amount of green to multiply the source color values by.", 0, 1, 0, 0),
					vectorParam("inputBVector", "The amount of blue to multiply the source color values by.", 0, 0, 1, 0),
					vectorParam("inputAVector", "The amount of alpha to multiply the source color values by.", 0, 0, 0, 1),
					vectorParam("inputBiasVector", "A vector that's added to each color component.", 0, 0, 0, 0),
				},
				Serializable: true,
			},
			ctor: straight(func(v filter.Values) func(pixel.Pixel) pixel.Pixel {
				rows := [4][]float64{v.Vector("inputRVector"), v.Vector("inputGVector"), v.Vector("inputBVector"), v.Vector("inputAVector")}
				bias := v.Vector("inputBiasVector")
				return func(p pixel.Pixel) pixel.Pixel {
					var out pixel.Pixel
					for i, row := range rows {
						s := bias[i]
						for j := range p {
							s += row[j] * float64(p[j])
						}
						out[i] = float32(s)
					}
					out[3] = float32(clamp01(float64(out[3])))
					return out
				}
			}),
		},
		{
			name: "CIColorControls",
			desc: filter.Descriptor{
				DisplayName: "Color Controls",
				Description: "Adjusts saturation, brightness, and contrast values.",
				Categories:  categories(filter.CategoryColorAdjustment, filter.CategoryInterlaced, filter.CategoryNonSquarePixels),
				Inputs:      singleInput,
				Params: []filter.Param{
					{Key: "inputSaturation", Type: filter.TypeScalar, Description: "The amount of saturation to apply.", Default: 1.0, Identity: 1.0, Range: filter.AtLeast(0), SliderMin: 0, SliderMax: 2},
					{Key: "inputBrightness", Type: filter.TypeScalar, Description: "The amount of brightness to apply.", Default: 0.0, Identity: 0.0, Range: filter.Bounded(-1, 1), SliderMin: -1, SliderMax: 1},
					{Key: "inputContrast", Type: filter.TypeScalar, Description: "The amount of contrast to apply.", Default: 1.0, Identity: 1.0, Range: filter.AtLeast(0), SliderMin: 0.25, SliderMax: 4},
				},
				Serializable: true,
			},
			ctor: straight(func(v filter.Values) func(pixel.Pixel) pixel.Pixel {
				sat := v.Float("inputSaturation")
				bright := v.Float("inputBrightness")
				contrast := v.Float("inputContrast")
				return func(p pixel.Pixel) pixel.Pixel {
					r, g, b := float64(p[0]), float64(p[1]), float64(p[2])
					l := lumaR*r + lumaG*g + lumaB*b
					r, g, b = l+(r-l)*sat, l+(g-l)*sat, l+(b-l)*sat
					r, g, b = r+bright, g+bright, b+bright
					r, g, b = (r-0.5)*contrast+0.5, (g-0.5)*contrast+0.5, (b-0.5)*contrast+0.5
					return pixel.Pixel{float32(r), float32(g), float32(b), p[3]}
				}
			}),
		},
		{
			name: "CIExposureAdjust",
			desc: filter.Descriptor{
				DisplayName: "Exposure Adjust",
				Description: "Adjusts the exposure setting for an image similar to the way you control exposure for a camera.",
				Categories:  categories(filter.CategoryColorAdjustment, filter.CategoryInterlaced, filter.CategoryNonSquarePixels, filter.CategoryHighDynamicRange),
				Inputs:      singleInput,
				Params: []filter.Param{
					{Key: "inputEV", Type: filter.TypeScalar, Description: "The amount to adjust the exposure of the image by, in f-stops.", Default: 0.0, Identity: 0.0, Range: filter.Bounded(-10, 10), SliderMin: -10, SliderMax: 10},
				},
				Serializable: true,
			},
			ctor: straight(func(v filter.Values) func(pixel.Pixel) pixel.Pixel {
				gain := math.Exp2(v.Float("inputEV"))
				sp := colorspace.SRGB()
				return func(p pixel.Pixel) pixel.Pixel {
					var out pixel.Pixel
					for i := 0; i < 3; i++ {
						out[i] = float32(sp.FromLinear(sp.ToLinear(float64(p[i])) * gain))
					}
					out[3] = p[3]
					return out
				}
			}),
		},
		{
			name: "CIGammaAdjust",
			desc: filter.Descriptor{
				DisplayName: "Gamma Adjust",
				Description: "Adjusts midtone brightness.",
				Categories:  categories(filter.CategoryColorAdjustment, filter.CategoryInterlaced, filter.CategoryNonSquarePixels, filter.CategoryHighDynamicRange),
				Inputs:      singleInput,
				Params: []filter.Param{
					{Key: "inputPower", Type: filter.TypeScalar, Description: "A gamma value to use to correct image brightness.", Default: 1.0, Identity: 1.0, Range: filter.AtLeast(0), SliderMin: 0.25, SliderMax: 4},
				},
				Serializable: true,
			},
			ctor: straight(func(v filter.Values) func(pixel.Pixel) pixel.Pixel {
				power := v.Float("inputPower")
				return func(p pixel.Pixel) pixel.Pixel {
					var out pixel.Pixel
					for i := 0; i < 3; i++ {
						c := float64(p[i])
						out[i] = float32(math.Copysign(math.Pow(math.Abs(c), power), c))
					}
					out[3] = p[3]
					return out
				}
			}),
		},
		{
			name: "CIHueAdjust",
			desc: filter.Descriptor{
				DisplayName: "Hue Adjust",
				Description: "Changes the overall hue, or tint, of the source pixels.",
				Categories:  categories(filter.CategoryColorAdjustment, filter.CategoryInterlaced, filter.CategoryNonSquarePixels, filter.CategoryHighDynamicRange),
				Inputs:      singleInput,
				Params: []filter.Param{
					{Key: "inputAngle", Type: filter.TypeAngle, Description: "An angle in radians to use to correct the hue of an image.", Default: 0.0, Identity: 0.0, SliderMin: -math.Pi, SliderMax: math.Pi},
				},
				Serializable: true,
			},
			ctor: straight(func(v filter.Values) func(pixel.Pixel) pixel.Pixel {
				deg := v.Float("inputAngle") * 180 / math.Pi
				return func(p pixel.Pixel) pixel.Pixel {
					h, s, l := colorful.Color{R: clamp01(float64(p[0])), G: clamp01(float64(p[1])), B: clamp01(float64(p[2]))}.Hsl()
					h = math.Mod(h+deg, 360)
					if h < 0 {
						h += 360
					}
					c := colorful.Hsl(h, s, l)
					return pixel.Pixel{float32(c.R), float32(c.G), float32(c.B), p[3]}
				}
			}),
		},
		{
			name: "CIColorClamp",
			desc: filter.Descriptor{
				DisplayName: "Color Clamp",
				Description: "Modifies color values to keep them within a specified range.",
				Categories:  categories(filter.CategoryColorAdjustment, filter.CategoryInterlaced, filter.CategoryNonSquarePixels),
				Inputs:      singleInput,
				Params: []filter.Param{
					vectorParam("inputMinComponents", "Lower clamping values.", 0, 0, 0, 0),
					vectorParam("inputMaxComponents", "Higher clamping values.", 1, 1, 1, 1),
				},
			},
			ctor: straight(func(v filter.Values) func(pixel.Pixel) pixel.Pixel {
				lo, hi := v.Vector("inputMinComponents"), v.Vector("inputMaxComponents")
				return func(p pixel.Pixel) pixel.Pixel {
					var out pixel.Pixel
					for i := range p {
						out[i] = float32(math.Max(lo[i], math.Min(hi[i], float64(p[i]))))
					}
					return out
				}
			}),
		},
		{
			name: "CISepiaTone",
			desc: filter.Descriptor{
				DisplayName: "Sepia Tone",
				Description: "Maps the colors of an image to various shades of brown.",
				Categories:  categories(filter.CategoryColorEffect, filter.CategoryInterlaced, filter.CategoryNonSquarePixels),
				Inputs:      singleInput,
				Params: []filter.Param{
					{Key: "inputIntensity", Type: filter.TypeScalar, Description: "The intensity of the sepia effect.", Default: 1.0, Identity: 0.0, Range: filter.Bounded(0, 1), SliderMin: 0, SliderMax: 1},
				},
			},
			ctor: func(req filter.Request) (*graph.Image, error) {
				intensity := req.Values.Float("inputIntensity")
				return req.Node(filter.ImageKernel{Fn: func(img image.Image) image.Image {
					return keepAlpha(img, blend.Opacity(img, effect.Sepia(img), intensity))
				}}), nil
			},
		},
		{
			name: "CIPhotoEffectMono",
			desc: filter.Descriptor{
				DisplayName: "Photo Effect Mono",
				Description: "Applies a black-and-white photo effect to an image.",
				Categories:  categories(filter.CategoryColorEffect, filter.CategoryInterlaced, filter.CategoryNonSquarePixels),
				Inputs:      singleInput,
			},
			ctor: func(req filter.Request) (*graph.Image, error) {
				return req.Node(filter.ImageKernel{Fn: func(img image.Image) image.Image {
					return keepAlpha(img, effect.Grayscale(img))
				}}), nil
			},
		},
		{
			name: "CIConstantColorGenerator",
			desc: filter.Descriptor{
				DisplayName: "Constant Color",
				Description: "Generates a solid color.",
				Categories:  categories(filter.CategoryGenerator),
				Params: []filter.Param{
					{Key: "inputColor", Type: filter.TypeColor, Description: "The color to generate.", Default: color.Black},
				},
			},
			ctor: func(req filter.Request) (*graph.Image, error) {
				return graph.NewFromColor(req.Values.Color("inputColor")), nil
			},
		},
	}
}

// straight builds a constructor for a per-pixel filter whose function works
// on unpremultiplied values.
func straight(fn func(v filter.Values) func(pixel.Pixel) pixel.Pixel) filter.Constructor {
	return func(req filter.Request) (*graph.Image, error) {
		return req.Node(filter.PointKernel{Fn: fn(req.Values), Straight: true}), nil
	}
}

func vectorParam(key, desc string, def ...float64) filter.Param {
	return filter.Param{Key: key, Type: filter.TypeVector, Description: desc, Default: def, Identity: def, Length: len(def)}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// keepAlpha returns out with the alpha channel of src. Library effects that
// produce gray or fully opaque images drop it.
func keepAlpha(src, out image.Image) *image.NRGBA {
	dst := image.NewNRGBA(out.Bounds())
	draw.Draw(dst, dst.Rect, out, out.Bounds().Min, draw.Src)
	b := dst.Rect
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			_, _, _, a := src.At(x, y).RGBA()
			dst.Pix[dst.PixOffset(x, y)+3] = uint8(a >> 8)
		}
	}
	return dst
}
