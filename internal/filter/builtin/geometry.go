package builtin

import (
	"context"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/cigraph/internal/filter"
	"github.com/ironsheep/cigraph/internal/geom"
	"github.com/ironsheep/cigraph/internal/graph"
	"github.com/ironsheep/cigraph/internal/pixel"
)

// lanczosSupport is the reach of the Lanczos-3 filter in source pixels.
const lanczosSupport = 3

func geometryDefinitions() []definition {
	return []definition{
		{
			name: "CIAffineTransform",
			desc: filter.Descriptor{
				DisplayName: "Affine Transform",
				Description: "Applies an affine transform to an image.",
				Categories:  categories(filter.CategoryGeometryAdjustment),
				Inputs:      singleInput,
				Params: []filter.Param{
					{Key: "inputTransform", Type: filter.TypeTransform, Description: "A transform to apply to the image.", Default: geom.Identity(), Identity: geom.Identity()},
				},
				Serializable: true,
			},
			ctor: func(req filter.Request) (*graph.Image, error) {
				return req.Inputs[0].Applying(req.Values.Affine("inputTransform")), nil
			},
		},
		{
			name: "CICrop",
			desc: filter.Descriptor{
				DisplayName: "Crop",
				Description: "Applies a crop to an image.",
				Categories:  categories(filter.CategoryGeometryAdjustment),
				Inputs:      singleInput,
				Params: []filter.Param{
					{Key: "inputRectangle", Type: filter.TypeRectangle, Description: "The rectangle that specifies the crop to apply to the image.", Default: geom.Infinite(), Identity: geom.Infinite()},
				},
				Serializable: true,
			},
			ctor: func(req filter.Request) (*graph.Image, error) {
				return req.Inputs[0].Cropping(req.Values.Rect("inputRectangle")), nil
			},
		},
		{
			name: "CISourceOverCompositing",
			desc: filter.Descriptor{
				DisplayName: "Source Over",
				Description: "Places the input image over the background image.",
				Categories:  categories(filter.CategoryCompositeOperation, filter.CategoryHighDynamicRange),
				Inputs:      twoInputs,
			},
			ctor: func(req filter.Request) (*graph.Image, error) {
				return req.Inputs[0].CompositingOver(req.Inputs[1]), nil
			},
		},
		{
			name: "CILanczosScaleTransform",
			desc: filter.Descriptor{
				DisplayName: "Lanczos Scale Transform",
				Description: "Produces a high-quality, scaled version of a source image.",
				Categories:  categories(filter.CategoryGeometryAdjustment),
				Inputs:      singleInput,
				Params: []filter.Param{
					{Key: "inputScale", Type: filter.TypeScalar, Description: "The scaling factor to use on the image.", Default: 1.0, Identity: 1.0, Range: filter.Bounded(0.001, 100), SliderMin: 0.05, SliderMax: 1.5},
					{Key: "inputAspectRatio", Type: filter.TypeScalar, Description: "The additional horizontal scaling factor to use on the image.", Default: 1.0, Identity: 1.0, Range: filter.Bounded(0.001, 100), SliderMin: 0.05, SliderMax: 2},
				},
			},
			ctor: func(req filter.Request) (*graph.Image, error) {
				s := req.Values.Float("inputScale")
				return req.Node(scaleKernel{sx: s * req.Values.Float("inputAspectRatio"), sy: s}), nil
			},
		},
	}
}

// scaleKernel resamples its input with imaging's Lanczos filter. Output
// coordinates are input coordinates multiplied by (sx, sy).
type scaleKernel struct {
	sx, sy float64
}

func scaleRect(r geom.Rect, sx, sy float64) geom.Rect {
	if r.IsNull() || r.IsInfinite() {
		return r
	}
	return geom.Rect{
		Min: geom.Pt(r.Min.X*sx, r.Min.Y*sy),
		Max: geom.Pt(r.Max.X*sx, r.Max.Y*sy),
	}
}

func (k scaleKernel) Extent(in []geom.Rect) geom.Rect {
	return scaleRect(in[0], k.sx, k.sy)
}

func (k scaleKernel) ROI(_ int, r geom.Rect) geom.Rect {
	reach := lanczosSupport / math.Min(1, math.Min(k.sx, k.sy))
	return scaleRect(r, 1/k.sx, 1/k.sy).Outset(reach, reach)
}

// Process resizes the whole source buffer and copies the overlap with dst.
// The source buffer holds the region of interest, so its origin scaled by
// (sx, sy) is the origin of the resized image.
func (k scaleKernel) Process(ctx context.Context, dst *pixel.Buffer, srcs []*pixel.Buffer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	src := srcs[0]
	w := int(math.Round(float64(src.Rect.Dx()) * k.sx))
	h := int(math.Round(float64(src.Rect.Dy()) * k.sy))
	if w <= 0 || h <= 0 {
		return nil
	}
	out := imaging.Resize(filter.AtOrigin(src.ToNRGBA()), w, h, imaging.Lanczos)
	origin := image.Pt(
		int(math.Round(float64(src.Rect.Min.X)*k.sx)),
		int(math.Round(float64(src.Rect.Min.Y)*k.sy)),
	)
	dst.CopyFrom(pixel.FromImage(out, out.Bounds()).Moved(origin))
	return ctx.Err()
}
