package filter

import (
	"context"
	"image"
	"math"

	"github.com/ironsheep/cigraph/internal/geom"
	"github.com/ironsheep/cigraph/internal/graph"
	"github.com/ironsheep/cigraph/internal/pixel"
)

// The kernels below cover the common shapes of filter: per-pixel colour
// functions, two-input blends, and wrappers around library functions that
// take and return image.Image.

var (
	_ graph.Kernel = PointKernel{}
	_ graph.Kernel = BlendKernel{}
	_ graph.Kernel = ImageKernel{}
	_ graph.Kernel = BlendImageKernel{}
)

func unionExtent(in []geom.Rect) geom.Rect {
	out := geom.Null()
	for _, r := range in {
		out = out.Union(r)
	}
	return out
}

// PointKernel maps each pixel of a single input independently.
type PointKernel struct {
	// Fn maps one pixel.
	Fn func(p pixel.Pixel) pixel.Pixel
	// Straight passes unpremultiplied pixels to Fn and premultiplies the
	// result again.
	Straight bool
}

// Extent implements graph.Kernel.
func (k PointKernel) Extent(in []geom.Rect) geom.Rect { return in[0] }

// ROI implements graph.Kernel.
func (k PointKernel) ROI(_ int, r geom.Rect) geom.Rect { return r }

// Process implements graph.Kernel.
func (k PointKernel) Process(ctx context.Context, dst *pixel.Buffer, srcs []*pixel.Buffer) error {
	src := srcs[0]
	return dst.RowsContext(ctx, func(y int, row []float32) {
		for i := 0; i < len(row); i += 4 {
			p := src.Pixel(dst.Rect.Min.X+i/4, y)
			if k.Straight {
				p = Unpremultiply(p)
			}
			p = k.Fn(p)
			if k.Straight {
				p = Premultiply(p)
			}
			copy(row[i:i+4], p[:])
		}
	})
}

// BlendKernel combines two inputs pixel by pixel. Input 0 is the
// foreground and input 1 the background.
type BlendKernel struct {
	Fn func(fg, bg pixel.Pixel) pixel.Pixel
}

// Extent implements graph.Kernel.
func (k BlendKernel) Extent(in []geom.Rect) geom.Rect { return unionExtent(in) }

// ROI implements graph.Kernel.
func (k BlendKernel) ROI(_ int, r geom.Rect) geom.Rect { return r }

// Process implements graph.Kernel.
func (k BlendKernel) Process(ctx context.Context, dst *pixel.Buffer, srcs []*pixel.Buffer) error {
	return dst.RowsContext(ctx, func(y int, row []float32) {
		for i := 0; i < len(row); i += 4 {
			x := dst.Rect.Min.X + i/4
			p := k.Fn(srcs[0].Pixel(x, y), srcs[1].Pixel(x, y))
			copy(row[i:i+4], p[:])
		}
	})
}

// ImageKernel runs a library function over an 8-bit copy of one input.
// Inset is how far the function spreads a pixel; the extent grows by it and
// the function sees that much context around the requested region.
type ImageKernel struct {
	Inset float64
	Fn    func(img image.Image) image.Image
}

// Extent implements graph.Kernel.
func (k ImageKernel) Extent(in []geom.Rect) geom.Rect { return in[0].Outset(k.Inset, k.Inset) }

// ROI implements graph.Kernel.
func (k ImageKernel) ROI(_ int, r geom.Rect) geom.Rect { return r.Outset(k.Inset, k.Inset) }

// Process implements graph.Kernel.
func (k ImageKernel) Process(ctx context.Context, dst *pixel.Buffer, srcs []*pixel.Buffer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	pad := int(math.Ceil(k.Inset))
	region := dst.Rect.Inset(-pad)
	in := AtOrigin(srcs[0].Crop(region).ToNRGBA())
	out := k.Fn(in)
	dst.CopyFrom(pixel.FromImage(out, out.Bounds()).Moved(region.Min))
	return ctx.Err()
}

// BlendImageKernel runs a two-image library function over 8-bit copies of
// its inputs. Input 0 is the foreground and input 1 the background.
type BlendImageKernel struct {
	Fn func(bg, fg image.Image) image.Image
}

// Extent implements graph.Kernel.
func (k BlendImageKernel) Extent(in []geom.Rect) geom.Rect { return unionExtent(in) }

// ROI implements graph.Kernel.
func (k BlendImageKernel) ROI(_ int, r geom.Rect) geom.Rect { return r }

// Process implements graph.Kernel.
func (k BlendImageKernel) Process(ctx context.Context, dst *pixel.Buffer, srcs []*pixel.Buffer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fg := AtOrigin(srcs[0].Crop(dst.Rect).ToNRGBA())
	bg := AtOrigin(srcs[1].Crop(dst.Rect).ToNRGBA())
	out := k.Fn(bg, fg)
	dst.CopyFrom(pixel.FromImage(out, out.Bounds()).Moved(dst.Rect.Min))
	return ctx.Err()
}

// AtOrigin moves img so its bounds start at (0, 0). Library functions
// written for decoded images assume that origin.
func AtOrigin(img *image.NRGBA) *image.NRGBA {
	img.Rect = img.Rect.Sub(img.Rect.Min)
	return img
}

// Unpremultiply divides the colour channels by alpha.
func Unpremultiply(p pixel.Pixel) pixel.Pixel {
	if p[3] <= 0 {
		return pixel.Pixel{}
	}
	return pixel.Pixel{p[0] / p[3], p[1] / p[3], p[2] / p[3], p[3]}
}

// Premultiply multiplies the colour channels by alpha.
func Premultiply(p pixel.Pixel) pixel.Pixel {
	return pixel.Pixel{p[0] * p[3], p[1] * p[3], p[2] * p[3], p[3]}
}
