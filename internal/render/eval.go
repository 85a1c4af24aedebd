package render

import (
	"context"
	"errors"
	"image"
	"math"

	xdraw "golang.org/x/image/draw"

	"github.com/ironsheep/cigraph/internal/colorspace"
	"github.com/ironsheep/cigraph/internal/graph"
	"github.com/ironsheep/cigraph/internal/imgerr"
	"github.com/ironsheep/cigraph/internal/pixel"
)

// compute produces n over its planned region. Child buffers are shared
// between parents and are never written.
func (e *evaluator) compute(ctx context.Context, n *graph.Image) (*pixel.Buffer, error) {
	r := e.regions[n]
	if r.Empty() {
		return pixel.New(image.Rectangle{}), nil
	}
	if n.Kind() == graph.KindSource {
		return e.source(ctx, n, r)
	}

	srcs, err := e.inputs(ctx, n)
	if err != nil {
		return nil, err
	}

	switch n.Kind() {
	case graph.KindTransform:
		return transform(n, srcs[0], r), nil
	case graph.KindCrop, graph.KindProperties:
		return srcs[0].Crop(r), nil
	case graph.KindComposite:
		return sourceOver(ctx, srcs[0], srcs[1], r)
	case graph.KindFilter:
		dst := pixel.New(r)
		if err := n.Filter().Kernel.Process(ctx, dst, srcs); err != nil {
			return nil, err
		}
		return dst, nil
	case graph.KindColorMatch:
		from, to := n.Spaces()
		return matchBuffer(ctx, srcs[0].Crop(r), from, to)
	case graph.KindBlur:
		return gaussianBlur(ctx, srcs[0], r, n.Sigma())
	case graph.KindSetAlpha:
		return perPixel(ctx, srcs[0].Crop(r), func(p pixel.Pixel) pixel.Pixel {
			u := unpremultiply(p)
			u[3] = 1
			return u
		})
	case graph.KindClamp:
		return clampSamples(ctx, n, srcs[0], r)
	case graph.KindPremultiply:
		return perPixel(ctx, srcs[0].Crop(r), func(p pixel.Pixel) pixel.Pixel {
			return pixel.Pixel{p[0] * p[3], p[1] * p[3], p[2] * p[3], p[3]}
		})
	case graph.KindUnpremultiply:
		return perPixel(ctx, srcs[0].Crop(r), unpremultiply)
	}
	return nil, imgerr.Newf("render", imgerr.ErrInvalidParameter, "node kind %v", n.Kind())
}

func (e *evaluator) source(ctx context.Context, n *graph.Image, r image.Rectangle) (*pixel.Buffer, error) {
	switch n.SourceKind() {
	case graph.SourceBuffer:
		return n.Buffer().Crop(r), nil
	case graph.SourceColor:
		c := n.Color()
		a := float32(c.Alpha())
		buf := pixel.New(r)
		buf.Fill(pixel.Pixel{float32(c.Red()) * a, float32(c.Green()) * a, float32(c.Blue()) * a, a})
		return buf, nil
	case graph.SourceHandle:
		h := n.Handle()
		img, err := h.Decode(ctx)
		if err != nil {
			if errors.Is(err, imgerr.ErrSourceDecode) || ctx.Err() != nil {
				return nil, err
			}
			return nil, imgerr.Wrap("render", imgerr.ErrSourceDecode, h.Name(), err)
		}
		// The decoded image may not share the handle's origin.
		off := img.Bounds().Min.Sub(h.Bounds().Min)
		return pixel.FromImage(img, r.Add(off)).Moved(r.Min), nil
	}
	return pixel.New(r), nil
}

// transform resamples src through the node's matrix. Integer translations
// move samples exactly; everything else uses bilinear sampling at 16 bits.
func transform(n *graph.Image, src *pixel.Buffer, r image.Rectangle) *pixel.Buffer {
	m := n.Matrix()
	if m.IsIntegerTranslation() {
		off := image.Pt(int(m.C), int(m.F))
		return src.Moved(src.Rect.Min.Add(off)).Crop(r)
	}
	if src.Rect.Empty() {
		return pixel.New(r)
	}
	dst := image.NewRGBA64(r)
	xdraw.BiLinear.Transform(dst, m.Aff3(), src.ToRGBA64(), src.Rect, xdraw.Src, nil)
	return pixel.FromImage(dst, r)
}

// sourceOver composites top over bottom with premultiplied source-over.
func sourceOver(ctx context.Context, top, bottom *pixel.Buffer, r image.Rectangle) (*pixel.Buffer, error) {
	dst := pixel.New(r)
	err := dst.RowsContext(ctx, func(y int, row []float32) {
		for i := 0; i < len(row); i += 4 {
			x := r.Min.X + i/4
			t, b := top.Pixel(x, y), bottom.Pixel(x, y)
			k := 1 - t[3]
			row[i] = t[0] + b[0]*k
			row[i+1] = t[1] + b[1]*k
			row[i+2] = t[2] + b[2]*k
			row[i+3] = t[3] + b[3]*k
		}
	})
	if err != nil {
		return nil, err
	}
	return dst, nil
}

// clampSamples reads every pixel of r from the nearest pixel inside the
// node's clamp rectangle.
func clampSamples(ctx context.Context, n *graph.Image, src *pixel.Buffer, r image.Rectangle) (*pixel.Buffer, error) {
	c := n.Rect().Integral()
	dst := pixel.New(r)
	if c.IsNull() {
		return dst, nil
	}
	clamp := func(v int, lo, hi float64) int {
		return int(math.Max(lo, math.Min(hi-1, float64(v))))
	}
	err := dst.RowsContext(ctx, func(y int, row []float32) {
		sy := clamp(y, c.Min.Y, c.Max.Y)
		for i := 0; i < len(row); i += 4 {
			sx := clamp(r.Min.X+i/4, c.Min.X, c.Max.X)
			p := src.Pixel(sx, sy)
			copy(row[i:i+4], p[:])
		}
	})
	if err != nil {
		return nil, err
	}
	return dst, nil
}

// perPixel applies fn to every sample of buf in place and returns buf.
func perPixel(ctx context.Context, buf *pixel.Buffer, fn func(pixel.Pixel) pixel.Pixel) (*pixel.Buffer, error) {
	err := buf.RowsContext(ctx, func(_ int, row []float32) {
		for i := 0; i < len(row); i += 4 {
			p := fn(pixel.Pixel{row[i], row[i+1], row[i+2], row[i+3]})
			copy(row[i:i+4], p[:])
		}
	})
	if err != nil {
		return nil, err
	}
	return buf, nil
}

func unpremultiply(p pixel.Pixel) pixel.Pixel {
	if p[3] <= 0 {
		return pixel.Pixel{}
	}
	return pixel.Pixel{p[0] / p[3], p[1] / p[3], p[2] / p[3], p[3]}
}

// matchBuffer converts premultiplied samples between colour spaces. The
// transfer curves apply to unpremultiplied values.
func matchBuffer(ctx context.Context, buf *pixel.Buffer, from, to *colorspace.Space) (*pixel.Buffer, error) {
	if colorspace.Same(from, to) {
		return buf, nil
	}
	out := buf.Clone()
	return perPixel(ctx, out, func(p pixel.Pixel) pixel.Pixel {
		u := unpremultiply(p)
		r, g, b := colorspace.Convert(float64(u[0]), float64(u[1]), float64(u[2]), from, to)
		a := u[3]
		return pixel.Pixel{float32(r) * a, float32(g) * a, float32(b) * a, a}
	})
}
