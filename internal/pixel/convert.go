package pixel

import (
	"image"
	"image/color"
	"image/draw"
)

// FromImage reads the part of img inside r into a new buffer. Pixels of r
// outside img's bounds are transparent.
func FromImage(img image.Image, r image.Rectangle) *Buffer {
	out := New(r)
	src := r.Intersect(img.Bounds())
	if src.Empty() {
		return out
	}

	switch im := img.(type) {
	case *Buffer:
		out.CopyFrom(im)
	case *image.NRGBA:
		out.Rows(func(y int, row []float32) {
			if y < src.Min.Y || y >= src.Max.Y {
				return
			}
			for x := src.Min.X; x < src.Max.X; x++ {
				s := im.Pix[im.PixOffset(x, y):]
				a := float32(s[3]) / 0xff
				i := 4 * (x - r.Min.X)
				row[i] = float32(s[0]) / 0xff * a
				row[i+1] = float32(s[1]) / 0xff * a
				row[i+2] = float32(s[2]) / 0xff * a
				row[i+3] = a
			}
		})
	case *image.RGBA:
		out.Rows(func(y int, row []float32) {
			if y < src.Min.Y || y >= src.Max.Y {
				return
			}
			for x := src.Min.X; x < src.Max.X; x++ {
				s := im.Pix[im.PixOffset(x, y):]
				i := 4 * (x - r.Min.X)
				row[i] = float32(s[0]) / 0xff
				row[i+1] = float32(s[1]) / 0xff
				row[i+2] = float32(s[2]) / 0xff
				row[i+3] = float32(s[3]) / 0xff
			}
		})
	default:
		out.Rows(func(y int, row []float32) {
			if y < src.Min.Y || y >= src.Max.Y {
				return
			}
			for x := src.Min.X; x < src.Max.X; x++ {
				cr, cg, cb, ca := img.At(x, y).RGBA()
				i := 4 * (x - r.Min.X)
				row[i] = float32(cr) / 0xffff
				row[i+1] = float32(cg) / 0xffff
				row[i+2] = float32(cb) / 0xffff
				row[i+3] = float32(ca) / 0xffff
			}
		})
	}
	return out
}

// Moved returns a buffer sharing b's samples whose rectangle starts at p.
func (b *Buffer) Moved(p image.Point) *Buffer {
	return &Buffer{
		Pix:    b.Pix,
		Stride: b.Stride,
		Rect:   b.Rect.Add(p.Sub(b.Rect.Min)),
	}
}

// ToNRGBA converts b to an 8-bit non-premultiplied image with the same
// bounds.
func (b *Buffer) ToNRGBA() *image.NRGBA {
	out := image.NewNRGBA(b.Rect)
	b.Rows(func(y int, row []float32) {
		d := out.Pix[out.PixOffset(b.Rect.Min.X, y):]
		for i := 0; i < len(row); i += 4 {
			r, g, bl, a := unpremultiply(row[i : i+4])
			d[i] = to8(r)
			d[i+1] = to8(g)
			d[i+2] = to8(bl)
			d[i+3] = to8(a)
		}
	})
	return out
}

// ToNRGBA64 converts b to a 16-bit non-premultiplied image with the same
// bounds.
func (b *Buffer) ToNRGBA64() *image.NRGBA64 {
	out := image.NewNRGBA64(b.Rect)
	b.Rows(func(y int, row []float32) {
		for i := 0; i < len(row); i += 4 {
			r, g, bl, a := unpremultiply(row[i : i+4])
			out.SetNRGBA64(b.Rect.Min.X+i/4, y, color.NRGBA64{
				R: to16(r), G: to16(g), B: to16(bl), A: to16(a),
			})
		}
	})
	return out
}

// ToRGBA64 converts b to a 16-bit premultiplied image with the same bounds.
func (b *Buffer) ToRGBA64() *image.RGBA64 {
	out := image.NewRGBA64(b.Rect)
	draw.Draw(out, b.Rect, b, b.Rect.Min, draw.Src)
	return out
}

// unpremultiply returns clamped straight-alpha components.
func unpremultiply(p []float32) (r, g, b, a float64) {
	a = unit(p[3])
	if a == 0 {
		return 0, 0, 0, 0
	}
	return unit(float32(float64(p[0]) / a)),
		unit(float32(float64(p[1]) / a)),
		unit(float32(float64(p[2]) / a)),
		a
}
