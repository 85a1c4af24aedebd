// Package pixel holds the float pixel buffers that flow between render
// nodes.
//
// A Buffer stores premultiplied RGBA as float32, four values per pixel,
// covering an integer rectangle that need not start at the origin. Values
// are not clamped until they are converted to an integer image.
package pixel

import (
	"context"
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/parallel"
)

// Pixel is one premultiplied RGBA sample.
type Pixel [4]float32

// Buffer is a premultiplied float RGBA region. It implements image.Image
// so library code that reads images can consume it directly.
type Buffer struct {
	// Pix holds the samples in R, G, B, A order, row by row.
	Pix []float32
	// Stride is the distance in floats between vertically adjacent pixels.
	Stride int
	// Rect is the region covered by the buffer.
	Rect image.Rectangle
}

// New allocates a transparent buffer covering r.
func New(r image.Rectangle) *Buffer {
	r = r.Canon()
	return &Buffer{
		Pix:    make([]float32, 4*r.Dx()*r.Dy()),
		Stride: 4 * r.Dx(),
		Rect:   r,
	}
}

// PixOffset returns the index of the first sample of (x, y) in Pix.
func (b *Buffer) PixOffset(x, y int) int {
	return (y-b.Rect.Min.Y)*b.Stride + (x-b.Rect.Min.X)*4
}

// Pixel returns the sample at (x, y), transparent outside the buffer.
func (b *Buffer) Pixel(x, y int) Pixel {
	if !(image.Point{x, y}.In(b.Rect)) {
		return Pixel{}
	}
	i := b.PixOffset(x, y)
	return Pixel{b.Pix[i], b.Pix[i+1], b.Pix[i+2], b.Pix[i+3]}
}

// SetPixel writes the sample at (x, y). Writes outside the buffer are
// ignored.
func (b *Buffer) SetPixel(x, y int, p Pixel) {
	if !(image.Point{x, y}.In(b.Rect)) {
		return
	}
	i := b.PixOffset(x, y)
	copy(b.Pix[i:i+4], p[:])
}

// Fill sets every sample to p.
func (b *Buffer) Fill(p Pixel) {
	b.Rows(func(y int, row []float32) {
		for i := 0; i < len(row); i += 4 {
			copy(row[i:i+4], p[:])
		}
	})
}

// Row returns the samples of row y.
func (b *Buffer) Row(y int) []float32 {
	i := b.PixOffset(b.Rect.Min.X, y)
	return b.Pix[i : i+4*b.Rect.Dx()]
}

// Rows calls fn for every row, splitting the rows across goroutines.
func (b *Buffer) Rows(fn func(y int, row []float32)) {
	h := b.Rect.Dy()
	if h <= 0 || b.Rect.Dx() <= 0 {
		return
	}
	parallel.Line(h, func(start, end int) {
		for y := start; y < end; y++ {
			fn(b.Rect.Min.Y+y, b.Row(b.Rect.Min.Y+y))
		}
	})
}

// RowsContext is Rows that stops starting new rows once ctx is done. It
// returns ctx.Err(); on error the buffer contents are partial.
func (b *Buffer) RowsContext(ctx context.Context, fn func(y int, row []float32)) error {
	h := b.Rect.Dy()
	if h <= 0 || b.Rect.Dx() <= 0 {
		return ctx.Err()
	}
	done := ctx.Done()
	parallel.Line(h, func(start, end int) {
		for y := start; y < end; y++ {
			select {
			case <-done:
				return
			default:
			}
			fn(b.Rect.Min.Y+y, b.Row(b.Rect.Min.Y+y))
		}
	})
	return ctx.Err()
}

// CopyFrom copies the overlap of src into b.
func (b *Buffer) CopyFrom(src *Buffer) {
	r := b.Rect.Intersect(src.Rect)
	if r.Empty() {
		return
	}
	n := 4 * r.Dx()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		di := b.PixOffset(r.Min.X, y)
		si := src.PixOffset(r.Min.X, y)
		copy(b.Pix[di:di+n], src.Pix[si:si+n])
	}
}

// Clone returns a deep copy of b.
func (b *Buffer) Clone() *Buffer {
	out := &Buffer{
		Pix:    make([]float32, len(b.Pix)),
		Stride: b.Stride,
		Rect:   b.Rect,
	}
	copy(out.Pix, b.Pix)
	return out
}

// Crop returns a copy of the part of b inside r. Areas of r that b does
// not cover are transparent.
func (b *Buffer) Crop(r image.Rectangle) *Buffer {
	out := New(r)
	out.CopyFrom(b)
	return out
}

// ColorModel implements image.Image.
func (b *Buffer) ColorModel() color.Model { return color.RGBA64Model }

// Bounds implements image.Image.
func (b *Buffer) Bounds() image.Rectangle { return b.Rect }

// At implements image.Image, clamping samples into the 16-bit range.
func (b *Buffer) At(x, y int) color.Color {
	p := b.Pixel(x, y)
	a := unit(p[3])
	return color.RGBA64{
		R: to16(math.Min(unit(p[0]), a)),
		G: to16(math.Min(unit(p[1]), a)),
		B: to16(math.Min(unit(p[2]), a)),
		A: to16(a),
	}
}

func unit(v float32) float64 {
	return math.Max(0, math.Min(1, float64(v)))
}

func to16(v float64) uint16 {
	return uint16(math.Round(v * 0xffff))
}

func to8(v float64) uint8 {
	return uint8(math.Round(v * 0xff))
}
