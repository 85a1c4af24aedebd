package inspect

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// DefaultGridColor is semi-transparent red.
var DefaultGridColor = color.NRGBA{R: 255, A: 128}

var (
	labelColor   = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	labelBgColor = color.NRGBA{A: 180}
)

// GridOverlay copies img and draws a line every spacing pixels of graph
// space. Lines sit on multiples of spacing, so a buffer rendered at an
// offset keeps the grid aligned with the graph origin. When labels is set
// each intersection is tagged with its coordinates.
func GridOverlay(img image.Image, spacing int, labels bool, c color.Color) (*image.NRGBA, error) {
	if spacing <= 0 {
		return nil, fmt.Errorf("grid spacing must be positive, got %d", spacing)
	}
	if c == nil {
		c = DefaultGridColor
	}
	bounds := img.Bounds()
	out := image.NewNRGBA(bounds)
	draw.Draw(out, bounds, img, bounds.Min, draw.Src)

	xs := gridLines(bounds.Min.X, bounds.Max.X, spacing)
	ys := gridLines(bounds.Min.Y, bounds.Max.Y, spacing)

	for _, x := range xs {
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			out.Set(x, y, c)
		}
	}
	for _, y := range ys {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			out.Set(x, y, c)
		}
	}

	if labels {
		for _, y := range ys {
			for _, x := range xs {
				drawLabel(out, x+2, y+2, fmt.Sprintf("%d,%d", x, y))
			}
		}
	}
	return out, nil
}

// gridLines returns the multiples of spacing in [lo, hi).
func gridLines(lo, hi, spacing int) []int {
	first := lo - lo%spacing
	if first < lo {
		first += spacing
	}
	var out []int
	for v := first; v < hi; v += spacing {
		out = append(out, v)
	}
	return out
}

// drawLabel writes text with its top-left corner at (x, y) on a dark box.
func drawLabel(img *image.NRGBA, x, y int, text string) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(labelColor),
		Face: face,
	}
	w := d.MeasureString(text).Ceil()
	m := face.Metrics()
	box := image.Rect(x-1, y-1, x+w+1, y+m.Height.Ceil()).Intersect(img.Bounds())
	draw.Draw(img, box, image.NewUniform(labelBgColor), image.Point{}, draw.Over)

	d.Dot = fixed.P(x, y+m.Ascent.Ceil())
	d.DrawString(text)
}
