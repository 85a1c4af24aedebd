package geom

import (
	"fmt"
	"image"
	"math"
)

// Point is a position in image space.
type Point struct {
	X, Y float64
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Rect is an axis-aligned rectangle. Min is inclusive and Max exclusive,
// following image.Rectangle.
type Rect struct {
	Min, Max Point
}

// XYWH builds a rectangle from its origin and size.
func XYWH(x, y, w, h float64) Rect {
	return Rect{Min: Point{x, y}, Max: Point{x + w, y + h}}
}

// Infinite returns the rectangle covering the whole plane.
func Infinite() Rect {
	return Rect{
		Min: Point{math.Inf(-1), math.Inf(-1)},
		Max: Point{math.Inf(1), math.Inf(1)},
	}
}

// Null returns the canonical empty rectangle.
func Null() Rect {
	return Rect{
		Min: Point{math.Inf(1), math.Inf(1)},
		Max: Point{math.Inf(-1), math.Inf(-1)},
	}
}

// FromImageRect converts an integer image rectangle.
func FromImageRect(r image.Rectangle) Rect {
	if r.Empty() {
		return Null()
	}
	return Rect{
		Min: Point{float64(r.Min.X), float64(r.Min.Y)},
		Max: Point{float64(r.Max.X), float64(r.Max.Y)},
	}
}

// IsNull reports whether r has no area.
func (r Rect) IsNull() bool {
	return !(r.Max.X > r.Min.X) || !(r.Max.Y > r.Min.Y)
}

// IsInfinite reports whether any edge of r is unbounded.
func (r Rect) IsInfinite() bool {
	if r.IsNull() {
		return false
	}
	return math.IsInf(r.Min.X, 0) || math.IsInf(r.Min.Y, 0) ||
		math.IsInf(r.Max.X, 0) || math.IsInf(r.Max.Y, 0)
}

// Dx returns the width of r, zero for a null rectangle.
func (r Rect) Dx() float64 {
	if r.IsNull() {
		return 0
	}
	return r.Max.X - r.Min.X
}

// Dy returns the height of r, zero for a null rectangle.
func (r Rect) Dy() float64 {
	if r.IsNull() {
		return 0
	}
	return r.Max.Y - r.Min.Y
}

// Intersect returns the largest rectangle contained by both r and s.
func (r Rect) Intersect(s Rect) Rect {
	if r.IsNull() || s.IsNull() {
		return Null()
	}
	out := Rect{
		Min: Point{math.Max(r.Min.X, s.Min.X), math.Max(r.Min.Y, s.Min.Y)},
		Max: Point{math.Min(r.Max.X, s.Max.X), math.Min(r.Max.Y, s.Max.Y)},
	}
	if out.IsNull() {
		return Null()
	}
	return out
}

// Union returns the smallest rectangle that contains both r and s.
func (r Rect) Union(s Rect) Rect {
	switch {
	case r.IsNull():
		if s.IsNull() {
			return Null()
		}
		return s
	case s.IsNull():
		return r
	}
	return Rect{
		Min: Point{math.Min(r.Min.X, s.Min.X), math.Min(r.Min.Y, s.Min.Y)},
		Max: Point{math.Max(r.Max.X, s.Max.X), math.Max(r.Max.Y, s.Max.Y)},
	}
}

// Outset grows r by dx horizontally and dy vertically on every side.
// Negative values shrink it.
func (r Rect) Outset(dx, dy float64) Rect {
	if r.IsNull() {
		return Null()
	}
	out := Rect{
		Min: Point{r.Min.X - dx, r.Min.Y - dy},
		Max: Point{r.Max.X + dx, r.Max.Y + dy},
	}
	if out.IsNull() {
		return Null()
	}
	return out
}

// Translate moves r by (dx, dy).
func (r Rect) Translate(dx, dy float64) Rect {
	if r.IsNull() {
		return Null()
	}
	return Rect{
		Min: Point{r.Min.X + dx, r.Min.Y + dy},
		Max: Point{r.Max.X + dx, r.Max.Y + dy},
	}
}

// Integral returns the smallest whole-pixel rectangle containing r.
func (r Rect) Integral() Rect {
	if r.IsNull() {
		return Null()
	}
	return Rect{
		Min: Point{math.Floor(r.Min.X), math.Floor(r.Min.Y)},
		Max: Point{math.Ceil(r.Max.X), math.Ceil(r.Max.Y)},
	}
}

// ImageRect converts r to an integer rectangle after rounding outward.
// It fails for infinite rectangles.
func (r Rect) ImageRect() (image.Rectangle, error) {
	if r.IsNull() {
		return image.Rectangle{}, nil
	}
	if r.IsInfinite() {
		return image.Rectangle{}, fmt.Errorf("rectangle %v has no finite bound", r)
	}
	i := r.Integral()
	return image.Rect(int(i.Min.X), int(i.Min.Y), int(i.Max.X), int(i.Max.Y)), nil
}

// Contains reports whether p lies inside r.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Min.X && p.X < r.Max.X && p.Y >= r.Min.Y && p.Y < r.Max.Y
}

// ContainsRect reports whether s lies entirely inside r. A null s is
// contained by anything.
func (r Rect) ContainsRect(s Rect) bool {
	if s.IsNull() {
		return true
	}
	if r.IsNull() {
		return false
	}
	return s.Min.X >= r.Min.X && s.Min.Y >= r.Min.Y && s.Max.X <= r.Max.X && s.Max.Y <= r.Max.Y
}

// Equal reports whether r and s describe the same set of points.
func (r Rect) Equal(s Rect) bool {
	if r.IsNull() || s.IsNull() {
		return r.IsNull() && s.IsNull()
	}
	return r == s
}

// NearlyEqual is Equal with an absolute tolerance on finite edges.
func (r Rect) NearlyEqual(s Rect, tol float64) bool {
	if r.IsNull() || s.IsNull() {
		return r.IsNull() && s.IsNull()
	}
	return near(r.Min.X, s.Min.X, tol) && near(r.Min.Y, s.Min.Y, tol) &&
		near(r.Max.X, s.Max.X, tol) && near(r.Max.Y, s.Max.Y, tol)
}

func near(a, b, tol float64) bool {
	if math.IsInf(a, 0) || math.IsInf(b, 0) {
		return a == b
	}
	return math.Abs(a-b) <= tol
}

// String formats r as "[x y w h]", "infinite" or "null".
func (r Rect) String() string {
	switch {
	case r.IsNull():
		return "null"
	case r == Infinite():
		return "infinite"
	}
	return fmt.Sprintf("[%g %g %g %g]", r.Min.X, r.Min.Y, r.Dx(), r.Dy())
}
