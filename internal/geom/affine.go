package geom

import (
	"math"

	"golang.org/x/image/math/f64"
)

// Affine is a 2D affine transformation stored as a 2x3 matrix in row-major
// order:
//
//	| A  B  C |
//	| D  E  F |
//
// which maps a point with
//
//	x' = A*x + B*y + C
//	y' = D*x + E*y + F
type Affine struct {
	A, B, C float64
	D, E, F float64
}

// Identity returns the identity transformation.
func Identity() Affine {
	return Affine{A: 1, E: 1}
}

// Translate returns a translation by (x, y).
func Translate(x, y float64) Affine {
	return Affine{A: 1, C: x, E: 1, F: y}
}

// Scale returns a scaling about the origin.
func Scale(x, y float64) Affine {
	return Affine{A: x, E: y}
}

// Rotate returns a rotation about the origin. With Y pointing down a
// positive angle turns clockwise on screen.
func Rotate(angle float64) Affine {
	sin, cos := math.Sincos(angle)
	return Affine{
		A: cos, B: -sin,
		D: sin, E: cos,
	}
}

// Multiply returns m * other, the transform that applies other first and
// then m.
func (m Affine) Multiply(other Affine) Affine {
	return Affine{
		A: m.A*other.A + m.B*other.D,
		B: m.A*other.B + m.B*other.E,
		C: m.A*other.C + m.B*other.F + m.C,
		D: m.D*other.A + m.E*other.D,
		E: m.D*other.B + m.E*other.E,
		F: m.D*other.C + m.E*other.F + m.F,
	}
}

// Then returns the transform that applies m first and next afterwards.
func (m Affine) Then(next Affine) Affine {
	return next.Multiply(m)
}

// Invert returns the inverse transform. The second result is false when m
// is singular.
func (m Affine) Invert() (Affine, bool) {
	det := m.A*m.E - m.B*m.D
	if math.Abs(det) < 1e-12 {
		return Identity(), false
	}
	inv := 1 / det
	return Affine{
		A: m.E * inv,
		B: -m.B * inv,
		C: (m.B*m.F - m.C*m.E) * inv,
		D: -m.D * inv,
		E: m.A * inv,
		F: (m.C*m.D - m.A*m.F) * inv,
	}, true
}

// Apply transforms a point.
func (m Affine) Apply(p Point) Point {
	return Point{
		X: m.A*p.X + m.B*p.Y + m.C,
		Y: m.D*p.X + m.E*p.Y + m.F,
	}
}

// ApplyRect returns the bounding box of the four transformed corners of r.
// Infinite rectangles stay infinite.
func (m Affine) ApplyRect(r Rect) Rect {
	if r.IsNull() {
		return Null()
	}
	if r.IsInfinite() {
		if m.IsTranslation() {
			return r.Translate(m.C, m.F)
		}
		return Infinite()
	}
	corners := [4]Point{
		m.Apply(r.Min),
		m.Apply(Point{r.Max.X, r.Min.Y}),
		m.Apply(Point{r.Min.X, r.Max.Y}),
		m.Apply(r.Max),
	}
	out := Rect{Min: corners[0], Max: corners[0]}
	for _, c := range corners[1:] {
		out.Min.X = math.Min(out.Min.X, c.X)
		out.Min.Y = math.Min(out.Min.Y, c.Y)
		out.Max.X = math.Max(out.Max.X, c.X)
		out.Max.Y = math.Max(out.Max.Y, c.Y)
	}
	return out
}

// IsIdentity reports whether m is exactly the identity.
func (m Affine) IsIdentity() bool {
	return m == Identity()
}

// IsTranslation reports whether m only translates.
func (m Affine) IsTranslation() bool {
	return m.A == 1 && m.B == 0 && m.D == 0 && m.E == 1
}

// IsIntegerTranslation reports whether m translates by whole pixels, in
// which case resampling is an exact copy.
func (m Affine) IsIntegerTranslation() bool {
	return m.IsTranslation() && m.C == math.Trunc(m.C) && m.F == math.Trunc(m.F)
}

// Aff3 converts m to the layout used by golang.org/x/image/draw.
func (m Affine) Aff3() f64.Aff3 {
	return f64.Aff3{m.A, m.B, m.C, m.D, m.E, m.F}
}

// Array returns the six coefficients in A..F order.
func (m Affine) Array() [6]float64 {
	return [6]float64{m.A, m.B, m.C, m.D, m.E, m.F}
}

// AffineFromArray is the inverse of Array.
func AffineFromArray(v [6]float64) Affine {
	return Affine{A: v[0], B: v[1], C: v[2], D: v[3], E: v[4], F: v[5]}
}
