package filter

import (
	"github.com/ironsheep/cigraph/internal/color"
	"github.com/ironsheep/cigraph/internal/geom"
)

// Values holds validated parameters, defaults included. Each value has the
// Go type of its declared Type, so the typed getters never fail for keys in
// the schema. Unknown keys return the zero value.
type Values map[string]any

// Float returns a scalar, angle, distance or time parameter.
func (v Values) Float(key string) float64 {
	switch x := v[key].(type) {
	case float64:
		return x
	case int:
		return float64(x)
	}
	return 0
}

// Int returns an integer or count parameter.
func (v Values) Int(key string) int {
	x, _ := v[key].(int)
	return x
}

// Bool returns a boolean parameter.
func (v Values) Bool(key string) bool {
	x, _ := v[key].(bool)
	return x
}

// Point returns a position or offset parameter.
func (v Values) Point(key string) geom.Point {
	x, _ := v[key].(geom.Point)
	return x
}

// Rect returns a rectangle parameter.
func (v Values) Rect(key string) geom.Rect {
	x, ok := v[key].(geom.Rect)
	if !ok {
		return geom.Null()
	}
	return x
}

// Color returns a colour parameter.
func (v Values) Color(key string) color.Color {
	x, _ := v[key].(color.Color)
	return x
}

// Affine returns a transform parameter.
func (v Values) Affine(key string) geom.Affine {
	x, ok := v[key].(geom.Affine)
	if !ok {
		return geom.Identity()
	}
	return x
}

// Vector returns a vector parameter.
func (v Values) Vector(key string) []float64 {
	x, _ := v[key].([]float64)
	return x
}
