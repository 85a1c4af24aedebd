package filter

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/ironsheep/cigraph/internal/color"
	"github.com/ironsheep/cigraph/internal/geom"
)

// DecodeValue converts v to the Go type used for parameters of type t.
// It accepts values already of that type as well as the JSON-compatible
// forms produced by EncodeValue: numbers, number arrays, colour strings and
// the strings "infinite" and "null" for rectangles.
func DecodeValue(t Type, v any) (any, error) {
	switch t {
	case TypeScalar, TypeAngle, TypeDistance, TypeTime:
		f, ok := toFloat(v)
		if !ok {
			return nil, typeError(t, v)
		}
		if math.IsNaN(f) {
			return nil, fmt.Errorf("%v value is NaN", t)
		}
		return f, nil

	case TypeInteger, TypeCount:
		f, ok := toFloat(v)
		if !ok || f != math.Trunc(f) || math.IsInf(f, 0) {
			return nil, typeError(t, v)
		}
		return saturateInt(f), nil

	case TypeBoolean:
		b, ok := v.(bool)
		if !ok {
			return nil, typeError(t, v)
		}
		return b, nil

	case TypePosition, TypeOffset:
		if p, ok := v.(geom.Point); ok {
			return p, nil
		}
		f, ok := floats(v, 2)
		if !ok {
			return nil, typeError(t, v)
		}
		return geom.Pt(f[0], f[1]), nil

	case TypePosition3:
		if p, ok := v.([3]float64); ok {
			return p, nil
		}
		f, ok := floats(v, 3)
		if !ok {
			return nil, typeError(t, v)
		}
		return [3]float64{f[0], f[1], f[2]}, nil

	case TypeRectangle:
		switch r := v.(type) {
		case geom.Rect:
			return r, nil
		case string:
			switch r {
			case "infinite":
				return geom.Infinite(), nil
			case "null":
				return geom.Null(), nil
			}
			return nil, typeError(t, v)
		}
		f, ok := floats(v, 4)
		if !ok {
			return nil, typeError(t, v)
		}
		return geom.XYWH(f[0], f[1], f[2], f[3]), nil

	case TypeColor, TypeOpaqueColor:
		c, err := decodeColor(v)
		if err != nil {
			return nil, err
		}
		if t == TypeOpaqueColor && c.Alpha() != 1 {
			c, _ = color.NewInSpace(c.Red(), c.Green(), c.Blue(), 1, c.Space())
		}
		return c, nil

	case TypeTransform:
		if m, ok := v.(geom.Affine); ok {
			return m, nil
		}
		f, ok := floats(v, 6)
		if !ok {
			return nil, typeError(t, v)
		}
		return geom.AffineFromArray([6]float64(f)), nil

	case TypeVector:
		f, ok := floats(v, -1)
		if !ok {
			return nil, typeError(t, v)
		}
		return f, nil
	}
	return nil, fmt.Errorf("unknown parameter type %v", t)
}

// EncodeValue converts a parameter value to a JSON-compatible form that
// DecodeValue reads back.
func EncodeValue(t Type, v any) (any, error) {
	tv, err := DecodeValue(t, v)
	if err != nil {
		return nil, err
	}
	switch x := tv.(type) {
	case geom.Point:
		return []float64{x.X, x.Y}, nil
	case [3]float64:
		return x[:], nil
	case geom.Rect:
		switch {
		case x.IsNull():
			return "null", nil
		case x.IsInfinite():
			return "infinite", nil
		}
		return []float64{x.Min.X, x.Min.Y, x.Dx(), x.Dy()}, nil
	case color.Color:
		return x.String(), nil
	case geom.Affine:
		a := x.Array()
		return a[:], nil
	}
	return tv, nil
}

func decodeColor(v any) (color.Color, error) {
	switch c := v.(type) {
	case color.Color:
		return c, nil
	case string:
		return color.Parse(c)
	}
	if f, ok := floats(v, -1); ok && (len(f) == 3 || len(f) == 4) {
		if len(f) == 3 {
			f = append(f, 1)
		}
		return color.New(f[0], f[1], f[2], f[3]), nil
	}
	return color.Color{}, typeError(TypeColor, v)
}

func typeError(t Type, v any) error {
	return fmt.Errorf("expected %v value, got %T", t, v)
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	}
	return 0, false
}

// floats reads a numeric slice of length n, or any length when n < 0.
func floats(v any, n int) ([]float64, bool) {
	var out []float64
	switch x := v.(type) {
	case []float64:
		out = append([]float64(nil), x...)
	case []int:
		for _, e := range x {
			out = append(out, float64(e))
		}
	case []any:
		for _, e := range x {
			f, ok := toFloat(e)
			if !ok {
				return nil, false
			}
			out = append(out, f)
		}
	default:
		return nil, false
	}
	if n >= 0 && len(out) != n {
		return nil, false
	}
	for _, f := range out {
		if math.IsNaN(f) {
			return nil, false
		}
	}
	if out == nil {
		out = []float64{}
	}
	return out, true
}

// coerce converts v for parameter p and checks vector lengths.
func coerce(p Param, v any) (any, error) {
	tv, err := DecodeValue(p.Type, v)
	if err != nil {
		return nil, err
	}
	if p.Type == TypeVector && p.Length > 0 {
		if n := len(tv.([]float64)); n != p.Length {
			return nil, fmt.Errorf("vector has %d components, want %d", n, p.Length)
		}
	}
	return tv, nil
}

// saturateInt converts a whole number to int, pinning values beyond the int
// range to its ends so the parameter range policy sees them as too large.
func saturateInt(f float64) int {
	switch {
	case f >= float64(math.MaxInt):
		return math.MaxInt
	case f <= float64(math.MinInt):
		return math.MinInt
	}
	return int(f)
}

// checkRange applies the parameter's range policy to a coerced value. The
// error is returned for rejected values only.
func (p Param) checkRange(v any) (any, error) {
	if !p.Type.numeric() {
		return v, nil
	}
	lo, hi := math.Inf(-1), math.Inf(1)
	if p.Range != nil {
		lo, hi = p.Range.Min, p.Range.Max
	}
	if p.Type == TypeCount {
		lo = math.Max(lo, 0)
	}

	var f float64
	switch x := v.(type) {
	case int:
		f = float64(x)
	case float64:
		f = x
	}
	if f >= lo && f <= hi {
		return v, nil
	}
	if p.Policy == PolicyReject {
		return nil, fmt.Errorf("value %g outside [%g, %g]", f, lo, hi)
	}
	f = math.Max(lo, math.Min(hi, f))
	if _, ok := v.(int); ok {
		return int(f), nil
	}
	return f, nil
}
