package filter

import (
	"fmt"
	"math"
)

// Filter categories.
const (
	CategoryDistortionEffect   = "CICategoryDistortionEffect"
	CategoryGeometryAdjustment = "CICategoryGeometryAdjustment"
	CategoryCompositeOperation = "CICategoryCompositeOperation"
	CategoryHalftoneEffect     = "CICategoryHalftoneEffect"
	CategoryColorAdjustment    = "CICategoryColorAdjustment"
	CategoryColorEffect        = "CICategoryColorEffect"
	CategoryTransition         = "CICategoryTransition"
	CategoryTileEffect         = "CICategoryTileEffect"
	CategoryGenerator          = "CICategoryGenerator"
	CategoryReduction          = "CICategoryReduction"
	CategoryGradient           = "CICategoryGradient"
	CategoryStylize            = "CICategoryStylize"
	CategorySharpen            = "CICategorySharpen"
	CategoryBlur               = "CICategoryBlur"
	CategoryVideo              = "CICategoryVideo"
	CategoryStillImage         = "CICategoryStillImage"
	CategoryInterlaced         = "CICategoryInterlaced"
	CategoryNonSquarePixels    = "CICategoryNonSquarePixels"
	CategoryHighDynamicRange   = "CICategoryHighDynamicRange"
	CategoryBuiltIn            = "CICategoryBuiltIn"
	CategoryFilterGenerator    = "CICategoryFilterGenerator"
)

// Standard image input keys.
const (
	InputImage           = "inputImage"
	InputBackgroundImage = "inputBackgroundImage"
)

// Type is the declared type of a parameter.
type Type int

// Parameter types.
const (
	TypeScalar      Type = iota + 1 // float64
	TypeInteger                     // int
	TypeCount                       // int, never negative
	TypeBoolean                     // bool
	TypeAngle                       // float64, radians
	TypeDistance                    // float64, pixels
	TypeTime                        // float64 in [0, 1]
	TypePosition                    // geom.Point
	TypeOffset                      // geom.Point
	TypePosition3                   // [3]float64
	TypeRectangle                   // geom.Rect
	TypeColor                       // color.Color
	TypeOpaqueColor                 // color.Color, alpha forced to 1
	TypeTransform                   // geom.Affine
	TypeVector                      // []float64
)

var typeNames = map[Type]string{
	TypeScalar:      "scalar",
	TypeInteger:     "integer",
	TypeCount:       "count",
	TypeBoolean:     "boolean",
	TypeAngle:       "angle",
	TypeDistance:    "distance",
	TypeTime:        "time",
	TypePosition:    "position",
	TypeOffset:      "offset",
	TypePosition3:   "position3",
	TypeRectangle:   "rectangle",
	TypeColor:       "color",
	TypeOpaqueColor: "opaqueColor",
	TypeTransform:   "transform",
	TypeVector:      "vector",
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Known reports whether t is a declared parameter type.
func (t Type) Known() bool {
	_, ok := typeNames[t]
	return ok
}

// numeric reports whether values of t are single numbers subject to a range.
func (t Type) numeric() bool {
	switch t {
	case TypeScalar, TypeInteger, TypeCount, TypeAngle, TypeDistance, TypeTime:
		return true
	}
	return false
}

// Policy selects what Apply does with a numeric value outside its range.
type Policy int

const (
	// PolicyClamp moves out-of-range values to the nearest bound.
	PolicyClamp Policy = iota
	// PolicyReject fails with imgerr.ErrInvalidParameter.
	PolicyReject
)

func (p Policy) String() string {
	if p == PolicyReject {
		return "reject"
	}
	return "clamp"
}

// Range bounds a numeric parameter. Use math.Inf for an open side.
type Range struct {
	Min, Max float64
}

// Bounded returns a closed range.
func Bounded(lo, hi float64) *Range {
	return &Range{Min: lo, Max: hi}
}

// AtLeast returns a range open above.
func AtLeast(lo float64) *Range {
	return &Range{Min: lo, Max: math.Inf(1)}
}

// Param declares one filter parameter.
type Param struct {
	Key         string
	Type        Type
	Description string

	// Default is used when Apply is not given the key.
	Default any
	// Identity is the value for which the filter leaves its input
	// unchanged, if there is one.
	Identity any

	// Range limits numeric values; nil means unbounded.
	Range *Range
	// SliderMin and SliderMax suggest a UI range inside Range.
	SliderMin, SliderMax float64
	// Policy applies to values outside Range.
	Policy Policy

	// Length is the required length of vector values; 0 means any.
	Length int
}

// Descriptor describes a registered filter.
type Descriptor struct {
	// Name is filled in by Register.
	Name        string
	DisplayName string
	Description string
	Categories  []string

	// Inputs lists the image input keys in the order Apply expects them.
	Inputs []string
	// Params is the ordered parameter schema.
	Params []Param

	// Serializable filters may appear in serialized documents.
	Serializable bool
}

// Param returns the schema entry for key.
func (d Descriptor) Param(key string) (Param, bool) {
	for _, p := range d.Params {
		if p.Key == key {
			return p, true
		}
	}
	return Param{}, false
}

// InCategory reports whether the descriptor lists cat.
func (d Descriptor) InCategory(cat string) bool {
	for _, c := range d.Categories {
		if c == cat {
			return true
		}
	}
	return false
}

// validate checks the schema before registration.
func (d Descriptor) validate() error {
	seen := make(map[string]bool)
	for _, in := range d.Inputs {
		if in == "" || seen[in] {
			return fmt.Errorf("input key %q is empty or repeated", in)
		}
		seen[in] = true
	}
	for _, p := range d.Params {
		if p.Key == "" || seen[p.Key] {
			return fmt.Errorf("parameter key %q is empty or repeated", p.Key)
		}
		seen[p.Key] = true
		if !p.Type.Known() {
			return fmt.Errorf("parameter %q has unknown type %v", p.Key, p.Type)
		}
		if p.Range != nil {
			if !p.Type.numeric() {
				return fmt.Errorf("parameter %q: %v values cannot have a range", p.Key, p.Type)
			}
			if p.Range.Min > p.Range.Max {
				return fmt.Errorf("parameter %q: empty range [%g, %g]", p.Key, p.Range.Min, p.Range.Max)
			}
		}
		if p.Default == nil {
			return fmt.Errorf("parameter %q has no default", p.Key)
		}
		v, err := coerce(p, p.Default)
		if err != nil {
			return fmt.Errorf("parameter %q default: %w", p.Key, err)
		}
		if _, err := p.checkRange(v); err != nil {
			return fmt.Errorf("parameter %q default outside its range", p.Key)
		}
	}
	return nil
}
