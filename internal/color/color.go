// Package color provides the immutable RGBA colour value used by the image
// graph.
//
// A Color holds four float components (red, green, blue, alpha) tagged with
// an RGB-model colour space. Components are not premultiplied and are not
// clamped, so extended-range values survive a round trip through the string
// form.
//
// # String Form
//
// String produces the components separated by spaces with the shortest
// representation that parses back to the same float64, followed by the
// space name when the space is not sRGB:
//
//	"1 0 0 1"
//	"0.25 0.5 0.75 1 linearSRGB"
//
// Parse accepts that form, optionally wrapped in brackets, as well as hex
// strings (#RGB, #RRGGBB, #RRGGBBAA) and CSS colour names.
package color

import (
	"fmt"
	stdcolor "image/color"
	"math"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"

	"github.com/ironsheep/cigraph/internal/colorspace"
	"github.com/ironsheep/cigraph/internal/imgerr"
)

// Color is an immutable RGBA colour in an RGB colour space.
type Color struct {
	r, g, b, a float64
	space      *colorspace.Space
}

// Palette, defined in sRGB.
var (
	Black   = New(0, 0, 0, 1)
	White   = New(1, 1, 1, 1)
	Gray    = New(0.5, 0.5, 0.5, 1)
	Red     = New(1, 0, 0, 1)
	Green   = New(0, 1, 0, 1)
	Blue    = New(0, 0, 1, 1)
	Cyan    = New(0, 1, 1, 1)
	Magenta = New(1, 0, 1, 1)
	Yellow  = New(1, 1, 0, 1)
	Clear   = New(0, 0, 0, 0)
)

// New returns a colour in sRGB.
func New(r, g, b, a float64) Color {
	return Color{r: r, g: g, b: b, a: a, space: colorspace.SRGB()}
}

// RGB returns an opaque colour in sRGB.
func RGB(r, g, b float64) Color {
	return New(r, g, b, 1)
}

// NewInSpace returns a colour in the given space. It fails with
// imgerr.ErrInvalidColorSpace unless the space has an RGB model.
func NewInSpace(r, g, b, a float64, space *colorspace.Space) (Color, error) {
	if !space.IsRGB() {
		return Color{}, invalidSpace("color", space)
	}
	return Color{r: r, g: g, b: b, a: a, space: space}, nil
}

// RGBInSpace is NewInSpace with alpha 1.
func RGBInSpace(r, g, b float64, space *colorspace.Space) (Color, error) {
	return NewInSpace(r, g, b, 1, space)
}

func invalidSpace(op string, space *colorspace.Space) error {
	subject := "<nil>"
	if space != nil {
		subject = fmt.Sprintf("%s (%s model)", space.Name(), space.Model())
	}
	return imgerr.New(op, imgerr.ErrInvalidColorSpace, subject)
}

// FromStd converts a standard library colour, which is taken to be sRGB.
func FromStd(c stdcolor.Color) Color {
	n := stdcolor.NRGBA64Model.Convert(c).(stdcolor.NRGBA64)
	return New(
		float64(n.R)/0xffff,
		float64(n.G)/0xffff,
		float64(n.B)/0xffff,
		float64(n.A)/0xffff,
	)
}

// Red returns the red component.
func (c Color) Red() float64 { return c.r }

// Green returns the green component.
func (c Color) Green() float64 { return c.g }

// Blue returns the blue component.
func (c Color) Blue() float64 { return c.b }

// Alpha returns the alpha component.
func (c Color) Alpha() float64 { return c.a }

// Components returns red, green, blue and alpha.
func (c Color) Components() [4]float64 {
	return [4]float64{c.r, c.g, c.b, c.a}
}

// NumberOfComponents returns the component count including alpha.
func (c Color) NumberOfComponents() int {
	return c.Space().NumComponents() + 1
}

// Space returns the colour space. The zero Color is in sRGB.
func (c Color) Space() *colorspace.Space {
	if c.space == nil {
		return colorspace.SRGB()
	}
	return c.space
}

// Converted returns c matched into another RGB space.
func (c Color) Converted(space *colorspace.Space) (Color, error) {
	if !space.IsRGB() {
		return Color{}, invalidSpace("convert", space)
	}
	r, g, b := colorspace.Convert(c.r, c.g, c.b, c.Space(), space)
	return Color{r: r, g: g, b: b, a: c.a, space: space}, nil
}

// Equal reports whether both colours share a space and all components
// differ by at most tol.
func (c Color) Equal(o Color, tol float64) bool {
	if !colorspace.Same(c.Space(), o.Space()) {
		return false
	}
	return math.Abs(c.r-o.r) <= tol && math.Abs(c.g-o.g) <= tol &&
		math.Abs(c.b-o.b) <= tol && math.Abs(c.a-o.a) <= tol
}

// Std converts c to sRGB and returns it as a 16-bit non-premultiplied
// colour, clamping each component to [0, 1].
func (c Color) Std() stdcolor.NRGBA64 {
	s, _ := c.Converted(colorspace.SRGB())
	return stdcolor.NRGBA64{
		R: to16(s.r),
		G: to16(s.g),
		B: to16(s.b),
		A: to16(s.a),
	}
}

func to16(v float64) uint16 {
	v = math.Max(0, math.Min(1, v))
	return uint16(math.Round(v * 0xffff))
}

// Hex returns "#rrggbb", or "#rrggbbaa" when alpha is below 1.
func (c Color) Hex() string {
	s, _ := c.Converted(colorspace.SRGB())
	hex := colorful.Color{R: s.r, G: s.g, B: s.b}.Clamped().Hex()
	if s.a < 1 {
		a := math.Max(0, math.Min(1, s.a))
		hex += fmt.Sprintf("%02x", uint8(math.Round(a*255)))
	}
	return hex
}

// String returns the canonical string form.
func (c Color) String() string {
	parts := make([]string, 0, 5)
	for _, v := range c.Components() {
		parts = append(parts, strconv.FormatFloat(v, 'g', -1, 64))
	}
	if sp := colorspace.Canonical(c.Space()); sp != colorspace.SRGB() {
		parts = append(parts, sp.Name())
	}
	return strings.Join(parts, " ")
}

// Parse reads a colour from its string form, a hex string or a colour name.
func Parse(s string) (Color, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Color{}, fmt.Errorf("empty color string")
	}
	if strings.HasPrefix(s, "#") {
		return parseHex(s)
	}
	if rgba, ok := colornames.Map[strings.ToLower(s)]; ok {
		return FromStd(rgba), nil
	}

	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	fields := strings.Fields(strings.ReplaceAll(s, ",", " "))

	space := colorspace.SRGB()
	if n := len(fields); n > 0 {
		if _, err := strconv.ParseFloat(fields[n-1], 64); err != nil {
			sp, ok := colorspace.ByName(fields[n-1])
			if !ok {
				return Color{}, fmt.Errorf("unknown color space %q in %q", fields[n-1], s)
			}
			space = sp
			fields = fields[:n-1]
		}
	}
	if len(fields) != 3 && len(fields) != 4 {
		return Color{}, fmt.Errorf("color %q: expected 3 or 4 components, got %d", s, len(fields))
	}

	v := [4]float64{0, 0, 0, 1}
	for i, f := range fields {
		x, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return Color{}, fmt.Errorf("failed to parse component %q: %w", f, err)
		}
		v[i] = x
	}
	return NewInSpace(v[0], v[1], v[2], v[3], space)
}

func parseHex(s string) (Color, error) {
	alpha := 1.0
	if len(s) == 9 {
		a, err := strconv.ParseUint(s[7:], 16, 8)
		if err != nil {
			return Color{}, fmt.Errorf("failed to parse alpha in %q: %w", s, err)
		}
		alpha = float64(a) / 255
		s = s[:7]
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return Color{}, fmt.Errorf("failed to parse hex color: %w", err)
	}
	return New(c.R, c.G, c.B, alpha), nil
}
