// Package colorspace supplies the colour spaces known to the image graph and
// validates their channel model.
//
// Colour matching between RGB spaces only converts transfer functions: all
// RGB spaces share the sRGB primaries. A full colour management engine is
// outside the scope of this package.
package colorspace

import (
	"fmt"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"seehuhn.de/go/icc"
)

// Model is the channel model of a colour space.
type Model int

// Channel models.
const (
	ModelRGB Model = iota
	ModelGray
	ModelCMYK
	ModelLab
)

func (m Model) String() string {
	switch m {
	case ModelRGB:
		return "RGB"
	case ModelGray:
		return "Gray"
	case ModelCMYK:
		return "CMYK"
	case ModelLab:
		return "Lab"
	}
	return fmt.Sprintf("Model(%d)", int(m))
}

// Components returns the number of colour channels, alpha excluded.
func (m Model) Components() int {
	switch m {
	case ModelGray:
		return 1
	case ModelCMYK:
		return 4
	}
	return 3
}

type transfer int

const (
	transferSRGB transfer = iota
	transferLinear
	transferGamma
)

// Space is an immutable colour space description.
type Space struct {
	name     string
	model    Model
	transfer transfer
	gamma    float64
}

var (
	srgb        = &Space{name: "sRGB", model: ModelRGB, transfer: transferSRGB}
	linearSRGB  = &Space{name: "linearSRGB", model: ModelRGB, transfer: transferLinear}
	genericRGB  = &Space{name: "genericRGB", model: ModelRGB, transfer: transferGamma, gamma: 1.8}
	genericGray = &Space{name: "genericGray", model: ModelGray, transfer: transferGamma, gamma: 2.2}
	genericCMYK = &Space{name: "genericCMYK", model: ModelCMYK, transfer: transferLinear}
)

var named = []*Space{srgb, linearSRGB, genericRGB, genericGray, genericCMYK}

// SRGB returns the sRGB space, the working space of the image graph.
func SRGB() *Space { return srgb }

// LinearSRGB returns sRGB primaries with a linear transfer function.
func LinearSRGB() *Space { return linearSRGB }

// GenericRGB returns an RGB space with a 1.8 gamma.
func GenericRGB() *Space { return genericRGB }

// GenericGray returns a single-channel gray space.
func GenericGray() *Space { return genericGray }

// GenericCMYK returns a four-channel CMYK space.
func GenericCMYK() *Space { return genericCMYK }

// ByName looks up a named space. Matching ignores case.
func ByName(name string) (*Space, bool) {
	for _, s := range named {
		if strings.EqualFold(s.name, name) {
			return s, true
		}
	}
	return nil, false
}

// Names lists the named spaces.
func Names() []string {
	out := make([]string, len(named))
	for i, s := range named {
		out[i] = s.name
	}
	return out
}

// FromICCProfile builds a space from an ICC profile. Only the channel model
// is taken from the profile; RGB profiles use the sRGB transfer function.
// The result is the named space with that encoding when there is one, so
// its name resolves through ByName.
func FromICCProfile(profile []byte) (*Space, error) {
	if len(profile) == 0 {
		return nil, fmt.Errorf("missing ICC profile")
	}
	p, err := icc.Decode(profile)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ICC profile: %w", err)
	}

	s := &Space{transfer: transferSRGB}
	switch p.ColorSpace {
	case icc.RGBSpace:
		s.model = ModelRGB
	case icc.GraySpace:
		s.model = ModelGray
		s.transfer, s.gamma = transferGamma, 2.2
	case icc.CMYKSpace:
		s.model = ModelCMYK
		s.transfer = transferLinear
	case icc.CIELabSpace:
		s.model = ModelLab
		s.transfer = transferLinear
	default:
		return nil, fmt.Errorf("unsupported ICC colour space %v", p.ColorSpace)
	}
	s.name = "icc" + s.model.String()
	return Canonical(s), nil
}

// Canonical returns the named space with the same encoding as s, or s
// itself when no named space matches.
func Canonical(s *Space) *Space {
	for _, n := range named {
		if Same(n, s) {
			return n
		}
	}
	return s
}

// Name returns the identifier used in colour strings and documents.
func (s *Space) Name() string { return s.name }

// Model returns the channel model.
func (s *Space) Model() Model { return s.model }

// NumComponents returns the number of colour channels, alpha excluded.
func (s *Space) NumComponents() int { return s.model.Components() }

// IsRGB reports whether s can hold an RGB colour.
func (s *Space) IsRGB() bool { return s != nil && s.model == ModelRGB }

// IsLinear reports whether the transfer function is the identity.
func (s *Space) IsLinear() bool { return s.transfer == transferLinear }

func (s *Space) String() string { return s.name }

// ToLinear converts an encoded channel value to linear light. Negative
// values are mirrored so extended-range colours survive.
func (s *Space) ToLinear(v float64) float64 {
	if v < 0 {
		return -s.ToLinear(-v)
	}
	switch s.transfer {
	case transferSRGB:
		r, _, _ := colorful.Color{R: v, G: v, B: v}.LinearRgb()
		return r
	case transferGamma:
		return math.Pow(v, s.gamma)
	}
	return v
}

// FromLinear is the inverse of ToLinear.
func (s *Space) FromLinear(v float64) float64 {
	if v < 0 {
		return -s.FromLinear(-v)
	}
	switch s.transfer {
	case transferSRGB:
		return colorful.LinearRgb(v, v, v).R
	case transferGamma:
		return math.Pow(v, 1/s.gamma)
	}
	return v
}

// Convert maps an encoded RGB triple from one RGB space to another.
func Convert(r, g, b float64, from, to *Space) (float64, float64, float64) {
	if from == to || from.transfer == to.transfer && from.gamma == to.gamma {
		return r, g, b
	}
	return to.FromLinear(from.ToLinear(r)),
		to.FromLinear(from.ToLinear(g)),
		to.FromLinear(from.ToLinear(b))
}

// Same reports whether a and b describe the same encoding.
func Same(a, b *Space) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return a.model == b.model && a.transfer == b.transfer && a.gamma == b.gamma
}
