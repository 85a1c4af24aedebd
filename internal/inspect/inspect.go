// Package inspect reads rendered graph output back for clients: colour
// samples, dominant colours and encoded image payloads.
package inspect

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"math"
	"mime"
	"slices"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/cigraph/internal/pixel"
	"github.com/ironsheep/cigraph/internal/render"
)

// RGBA holds 8-bit straight-alpha components.
type RGBA struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

// HSL is hue in degrees with saturation and lightness in percent.
type HSL struct {
	H int `json:"h"`
	S int `json:"s"`
	L int `json:"l"`
}

// ColorResult is one colour in several forms.
type ColorResult struct {
	// Hex is "#RRGGBB", or "#RRGGBBAA" when not opaque.
	Hex  string `json:"hex"`
	RGBA RGBA   `json:"rgba"`
	HSL  HSL    `json:"hsl"`
	// Components are the unclamped straight-alpha float values.
	Components [4]float64 `json:"components"`
}

// NewColorResult describes the straight-alpha colour (r, g, b, a).
func NewColorResult(r, g, b, a float64) ColorResult {
	c := colorful.Color{R: clamp01(r), G: clamp01(g), B: clamp01(b)}
	h, s, l := c.Hsl()
	if math.IsNaN(h) {
		h = 0
	}
	rgba := RGBA{R: to8(r), G: to8(g), B: to8(b), A: to8(a)}
	hex := strings.ToUpper(c.Hex())
	if rgba.A != 255 {
		hex += fmt.Sprintf("%02X", rgba.A)
	}
	return ColorResult{
		Hex:        hex,
		RGBA:       rgba,
		HSL:        HSL{H: int(math.Round(h)) % 360, S: int(math.Round(s * 100)), L: int(math.Round(l * 100))},
		Components: [4]float64{r, g, b, a},
	}
}

// Point is a pixel coordinate with an optional label.
type Point struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Label string `json:"label,omitempty"`
}

// Sample is the colour found at a point.
type Sample struct {
	Label string      `json:"label,omitempty"`
	X     int         `json:"x"`
	Y     int         `json:"y"`
	Color ColorResult `json:"color"`
}

// SampleColors reads the colour at every point of buf, in input order. A
// point outside buf fails the whole call.
func SampleColors(buf *pixel.Buffer, points []Point) ([]Sample, error) {
	out := make([]Sample, 0, len(points))
	for _, p := range points {
		if !image.Pt(p.X, p.Y).In(buf.Rect) {
			return nil, fmt.Errorf("point (%d,%d) outside rendered bounds %v", p.X, p.Y, buf.Rect)
		}
		px := buf.Pixel(p.X, p.Y)
		r, g, b, a := straight(px)
		out = append(out, Sample{Label: p.Label, X: p.X, Y: p.Y, Color: NewColorResult(r, g, b, a)})
	}
	return out, nil
}

// ColorFrequency is a quantized colour and its share of the pixels.
type ColorFrequency struct {
	Hex        string  `json:"hex"`
	Percentage float64 `json:"percentage"`
	RGBA       RGBA    `json:"rgba"`
}

// DominantColors returns up to count colours of buf, most frequent first.
// Components are quantized to multiples of 16 so near colours group
// together; fully transparent pixels are skipped.
func DominantColors(buf *pixel.Buffer, count int) []ColorFrequency {
	counts := make(map[RGBA]int)
	total := 0
	for y := buf.Rect.Min.Y; y < buf.Rect.Max.Y; y++ {
		row := buf.Row(y)
		for i := 0; i < len(row); i += 4 {
			r, g, b, a := straight(pixel.Pixel{row[i], row[i+1], row[i+2], row[i+3]})
			if a <= 0 {
				continue
			}
			k := RGBA{R: to8(r) / 16 * 16, G: to8(g) / 16 * 16, B: to8(b) / 16 * 16, A: to8(a) / 16 * 16}
			counts[k]++
			total++
		}
	}

	colors := make([]ColorFrequency, 0, len(counts))
	for k, n := range counts {
		hex := fmt.Sprintf("#%02X%02X%02X", k.R, k.G, k.B)
		colors = append(colors, ColorFrequency{
			Hex:        hex,
			Percentage: float64(n) / float64(total) * 100,
			RGBA:       k,
		})
	}
	slices.SortFunc(colors, func(a, b ColorFrequency) int {
		switch {
		case a.Percentage > b.Percentage:
			return -1
		case a.Percentage < b.Percentage:
			return 1
		}
		return strings.Compare(a.Hex, b.Hex)
	})
	if count > 0 && len(colors) > count {
		colors = colors[:count]
	}
	return colors
}

// EncodedImage is an image payload for a JSON response.
type EncodedImage struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Encode writes img in the file format named by ext and base64-encodes it.
func Encode(img image.Image, ext string) (*EncodedImage, error) {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	var buf bytes.Buffer
	if err := render.Encode(&buf, img, ext); err != nil {
		return nil, err
	}
	mt := mime.TypeByExtension("." + ext)
	if mt == "" {
		mt = "application/octet-stream"
	}
	return &EncodedImage{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    mt,
	}, nil
}

func straight(p pixel.Pixel) (r, g, b, a float64) {
	a = float64(p[3])
	if a <= 0 {
		return 0, 0, 0, 0
	}
	return float64(p[0]) / a, float64(p[1]) / a, float64(p[2]) / a, a
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func to8(v float64) uint8 {
	return uint8(math.Round(clamp01(v) * 255))
}
