// Package metadata extracts the property bag attached to decoded source
// images.
//
// The graph never interprets properties; it forwards the bag of the root
// source node unchanged. Extract fills the bag from the encoded bytes:
// dimensions, format, colour depth and alpha from the image header, plus the
// Dublin Core title and description when the file embeds an XMP packet.
package metadata

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"maps"
	"slices"

	"golang.org/x/text/language"
	"seehuhn.de/go/xmp"

	"github.com/ironsheep/cigraph/internal/logging"
)

// Property keys filled by Extract.
const (
	KeyWidth       = "width"
	KeyHeight      = "height"
	KeyFormat      = "format"
	KeyColorDepth  = "color_depth"
	KeyHasAlpha    = "has_alpha"
	KeyByteSize    = "byte_size"
	KeyTitle       = "title"
	KeyDescription = "description"
)

// Properties is a read-only key/value bag. Methods that change the bag
// return a new one.
type Properties map[string]any

// Clone returns a shallow copy of p.
func (p Properties) Clone() Properties {
	if p == nil {
		return Properties{}
	}
	return maps.Clone(p)
}

// With returns a copy of p with the entries of other added on top.
func (p Properties) With(other Properties) Properties {
	out := p.Clone()
	maps.Copy(out, other)
	return out
}

// Keys returns the keys in sorted order.
func (p Properties) Keys() []string {
	return slices.Sorted(maps.Keys(p))
}

// Info describes an encoded image.
type Info struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the name the decoder registered, e.g. "png" or "jpeg".
	Format string `json:"format"`

	// ColorDepth is "8-bit" or "16-bit".
	ColorDepth string `json:"color_depth"`

	// HasAlpha reports whether the colour model carries transparency.
	HasAlpha bool `json:"has_alpha"`

	// ByteSize is the length of the encoded data.
	ByteSize int64 `json:"byte_size"`

	// Title and Description come from an embedded XMP packet.
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// Extract reads the image header and any embedded XMP packet. It needs a
// decoder registered for the format.
func Extract(data []byte) (*Info, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image header: %w", err)
	}

	info := &Info{
		Width:      cfg.Width,
		Height:     cfg.Height,
		Format:     format,
		ColorDepth: "8-bit",
		ByteSize:   int64(len(data)),
	}

	switch cfg.ColorModel {
	case color.RGBAModel, color.NRGBAModel:
		info.HasAlpha = true
	case color.RGBA64Model, color.NRGBA64Model:
		info.HasAlpha = true
		info.ColorDepth = "16-bit"
	case color.Gray16Model:
		info.ColorDepth = "16-bit"
	default:
		if pal, ok := cfg.ColorModel.(color.Palette); ok {
			info.HasAlpha = paletteHasAlpha(pal)
		}
	}

	if packet := findXMP(data); packet != nil {
		if err := info.readXMP(packet); err != nil {
			logging.Logger().Warn("ignoring unreadable XMP packet", "err", err)
		}
	}
	return info, nil
}

// Properties returns the information as a property bag.
func (i *Info) Properties() Properties {
	p := Properties{
		KeyWidth:      i.Width,
		KeyHeight:     i.Height,
		KeyFormat:     i.Format,
		KeyColorDepth: i.ColorDepth,
		KeyHasAlpha:   i.HasAlpha,
		KeyByteSize:   i.ByteSize,
	}
	if i.Title != "" {
		p[KeyTitle] = i.Title
	}
	if i.Description != "" {
		p[KeyDescription] = i.Description
	}
	return p
}

func paletteHasAlpha(pal color.Palette) bool {
	for _, c := range pal {
		if _, _, _, a := c.RGBA(); a != 0xffff {
			return true
		}
	}
	return false
}

// xmpMarkers are tried in order; the first complete match wins.
var xmpMarkers = [][2]string{
	{"<?xpacket begin", "<?xpacket end"},
	{"<x:xmpmeta", "</x:xmpmeta>"},
	{"<rdf:RDF", "</rdf:RDF>"},
}

// findXMP returns the first XMP packet embedded in data, or nil.
func findXMP(data []byte) []byte {
	for _, m := range xmpMarkers {
		start := bytes.Index(data, []byte(m[0]))
		if start < 0 {
			continue
		}
		end := bytes.Index(data[start:], []byte(m[1]))
		if end < 0 {
			continue
		}
		end += start + len(m[1])
		if m[1] == "<?xpacket end" {
			if stop := bytes.Index(data[end:], []byte("?>")); stop >= 0 {
				end += stop + 2
			}
		}
		return data[start:end]
	}
	return nil
}

func (i *Info) readXMP(body []byte) error {
	packet, err := xmp.Read(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to parse XMP: %w", err)
	}

	dc := &xmp.DublinCore{}
	packet.Get(dc)
	i.Title = localized(dc.Title)
	i.Description = localized(dc.Description)
	return nil
}

// localized picks the default language entry, then English, then the
// first remaining language in tag order.
func localized(l xmp.Localized) string {
	if l.Default.V != "" {
		return l.Default.V
	}
	if t, ok := l.V[language.English]; ok {
		return t.V
	}
	tags := slices.SortedFunc(maps.Keys(l.V), func(a, b language.Tag) int {
		return bytes.Compare([]byte(a.String()), []byte(b.String()))
	})
	for _, tag := range tags {
		if v := l.V[tag].V; v != "" {
			return v
		}
	}
	return ""
}
