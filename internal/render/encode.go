package render

import (
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/cigraph/internal/pixel"
)

// EncodePNG writes a render result as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	return Encode(w, img, "png")
}

// Encode writes a render result in the file format named by ext ("png",
// "jpg", "gif", "tif", "bmp", with or without a leading dot).
func Encode(w io.Writer, img image.Image, ext string) error {
	f, err := imaging.FormatFromExtension(strings.TrimPrefix(ext, "."))
	if err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}
	if buf, ok := img.(*pixel.Buffer); ok {
		img = buf.ToNRGBA64()
	}
	if err := imaging.Encode(w, img, f); err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}
	return nil
}
