// Package source decodes encoded images into lazy graph sources.
//
// A [*Handle] learns its bounds and metadata from the image header when it
// is created and decodes pixels only when the renderer asks for them. The
// decoded image is kept by the handle so repeated renders decode once.
//
// Supported formats are PNG, JPEG, GIF, BMP, TIFF and WebP.
package source

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io"
	"sync"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // Register WebP format decoder

	"github.com/ironsheep/cigraph/internal/graph"
	"github.com/ironsheep/cigraph/internal/imgerr"
	"github.com/ironsheep/cigraph/internal/logging"
	"github.com/ironsheep/cigraph/internal/metadata"
)

// Options are passed to the decoder untouched.
type Options struct {
	// AutoOrientation rotates JPEG images according to their EXIF
	// orientation tag.
	AutoOrientation bool
}

// Decoder turns encoded bytes into an image.
type Decoder interface {
	Decode(r io.Reader, opts Options) (image.Image, error)
}

// ImagingDecoder decodes with github.com/disintegration/imaging, which
// registers BMP and TIFF in addition to the standard formats.
type ImagingDecoder struct{}

// Decode implements Decoder.
func (ImagingDecoder) Decode(r io.Reader, opts Options) (image.Image, error) {
	return imaging.Decode(r, imaging.AutoOrientation(opts.AutoOrientation))
}

// Handle is a lazily decoded image. It implements graph.Handle.
type Handle struct {
	name    string
	data    []byte
	bounds  image.Rectangle
	info    *metadata.Info
	decoder Decoder
	opts    Options

	decodeOnce func() (image.Image, error)
}

var _ graph.Handle = (*Handle)(nil)

// FromBytes creates a handle for encoded image data. The name identifies
// the source in errors. Only the header is read unless the image is a JPEG
// with auto-orientation enabled: its final size depends on the EXIF tag, so
// it is decoded immediately.
func FromBytes(name string, data []byte, opts Options) (*Handle, error) {
	return fromBytes(name, data, opts, ImagingDecoder{})
}

// FromBytesWithDecoder is FromBytes with a custom decoder.
func FromBytesWithDecoder(name string, data []byte, opts Options, dec Decoder) (*Handle, error) {
	return fromBytes(name, data, opts, dec)
}

func fromBytes(name string, data []byte, opts Options, dec Decoder) (*Handle, error) {
	info, err := metadata.Extract(data)
	if err != nil {
		return nil, imgerr.Wrap("open source", imgerr.ErrSourceDecode, name, err)
	}

	h := &Handle{
		name:    name,
		data:    data,
		bounds:  image.Rect(0, 0, info.Width, info.Height),
		info:    info,
		decoder: dec,
		opts:    opts,
	}
	h.decodeOnce = sync.OnceValues(h.decode)

	if opts.AutoOrientation && info.Format == "jpeg" {
		img, err := h.decodeOnce()
		if err != nil {
			return nil, err
		}
		h.bounds = img.Bounds()
		h.info.Width, h.info.Height = h.bounds.Dx(), h.bounds.Dy()
	}
	return h, nil
}

func (h *Handle) decode() (image.Image, error) {
	logging.Logger().Debug("decoding source", "name", h.name, "bytes", len(h.data))
	img, err := h.decoder.Decode(bytes.NewReader(h.data), h.opts)
	if err != nil {
		return nil, imgerr.Wrap("decode", imgerr.ErrSourceDecode, h.name, err)
	}
	return img, nil
}

// Name implements graph.Handle.
func (h *Handle) Name() string { return h.name }

// Bounds implements graph.Handle.
func (h *Handle) Bounds() image.Rectangle { return h.bounds }

// Info returns the metadata read from the header.
func (h *Handle) Info() metadata.Info { return *h.info }

// Properties implements graph.Handle.
func (h *Handle) Properties() metadata.Properties { return h.info.Properties() }

// Decode implements graph.Handle. Failures wrap imgerr.ErrSourceDecode.
func (h *Handle) Decode(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, err := h.decodeOnce()
	if err != nil {
		return nil, err
	}
	if img.Bounds().Size() != h.bounds.Size() {
		return nil, imgerr.Newf("decode", imgerr.ErrSourceDecode,
			"%s: decoded size %v differs from header size %v", h.name, img.Bounds().Size(), h.bounds.Size())
	}
	return img, nil
}

// Image returns a graph source for h.
func (h *Handle) Image() *graph.Image {
	return graph.NewFromHandle(h)
}
