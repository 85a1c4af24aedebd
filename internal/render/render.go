// Package render evaluates image graphs into pixels.
//
// Rendering is the only place pixels are computed. A request names a graph
// root, a rectangle in graph coordinates, an output format and an output
// colour space. Each request runs as a [Task] that moves through three
// states:
//
//	Planning -> Executing -> Done
//	                      -> Failed
//
// Planning walks the graph top-down and records the region every node must
// produce, taking the union where a node is shared by several parents.
// Executing evaluates the nodes bottom-up. Every node is computed at most
// once per request, independent children are evaluated on separate
// goroutines, and per-pixel loops are split across rows.
//
// # Errors
//
// Render failures abort only the request that hit them:
//
//   - [imgerr.ErrUnresolvedExtent]: the rectangle (or, for RenderExtent,
//     the image extent) is infinite.
//   - [imgerr.ErrUnsupportedColorSpace]: the output space is not RGB.
//   - [imgerr.ErrRegionTooLarge]: a planned region exceeds Options.MaxPixels.
//   - [imgerr.ErrSourceDecode]: an external source failed to decode.
//   - context errors when ctx is cancelled.
//
// No partial output is returned on failure.
package render

import (
	"context"
	"fmt"
	"image"
	"runtime"
	"sync/atomic"

	"github.com/ironsheep/cigraph/internal/colorspace"
	"github.com/ironsheep/cigraph/internal/geom"
	"github.com/ironsheep/cigraph/internal/graph"
	"github.com/ironsheep/cigraph/internal/imgerr"
	"github.com/ironsheep/cigraph/internal/pixel"
)

// DefaultMaxPixels is the default per-region pixel budget (64 megapixels).
const DefaultMaxPixels = 64 << 20

// Format selects the pixel layout of a render result.
type Format int

// Output formats.
const (
	// FormatRGBA8 produces *image.NRGBA.
	FormatRGBA8 Format = iota
	// FormatRGBA16 produces *image.NRGBA64.
	FormatRGBA16
	// FormatRGBAf produces *pixel.Buffer with premultiplied float samples.
	FormatRGBAf
)

func (f Format) String() string {
	switch f {
	case FormatRGBA8:
		return "rgba8"
	case FormatRGBA16:
		return "rgba16"
	case FormatRGBAf:
		return "rgbaf"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// ParseFormat returns the format named by s.
func ParseFormat(s string) (Format, error) {
	for _, f := range []Format{FormatRGBA8, FormatRGBA16, FormatRGBAf} {
		if f.String() == s {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown render format %q", s)
}

// Options configures a Context.
type Options struct {
	// MaxPixels bounds the area of every planned region. Zero means
	// DefaultMaxPixels.
	MaxPixels int64
	// Workers bounds the goroutines used to evaluate independent subtrees
	// of one request. Zero means GOMAXPROCS.
	Workers int
}

// Context renders images. It holds no per-request state and is safe for
// concurrent use.
type Context struct {
	opts   Options
	nextID atomic.Uint64
}

// NewContext returns a Context with opts, defaults filled in.
func NewContext(opts Options) *Context {
	if opts.MaxPixels <= 0 {
		opts.MaxPixels = DefaultMaxPixels
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	return &Context{opts: opts}
}

// Options returns the effective options.
func (c *Context) Options() Options { return c.opts }

// Render produces the pixels of img inside r. The result bounds are r
// rounded outward to whole pixels. A nil space means sRGB.
func (c *Context) Render(ctx context.Context, img *graph.Image, r geom.Rect, format Format, space *colorspace.Space) (image.Image, error) {
	return c.NewTask(img, r, format, space).Run(ctx)
}

// RenderExtent renders the whole extent of img.
func (c *Context) RenderExtent(ctx context.Context, img *graph.Image, format Format, space *colorspace.Space) (image.Image, error) {
	if img == nil {
		return nil, imgerr.New("render", imgerr.ErrInvalidParameter, "nil image")
	}
	return c.Render(ctx, img, img.Extent(), format, space)
}

// NewTask prepares a render request without running it.
func (c *Context) NewTask(img *graph.Image, r geom.Rect, format Format, space *colorspace.Space) *Task {
	t := &Task{
		id:     c.nextID.Add(1),
		ctx:    c,
		img:    img,
		rect:   r,
		format: format,
		space:  space,
	}
	t.state.Store(int32(StatePlanning))
	return t
}

// Output converts a float buffer to format, matching it from the working
// space into space first.
func Output(buf *pixel.Buffer, format Format, space *colorspace.Space) (image.Image, error) {
	if space == nil {
		space = colorspace.SRGB()
	}
	if !space.IsRGB() {
		return nil, imgerr.New("render", imgerr.ErrUnsupportedColorSpace, fmt.Sprintf("%s (%s model)", space.Name(), space.Model()))
	}
	if !colorspace.Same(space, colorspace.SRGB()) {
		var err error
		if buf, err = matchBuffer(context.Background(), buf, colorspace.SRGB(), space); err != nil {
			return nil, err
		}
	}
	switch format {
	case FormatRGBA8:
		return buf.ToNRGBA(), nil
	case FormatRGBA16:
		return buf.ToNRGBA64(), nil
	case FormatRGBAf:
		return buf, nil
	}
	return nil, imgerr.Newf("render", imgerr.ErrInvalidParameter, "format %v", format)
}
