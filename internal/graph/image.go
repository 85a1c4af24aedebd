package graph

import (
	"context"
	"fmt"
	"image"
	"sync/atomic"

	"github.com/ironsheep/cigraph/internal/color"
	"github.com/ironsheep/cigraph/internal/colorspace"
	"github.com/ironsheep/cigraph/internal/geom"
	"github.com/ironsheep/cigraph/internal/imgerr"
	"github.com/ironsheep/cigraph/internal/metadata"
	"github.com/ironsheep/cigraph/internal/pixel"
)

// Handle is an external image whose pixels are produced on demand, usually
// by a decoder. Bounds must be known without decoding.
type Handle interface {
	// Bounds returns the pixel bounds of the decoded image.
	Bounds() image.Rectangle
	// Decode produces the pixels. It is called at render time and may be
	// called more than once.
	Decode(ctx context.Context) (image.Image, error)
	// Properties returns the metadata of the source.
	Properties() metadata.Properties
	// Name identifies the source in error messages.
	Name() string
}

// Kernel is the pixel program of a filter node.
type Kernel interface {
	// Extent returns the output extent for the given input extents.
	Extent(inputs []geom.Rect) geom.Rect
	// ROI returns the region of input i needed to produce r.
	ROI(input int, r geom.Rect) geom.Rect
	// Process fills dst. Each source buffer covers at least the region
	// returned by ROI for dst's bounds, clipped to that input's extent.
	Process(ctx context.Context, dst *pixel.Buffer, srcs []*pixel.Buffer) error
}

// FilterApplier applies named filters. The filter registry implements it.
type FilterApplier interface {
	Apply(name string, inputs []*Image, params map[string]any) (*Image, error)
}

// Filter is the payload of a filter node.
type Filter struct {
	// Name is the registered filter name.
	Name string
	// Params are the resolved parameter values, defaults included.
	Params map[string]any
	// Kernel computes the pixels.
	Kernel Kernel
	// Serializable marks filters that may appear in a serialized document.
	Serializable bool
}

var nextID atomic.Uint64

// Image is an immutable node of the image graph. The zero value is not
// usable; build images with the constructors in this package.
type Image struct {
	id       uint64
	kind     Kind
	extent   geom.Rect
	children []*Image

	source   SourceKind
	buffer   *pixel.Buffer
	color    color.Color
	handle   Handle
	matrix   geom.Affine
	rect     geom.Rect
	sigma    float64
	filter   *Filter
	from, to *colorspace.Space
	props    metadata.Properties
}

func newNode(kind Kind, extent geom.Rect, children ...*Image) *Image {
	return &Image{
		id:       nextID.Add(1),
		kind:     kind,
		extent:   extent,
		children: children,
	}
}

// Empty returns an image with a null extent.
func Empty() *Image {
	img := newNode(KindSource, geom.Null())
	img.source = SourceEmpty
	return img
}

// NewFromColor returns an image of infinite extent filled with c. The
// colour is matched into the working space.
func NewFromColor(c color.Color) *Image {
	img := newNode(KindSource, geom.Infinite())
	img.source = SourceColor
	// Converting into an RGB space cannot fail.
	img.color, _ = c.Converted(colorspace.SRGB())
	return img
}

// NewFromBuffer returns an image backed by a copy of buf, whose samples are
// premultiplied values in space. Spaces other than the working space add a
// colour match node. Non-RGB spaces fail with imgerr.ErrInvalidColorSpace.
func NewFromBuffer(buf *pixel.Buffer, space *colorspace.Space) (*Image, error) {
	if space == nil {
		space = colorspace.SRGB()
	}
	if !space.IsRGB() {
		return nil, imgerr.New("image from buffer", imgerr.ErrInvalidColorSpace, space.Name())
	}
	img := newNode(KindSource, geom.FromImageRect(buf.Rect))
	img.source = SourceBuffer
	img.buffer = buf.Clone()
	if colorspace.Same(space, colorspace.SRGB()) {
		return img, nil
	}
	return img.MatchedToWorkingSpace(space)
}

// NewFromImage returns an image holding the pixels of img, read as sRGB.
func NewFromImage(img image.Image) *Image {
	out := newNode(KindSource, geom.FromImageRect(img.Bounds()))
	out.source = SourceBuffer
	out.buffer = pixel.FromImage(img, img.Bounds())
	return out
}

// NewFromHandle returns an image whose pixels come from h at render time.
func NewFromHandle(h Handle) *Image {
	img := newNode(KindSource, geom.FromImageRect(h.Bounds()))
	img.source = SourceHandle
	img.handle = h
	return img
}

// NewFilter returns a filter node. Filter constructors call it after
// validating their parameters; the extent comes from the kernel.
func NewFilter(f Filter, inputs ...*Image) *Image {
	extents := make([]geom.Rect, len(inputs))
	for i, in := range inputs {
		extents[i] = in.extent
	}
	img := newNode(KindFilter, f.Kernel.Extent(extents), inputs...)
	params := make(map[string]any, len(f.Params))
	for k, v := range f.Params {
		params[k] = v
	}
	f.Params = params
	img.filter = &f
	return img
}

// ID returns a process-unique identifier used in diagnostics.
func (img *Image) ID() uint64 { return img.id }

// Kind returns the operation of the node.
func (img *Image) Kind() Kind { return img.kind }

// Extent returns the bounding rectangle of the defined pixels.
func (img *Image) Extent() geom.Rect { return img.extent }

// Children returns the inputs of the node.
func (img *Image) Children() []*Image {
	return append([]*Image(nil), img.children...)
}

// SourceKind returns the payload kind of a source node.
func (img *Image) SourceKind() SourceKind { return img.source }

// Buffer returns the pixels of a buffer source. Callers must not modify it.
func (img *Image) Buffer() *pixel.Buffer { return img.buffer }

// Color returns the fill colour of a colour source.
func (img *Image) Color() color.Color { return img.color }

// Handle returns the handle of a handle source.
func (img *Image) Handle() Handle { return img.handle }

// Matrix returns the transform of a transform node.
func (img *Image) Matrix() geom.Affine { return img.matrix }

// Rect returns the rectangle of a crop, set-alpha or clamp node. For a clamp
// node it is the region samples are clamped into.
func (img *Image) Rect() geom.Rect { return img.rect }

// Sigma returns the standard deviation of a blur node.
func (img *Image) Sigma() float64 { return img.sigma }

// Filter returns the payload of a filter node.
func (img *Image) Filter() *Filter { return img.filter }

// Spaces returns the source and destination spaces of a colour match node.
func (img *Image) Spaces() (from, to *colorspace.Space) { return img.from, img.to }

// Properties returns the property bag of the root source, or the bag set
// by the nearest SettingProperties node.
func (img *Image) Properties() metadata.Properties {
	for n := img; n != nil; {
		switch {
		case n.kind == KindProperties:
			return n.props.Clone()
		case n.kind == KindSource && n.source == SourceHandle:
			return n.handle.Properties().Clone()
		case len(n.children) == 0:
			return metadata.Properties{}
		}
		n = n.children[0]
	}
	return metadata.Properties{}
}

// ColorSpace returns the space the node's pixel values are expressed in.
func (img *Image) ColorSpace() *colorspace.Space {
	for n := img; n != nil; {
		if n.kind == KindColorMatch {
			return n.to
		}
		if len(n.children) == 0 {
			break
		}
		n = n.children[0]
	}
	return colorspace.SRGB()
}

// String describes the node for diagnostics.
func (img *Image) String() string {
	switch img.kind {
	case KindSource:
		if img.source == SourceHandle {
			return fmt.Sprintf("source#%d(%s %q) %v", img.id, img.source, img.handle.Name(), img.extent)
		}
		return fmt.Sprintf("source#%d(%s) %v", img.id, img.source, img.extent)
	case KindFilter:
		return fmt.Sprintf("filter#%d(%s) %v", img.id, img.filter.Name, img.extent)
	}
	return fmt.Sprintf("%s#%d %v", img.kind, img.id, img.extent)
}
