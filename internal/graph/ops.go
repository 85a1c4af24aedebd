package graph

import (
	"math"

	"github.com/ironsheep/cigraph/internal/colorspace"
	"github.com/ironsheep/cigraph/internal/geom"
	"github.com/ironsheep/cigraph/internal/imgerr"
	"github.com/ironsheep/cigraph/internal/metadata"
)

// Applying returns img transformed by m.
func (img *Image) Applying(m geom.Affine) *Image {
	out := newNode(KindTransform, m.ApplyRect(img.extent), img)
	out.matrix = m
	return out
}

// ImageTransform returns the transform that displays img upright for a
// TIFF orientation value. The result maps the extent to start at (0, 0).
func (img *Image) ImageTransform(o geom.Orientation) (geom.Affine, error) {
	if !o.Valid() {
		return geom.Identity(), imgerr.Newf("image transform", imgerr.ErrInvalidParameter, "orientation %d", o)
	}
	m, ok := geom.OrientationTransform(o, img.extent)
	if !ok {
		return geom.Identity(), nil
	}
	return m, nil
}

// ApplyingOrientation returns img displayed upright for a TIFF orientation
// value. Images without a finite extent are returned unchanged.
func (img *Image) ApplyingOrientation(o geom.Orientation) (*Image, error) {
	if !o.Valid() {
		return nil, imgerr.Newf("apply orientation", imgerr.ErrInvalidParameter, "orientation %d", o)
	}
	m, ok := geom.OrientationTransform(o, img.extent)
	if !ok {
		return img, nil
	}
	return img.Applying(m), nil
}

// Cropping returns the part of img inside r.
func (img *Image) Cropping(r geom.Rect) *Image {
	out := newNode(KindCrop, img.extent.Intersect(r), img)
	out.rect = r
	return out
}

// CompositingOver returns img drawn over dest with source-over blending.
func (img *Image) CompositingOver(dest *Image) *Image {
	return newNode(KindComposite, img.extent.Union(dest.extent), img, dest)
}

// ApplyingFilter applies a registered single-input filter to img.
func (img *Image) ApplyingFilter(a FilterApplier, name string, params map[string]any) (*Image, error) {
	return a.Apply(name, []*Image{img}, params)
}

// ClampingToExtent returns an image of infinite extent whose samples
// outside img's extent repeat the nearest edge pixel.
func (img *Image) ClampingToExtent() *Image {
	out := newNode(KindClamp, geom.Infinite(), img)
	out.rect = img.extent
	return out
}

// Clamping returns an image whose extent is exactly r. Samples of r outside
// img's extent repeat the nearest edge pixel of img.
func (img *Image) Clamping(r geom.Rect) *Image {
	out := newNode(KindClamp, r, img)
	out.rect = img.extent
	return out
}

// BlurPadding returns the distance a Gaussian blur spreads a pixel.
func BlurPadding(sigma float64) float64 {
	if !(sigma > 0) {
		return 0
	}
	return math.Ceil(3 * sigma)
}

// ApplyingGaussianBlur returns img blurred with standard deviation sigma.
// The extent grows by ceil(3*sigma) on every side.
func (img *Image) ApplyingGaussianBlur(sigma float64) *Image {
	if sigma < 0 || math.IsNaN(sigma) {
		sigma = 0
	}
	pad := BlurPadding(sigma)
	out := newNode(KindBlur, img.extent.Outset(pad, pad), img)
	out.sigma = sigma
	return out
}

// PremultiplyingAlpha treats img's colour channels as straight alpha and
// multiplies them by alpha.
func (img *Image) PremultiplyingAlpha() *Image {
	return newNode(KindPremultiply, img.extent, img)
}

// UnpremultiplyingAlpha divides img's colour channels by alpha.
func (img *Image) UnpremultiplyingAlpha() *Image {
	return newNode(KindUnpremultiply, img.extent, img)
}

// SettingAlphaOne returns img made opaque inside r. Pixels of r outside
// img's extent become opaque black.
func (img *Image) SettingAlphaOne(r geom.Rect) *Image {
	out := newNode(KindSetAlpha, r, img)
	out.rect = r
	return out
}

// MatchedToWorkingSpace converts img from space into the working space.
func (img *Image) MatchedToWorkingSpace(space *colorspace.Space) (*Image, error) {
	return img.matched("match to working space", space, colorspace.SRGB())
}

// MatchedFromWorkingSpace converts img from the working space into space.
func (img *Image) MatchedFromWorkingSpace(space *colorspace.Space) (*Image, error) {
	return img.matched("match from working space", colorspace.SRGB(), space)
}

func (img *Image) matched(op string, from, to *colorspace.Space) (*Image, error) {
	for _, s := range []*colorspace.Space{from, to} {
		if !s.IsRGB() {
			name := "<nil>"
			if s != nil {
				name = s.Name()
			}
			return nil, imgerr.New(op, imgerr.ErrInvalidColorSpace, name)
		}
	}
	out := newNode(KindColorMatch, img.extent, img)
	out.from, out.to = from, to
	return out, nil
}

// SettingProperties returns img carrying a new property bag.
func (img *Image) SettingProperties(p metadata.Properties) *Image {
	out := newNode(KindProperties, img.extent, img)
	out.props = p.Clone()
	return out
}
