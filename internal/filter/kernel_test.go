package filter

import (
	"context"
	"image"
	stdcolor "image/color"
	"math"
	"testing"

	"github.com/ironsheep/cigraph/internal/geom"
	"github.com/ironsheep/cigraph/internal/pixel"
)

func filledBuffer(t *testing.T, r image.Rectangle, p pixel.Pixel) *pixel.Buffer {
	t.Helper()
	b := pixel.New(r)
	b.Fill(p)
	return b
}

func nearPixel(a, b pixel.Pixel, tol float32) bool {
	for i := range a {
		if float32(math.Abs(float64(a[i]-b[i]))) > tol {
			return false
		}
	}
	return true
}

func TestPointKernel(t *testing.T) {
	invert := PointKernel{
		Straight: true,
		Fn: func(p pixel.Pixel) pixel.Pixel {
			return pixel.Pixel{1 - p[0], 1 - p[1], 1 - p[2], p[3]}
		},
	}
	src := filledBuffer(t, image.Rect(0, 0, 4, 4), pixel.Pixel{0.1, 0.15, 0.2, 0.5})
	dst := pixel.New(image.Rect(2, 2, 6, 6))

	if err := invert.Process(context.Background(), dst, []*pixel.Buffer{src}); err != nil {
		t.Fatalf("Process() error: %v", err)
	}

	// Straight (0.2, 0.3, 0.4) inverts to (0.8, 0.7, 0.6), then back to
	// premultiplied at alpha 0.5.
	want := pixel.Pixel{0.4, 0.35, 0.3, 0.5}
	if got := dst.Pixel(3, 3); !nearPixel(got, want, 1e-6) {
		t.Errorf("inside pixel = %v, want %v", got, want)
	}
	if got := dst.Pixel(5, 5); got != (pixel.Pixel{}) {
		t.Errorf("pixel outside source = %v, want transparent", got)
	}
	if got := invert.Extent([]geom.Rect{geom.XYWH(1, 2, 3, 4)}); !got.Equal(geom.XYWH(1, 2, 3, 4)) {
		t.Errorf("Extent() = %v", got)
	}
}

func TestPointKernelCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	k := PointKernel{Fn: func(p pixel.Pixel) pixel.Pixel { return p }}
	err := k.Process(ctx, pixel.New(image.Rect(0, 0, 1, 1)), []*pixel.Buffer{pixel.New(image.Rect(0, 0, 1, 1))})
	if err == nil {
		t.Error("expected context error")
	}
}

func TestBlendKernel(t *testing.T) {
	over := BlendKernel{Fn: func(fg, bg pixel.Pixel) pixel.Pixel {
		var out pixel.Pixel
		for i := range out {
			out[i] = fg[i] + bg[i]*(1-fg[3])
		}
		return out
	}}
	fg := filledBuffer(t, image.Rect(0, 0, 2, 2), pixel.Pixel{0.5, 0, 0, 0.5})
	bg := filledBuffer(t, image.Rect(1, 0, 3, 2), pixel.Pixel{0, 0, 1, 1})
	dst := pixel.New(image.Rect(0, 0, 3, 2))

	if err := over.Process(context.Background(), dst, []*pixel.Buffer{fg, bg}); err != nil {
		t.Fatalf("Process() error: %v", err)
	}

	tests := []struct {
		x    int
		want pixel.Pixel
	}{
		{0, pixel.Pixel{0.5, 0, 0, 0.5}},
		{1, pixel.Pixel{0.5, 0, 0.5, 1}},
		{2, pixel.Pixel{0, 0, 1, 1}},
	}
	for _, tt := range tests {
		if got := dst.Pixel(tt.x, 0); !nearPixel(got, tt.want, 1e-6) {
			t.Errorf("pixel %d = %v, want %v", tt.x, got, tt.want)
		}
	}

	ext := over.Extent([]geom.Rect{geom.XYWH(0, 0, 2, 2), geom.XYWH(1, 0, 2, 2)})
	if !ext.Equal(geom.XYWH(0, 0, 3, 2)) {
		t.Errorf("Extent() = %v", ext)
	}
}

func TestImageKernelKeepsPosition(t *testing.T) {
	var seen image.Rectangle
	k := ImageKernel{Inset: 1, Fn: func(img image.Image) image.Image {
		seen = img.Bounds()
		return img
	}}
	src := filledBuffer(t, image.Rect(10, 10, 20, 20), pixel.Pixel{0, 1, 0, 1})
	dst := pixel.New(image.Rect(12, 12, 14, 14))

	if err := k.Process(context.Background(), dst, []*pixel.Buffer{src}); err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if seen != image.Rect(0, 0, 4, 4) {
		t.Errorf("function saw bounds %v, want padded region at origin", seen)
	}
	if got := dst.Pixel(13, 13); got != (pixel.Pixel{0, 1, 0, 1}) {
		t.Errorf("pixel = %v", got)
	}
	if got := k.ROI(0, geom.XYWH(0, 0, 2, 2)); !got.Equal(geom.XYWH(-1, -1, 4, 4)) {
		t.Errorf("ROI() = %v", got)
	}
}

func TestBlendImageKernel(t *testing.T) {
	k := BlendImageKernel{Fn: func(bg, fg image.Image) image.Image {
		out := image.NewNRGBA(bg.Bounds())
		for y := out.Rect.Min.Y; y < out.Rect.Max.Y; y++ {
			for x := out.Rect.Min.X; x < out.Rect.Max.X; x++ {
				br, _, _, _ := bg.At(x, y).RGBA()
				_, fgG, _, _ := fg.At(x, y).RGBA()
				out.Set(x, y, stdcolor.NRGBA64{R: uint16(br), G: uint16(fgG), A: 0xffff})
			}
		}
		return out
	}}
	fg := filledBuffer(t, image.Rect(5, 5, 7, 7), pixel.Pixel{0, 1, 0, 1})
	bg := filledBuffer(t, image.Rect(5, 5, 7, 7), pixel.Pixel{1, 0, 0, 1})
	dst := pixel.New(image.Rect(5, 5, 7, 7))

	if err := k.Process(context.Background(), dst, []*pixel.Buffer{fg, bg}); err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if got := dst.Pixel(6, 6); got != (pixel.Pixel{1, 1, 0, 1}) {
		t.Errorf("pixel = %v", got)
	}
}

func TestPremultiplyRoundTrip(t *testing.T) {
	p := pixel.Pixel{0.2, 0.4, 0.1, 0.5}
	if got := Premultiply(Unpremultiply(p)); !nearPixel(got, p, 1e-6) {
		t.Errorf("round trip = %v, want %v", got, p)
	}
	if got := Unpremultiply(pixel.Pixel{0.3, 0.3, 0.3, 0}); got != (pixel.Pixel{}) {
		t.Errorf("zero alpha = %v", got)
	}
}
