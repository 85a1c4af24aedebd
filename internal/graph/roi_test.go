package graph

import (
	"image"
	"testing"

	"github.com/ironsheep/cigraph/internal/color"
	"github.com/ironsheep/cigraph/internal/geom"
)

func TestIdentityTransformROI(t *testing.T) {
	src := createBufferImage(t, image.Rect(0, 0, 100, 100))
	node := src.Applying(geom.Identity())

	rects := []geom.Rect{
		geom.XYWH(0, 0, 10, 10),
		geom.XYWH(12.5, 3.25, 7, 40),
		geom.XYWH(0, 0, 100, 100),
		geom.XYWH(-10, -10, 210, 210),
		geom.XYWH(150, 150, 10, 10),
	}
	for _, r := range rects {
		if got := node.RegionOfInterest(src, r); !got.Equal(r) {
			t.Errorf("RegionOfInterest(%v) = %v", r, got)
		}
	}
}

func TestRegionOfInterest(t *testing.T) {
	src := createBufferImage(t, image.Rect(0, 0, 100, 100))

	tests := []struct {
		name string
		node *Image
		r    geom.Rect
		want geom.Rect
	}{
		{"self", src, geom.XYWH(1, 2, 3, 4), geom.XYWH(1, 2, 3, 4)},
		{"integer translate", src.Applying(geom.Translate(10, 20)), geom.XYWH(10, 20, 5, 5), geom.XYWH(0, 0, 5, 5)},
		{"scale pads one pixel", src.Applying(geom.Scale(2, 2)), geom.XYWH(20, 20, 10, 10), geom.XYWH(9, 9, 7, 7)},
		{"crop", src.Cropping(geom.XYWH(0, 0, 10, 10)), geom.XYWH(5, 5, 20, 20), geom.XYWH(5, 5, 5, 5)},
		{"blur", src.ApplyingGaussianBlur(1), geom.XYWH(10, 10, 5, 5), geom.XYWH(7, 7, 11, 11)},
		{"blur past extent", src.ApplyingGaussianBlur(1), geom.XYWH(0, 0, 5, 5), geom.XYWH(-3, -3, 11, 11)},
		{"translate past extent", src.Applying(geom.Translate(10, 0)), geom.XYWH(0, 0, 20, 5), geom.XYWH(-10, 0, 20, 5)},
		{"filter inset", NewFilter(Filter{Name: "pad", Kernel: padKernel{3}}, src), geom.XYWH(10, 10, 1, 1), geom.XYWH(7, 7, 7, 7)},
		{"per pixel", src.PremultiplyingAlpha(), geom.XYWH(3, 3, 3, 3), geom.XYWH(3, 3, 3, 3)},
		{"clamp inside", src.ClampingToExtent(), geom.XYWH(3, 3, 3, 3), geom.XYWH(3, 3, 3, 3)},
		{"clamp right of extent", src.ClampingToExtent(), geom.XYWH(150, 10, 20, 5), geom.XYWH(99, 10, 1, 5)},
		{"clamp corner", src.ClampingToExtent(), geom.XYWH(-50, -50, 10, 10), geom.XYWH(0, 0, 1, 1)},
		{"clamp infinite", src.ClampingToExtent(), geom.Infinite(), geom.XYWH(0, 0, 100, 100)},
		{"set alpha", src.SettingAlphaOne(geom.XYWH(0, 0, 4, 4)), geom.XYWH(2, 2, 10, 10), geom.XYWH(2, 2, 10, 10)},
		{"crop bounds blur", src.Cropping(geom.XYWH(0, 0, 10, 10)).ApplyingGaussianBlur(1), geom.XYWH(0, 0, 1, 1), geom.XYWH(0, 0, 4, 4)},
		{"unreachable", createBufferImage(t, image.Rect(0, 0, 5, 5)), geom.XYWH(0, 0, 5, 5), geom.Null()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.node.RegionOfInterest(src, tt.r); !got.NearlyEqual(tt.want, 1e-9) {
				t.Errorf("RegionOfInterest() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRegionOfInterestUnionsSharedPaths(t *testing.T) {
	src := createBufferImage(t, image.Rect(0, 0, 100, 100))
	left := src.Cropping(geom.XYWH(0, 0, 10, 10))
	right := src.Cropping(geom.XYWH(50, 50, 10, 10)).Applying(geom.Translate(-40, -40))
	top := left.CompositingOver(right)

	got := top.RegionOfInterest(src, geom.XYWH(0, 0, 20, 20))
	want := geom.XYWH(0, 0, 60, 60)
	if !got.Equal(want) {
		t.Errorf("RegionOfInterest() = %v, want %v", got, want)
	}
}

func TestPlanClipsToExtent(t *testing.T) {
	src := createBufferImage(t, image.Rect(0, 0, 100, 100))
	node := src.ApplyingGaussianBlur(1).Applying(geom.Identity())

	p := NewPlan(node, geom.XYWH(-10, -10, 210, 210))
	if r, _ := p.Region(src); !r.Equal(geom.XYWH(0, 0, 100, 100)) {
		t.Errorf("source region = %v", r)
	}
	if got := node.InputROI(0, geom.XYWH(-10, -10, 210, 210)); !got.Equal(geom.XYWH(-3, -3, 106, 106)) {
		t.Errorf("InputROI() = %v", got)
	}
}

func TestPlanOrder(t *testing.T) {
	src := NewFromColor(color.Red)
	a := src.Cropping(geom.XYWH(0, 0, 4, 4))
	b := src.Cropping(geom.XYWH(2, 2, 4, 4))
	top := a.CompositingOver(b)

	p := NewPlan(top, top.Extent())
	pos := make(map[*Image]int)
	for i, n := range p.Order() {
		pos[n] = i
	}
	if len(pos) != 4 {
		t.Fatalf("plan has %d nodes, want 4", len(pos))
	}
	for _, n := range p.Order() {
		for _, c := range n.Children() {
			if pos[c] <= pos[n] {
				t.Errorf("%v ordered before its parent %v", c, n)
			}
		}
	}

	r, ok := p.Region(src)
	if !ok || !r.Equal(geom.XYWH(0, 0, 6, 6)) {
		t.Errorf("shared source region = %v, %v", r, ok)
	}
	if p.Root() != top {
		t.Error("Root() mismatch")
	}
}
