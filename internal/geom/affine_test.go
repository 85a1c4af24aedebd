package geom

import (
	"math"
	"testing"
)

func TestAffineInvert(t *testing.T) {
	m := Translate(3, -2).Multiply(Rotate(0.3)).Multiply(Scale(2, 0.5))
	inv, ok := m.Invert()
	if !ok {
		t.Fatal("matrix should be invertible")
	}
	p := Pt(7, 11)
	back := inv.Apply(m.Apply(p))
	if math.Abs(back.X-p.X) > 1e-9 || math.Abs(back.Y-p.Y) > 1e-9 {
		t.Errorf("round trip = %v, want %v", back, p)
	}

	if _, ok := Scale(0, 1).Invert(); ok {
		t.Error("singular matrix reported invertible")
	}
}

func TestAffineThenOrder(t *testing.T) {
	m := Scale(2, 2).Then(Translate(10, 0))
	got := m.Apply(Pt(1, 1))
	if got != Pt(12, 2) {
		t.Errorf("Then applied in wrong order: %v", got)
	}
}

func TestAffineApplyRect(t *testing.T) {
	tests := []struct {
		name string
		m    Affine
		r    Rect
		want Rect
	}{
		{"identity", Identity(), XYWH(1, 2, 3, 4), XYWH(1, 2, 3, 4)},
		{"translate", Translate(5, -5), XYWH(0, 0, 10, 10), XYWH(5, -5, 10, 10)},
		{"scale", Scale(2, 3), XYWH(1, 1, 1, 1), XYWH(2, 3, 2, 3)},
		{"rotate 90", Rotate(math.Pi / 2), XYWH(0, 0, 4, 2), XYWH(-2, 0, 2, 4)},
		{"infinite", Rotate(1), Infinite(), Infinite()},
		{"null", Scale(2, 2), Null(), Null()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.m.ApplyRect(tt.r)
			if !got.NearlyEqual(tt.want, 1e-9) {
				t.Errorf("ApplyRect() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAffinePredicates(t *testing.T) {
	if !Identity().IsIdentity() {
		t.Error("Identity() not identity")
	}
	if !Translate(2, 3).IsIntegerTranslation() {
		t.Error("Translate(2,3) should be an integer translation")
	}
	if Translate(0.5, 0).IsIntegerTranslation() {
		t.Error("Translate(0.5,0) is not an integer translation")
	}
	if Scale(2, 2).IsTranslation() {
		t.Error("Scale is not a translation")
	}
	m := Affine{A: 1, B: 2, C: 3, D: 4, E: 5, F: 6}
	if AffineFromArray(m.Array()) != m {
		t.Error("Array round trip failed")
	}
	if a := m.Aff3(); a[2] != 3 || a[3] != 4 {
		t.Errorf("Aff3() = %v", a)
	}
}

func TestOrientationTransform(t *testing.T) {
	extent := XYWH(10, 20, 4, 2)
	tests := []struct {
		o      Orientation
		corner Point // where the stored top-left pixel centre lands
		size   Point
	}{
		{OrientationUp, Pt(0.5, 0.5), Pt(4, 2)},
		{OrientationUpMirrored, Pt(3.5, 0.5), Pt(4, 2)},
		{OrientationDown, Pt(3.5, 1.5), Pt(4, 2)},
		{OrientationDownMirrored, Pt(0.5, 1.5), Pt(4, 2)},
		{OrientationLeftMirrored, Pt(0.5, 0.5), Pt(2, 4)},
		{OrientationRight, Pt(1.5, 0.5), Pt(2, 4)},
		{OrientationRightMirrored, Pt(1.5, 3.5), Pt(2, 4)},
		{OrientationLeft, Pt(0.5, 3.5), Pt(2, 4)},
	}

	for _, tt := range tests {
		m, ok := OrientationTransform(tt.o, extent)
		if !ok {
			t.Fatalf("orientation %d rejected", tt.o)
		}
		got := m.Apply(Pt(10.5, 20.5))
		if math.Abs(got.X-tt.corner.X) > 1e-9 || math.Abs(got.Y-tt.corner.Y) > 1e-9 {
			t.Errorf("orientation %d: top-left maps to %v, want %v", tt.o, got, tt.corner)
		}
		out := m.ApplyRect(extent)
		if !out.NearlyEqual(XYWH(0, 0, tt.size.X, tt.size.Y), 1e-9) {
			t.Errorf("orientation %d: extent = %v", tt.o, out)
		}
	}

	if _, ok := OrientationTransform(9, extent); ok {
		t.Error("orientation 9 accepted")
	}
	if _, ok := OrientationTransform(OrientationUp, Infinite()); ok {
		t.Error("infinite extent accepted")
	}
}
