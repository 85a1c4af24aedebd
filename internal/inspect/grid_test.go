package inspect

import (
	"image"
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestGridLines(t *testing.T) {
	tests := []struct {
		name          string
		lo, hi, space int
		want          []int
	}{
		{"from origin", 0, 25, 10, []int{0, 10, 20}},
		{"offset", 5, 31, 10, []int{10, 20, 30}},
		{"negative", -15, 5, 10, []int{-10, 0}},
		{"none", 1, 9, 10, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, gridLines(tt.lo, tt.hi, tt.space)); diff != "" {
				t.Errorf("gridLines() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGridOverlay(t *testing.T) {
	src := image.NewNRGBA(image.Rect(-4, -4, 12, 12))
	lineColor := color.NRGBA{G: 255, A: 255}

	out, err := GridOverlay(src, 8, false, lineColor)
	if err != nil {
		t.Fatalf("GridOverlay() error: %v", err)
	}
	if out.Bounds() != src.Bounds() {
		t.Fatalf("bounds = %v, want %v", out.Bounds(), src.Bounds())
	}

	tests := []struct {
		x, y int
		want color.NRGBA
	}{
		{0, 5, lineColor},
		{8, -3, lineColor},
		{3, 0, lineColor},
		{3, 3, color.NRGBA{}},
		{-4, -4, color.NRGBA{}},
	}
	for _, tt := range tests {
		if got := out.NRGBAAt(tt.x, tt.y); got != tt.want {
			t.Errorf("pixel (%d,%d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestGridOverlay_Labels(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	out, err := GridOverlay(src, 32, true, nil)
	if err != nil {
		t.Fatalf("GridOverlay() error: %v", err)
	}

	// The label box sits just inside the (32,32) intersection.
	if got := out.NRGBAAt(34, 36); got.A == 0 {
		t.Errorf("label area at (34,36) is transparent")
	}
	if got := out.NRGBAAt(32, 10); got != DefaultGridColor {
		t.Errorf("line pixel = %v, want %v", got, DefaultGridColor)
	}
}

func TestGridOverlay_InvalidSpacing(t *testing.T) {
	if _, err := GridOverlay(image.NewNRGBA(image.Rect(0, 0, 4, 4)), 0, false, nil); err == nil {
		t.Error("GridOverlay() accepted spacing 0")
	}
}
