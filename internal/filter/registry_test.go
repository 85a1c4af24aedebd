package filter

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ironsheep/cigraph/internal/color"
	"github.com/ironsheep/cigraph/internal/geom"
	"github.com/ironsheep/cigraph/internal/graph"
	"github.com/ironsheep/cigraph/internal/imgerr"
	"github.com/ironsheep/cigraph/internal/pixel"
)

// identityCtor builds a pass-through filter node.
func identityCtor(req Request) (*graph.Image, error) {
	return req.Node(PointKernel{Fn: func(p pixel.Pixel) pixel.Pixel { return p }}), nil
}

func testDescriptor(cats ...string) Descriptor {
	return Descriptor{
		Categories: cats,
		Inputs:     []string{InputImage},
		Params: []Param{
			{Key: "inputAmount", Type: TypeScalar, Default: 0.5, Range: Bounded(0, 1)},
			{Key: "inputStrict", Type: TypeScalar, Default: 1.0, Range: Bounded(0, 2), Policy: PolicyReject},
			{Key: "inputCount", Type: TypeCount, Default: 3},
			{Key: "inputCenter", Type: TypePosition, Default: geom.Pt(1, 2)},
			{Key: "inputColor", Type: TypeOpaqueColor, Default: color.Red},
			{Key: "inputWeights", Type: TypeVector, Default: []float64{1, 2, 3}, Length: 3},
		},
	}
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	for _, name := range []string{"CIBeta", "CIAlpha", "CIGamma"} {
		cats := []string{CategoryColorEffect}
		if name != "CIGamma" {
			cats = append(cats, CategoryStillImage)
		}
		if err := r.Register(name, testDescriptor(cats...), identityCtor); err != nil {
			t.Fatalf("Register(%s) error: %v", name, err)
		}
	}
	return r
}

func sourceImage(t *testing.T) *graph.Image {
	t.Helper()
	return graph.NewFromImage(image.NewNRGBA(image.Rect(0, 0, 4, 4)))
}

func TestRegisterDuplicate(t *testing.T) {
	r := newTestRegistry(t)
	err := r.Register("CIAlpha", testDescriptor(), identityCtor)
	if !errors.Is(err, imgerr.ErrDuplicateFilterName) {
		t.Errorf("expected ErrDuplicateFilterName, got %v", err)
	}
}

func TestRegisterValidatesDescriptor(t *testing.T) {
	tests := []struct {
		name string
		desc Descriptor
	}{
		{"unknown type", Descriptor{Params: []Param{{Key: "a", Type: Type(99), Default: 1.0}}}},
		{"missing default", Descriptor{Params: []Param{{Key: "a", Type: TypeScalar}}}},
		{"default outside range", Descriptor{Params: []Param{{Key: "a", Type: TypeScalar, Default: 5.0, Range: Bounded(0, 1), Policy: PolicyReject}}}},
		{"default wrong type", Descriptor{Params: []Param{{Key: "a", Type: TypeBoolean, Default: 1.0}}}},
		{"repeated key", Descriptor{Inputs: []string{"a"}, Params: []Param{{Key: "a", Type: TypeScalar, Default: 1.0}}}},
		{"range on color", Descriptor{Params: []Param{{Key: "a", Type: TypeColor, Default: color.Red, Range: Bounded(0, 1)}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewRegistry().Register("CIBad", tt.desc, identityCtor)
			if !errors.Is(err, imgerr.ErrInvalidParameter) {
				t.Errorf("expected ErrInvalidParameter, got %v", err)
			}
		})
	}

	if err := NewRegistry().Register("CINil", Descriptor{}, nil); err == nil {
		t.Error("expected error for nil constructor")
	}
}

func TestLookup(t *testing.T) {
	r := newTestRegistry(t)
	d, ok := r.Lookup("CIAlpha")
	if !ok {
		t.Fatal("Lookup(CIAlpha) failed")
	}
	if d.Name != "CIAlpha" || d.DisplayName != "CIAlpha" || len(d.Params) != 6 {
		t.Errorf("descriptor = %+v", d)
	}
	d.Params[0].Key = "mutated"
	again, _ := r.Lookup("CIAlpha")
	if again.Params[0].Key != "inputAmount" {
		t.Error("Lookup exposed the registered schema")
	}
	if _, ok := r.Lookup("CIMissing"); ok {
		t.Error("Lookup found an unregistered filter")
	}
}

func TestNames(t *testing.T) {
	r := newTestRegistry(t)

	tests := []struct {
		name string
		got  []string
		want []string
	}{
		{"all", r.Names(""), []string{"CIAlpha", "CIBeta", "CIGamma"}},
		{"category", r.Names(CategoryStillImage), []string{"CIAlpha", "CIBeta"}},
		{"both categories", r.NamesInCategories([]string{CategoryColorEffect, CategoryStillImage}), []string{"CIAlpha", "CIBeta"}},
		{"no categories", r.NamesInCategories(nil), []string{"CIAlpha", "CIBeta", "CIGamma"}},
		{"unmatched", r.Names(CategoryBlur), []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, tt.got); diff != "" {
				t.Errorf("names mismatch (-want +got):\n%s", diff)
			}
		})
	}

	if len(Default().Names("")) != 0 {
		t.Error("default registry should start empty")
	}
}

func TestApplyValidation(t *testing.T) {
	r := newTestRegistry(t)
	src := sourceImage(t)

	tests := []struct {
		name    string
		filter  string
		inputs  []*graph.Image
		params  map[string]any
		wantErr error
	}{
		{"unknown filter", "CIMissing", []*graph.Image{src}, nil, imgerr.ErrUnknownFilter},
		{"unknown key", "CIAlpha", []*graph.Image{src}, map[string]any{"inputBogus": 1.0}, imgerr.ErrInvalidParameter},
		{"type mismatch", "CIAlpha", []*graph.Image{src}, map[string]any{"inputAmount": "lots"}, imgerr.ErrInvalidParameter},
		{"rejected range", "CIAlpha", []*graph.Image{src}, map[string]any{"inputStrict": 3.0}, imgerr.ErrInvalidParameter},
		{"fractional count", "CIAlpha", []*graph.Image{src}, map[string]any{"inputCount": 1.5}, imgerr.ErrInvalidParameter},
		{"vector length", "CIAlpha", []*graph.Image{src}, map[string]any{"inputWeights": []float64{1}}, imgerr.ErrInvalidParameter},
		{"too few inputs", "CIAlpha", nil, nil, imgerr.ErrInvalidParameter},
		{"too many inputs", "CIAlpha", []*graph.Image{src, src}, nil, imgerr.ErrInvalidParameter},
		{"nil input", "CIAlpha", []*graph.Image{nil}, nil, imgerr.ErrInvalidParameter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Apply(tt.filter, tt.inputs, tt.params)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestApplyResolvesValues(t *testing.T) {
	r := newTestRegistry(t)
	img, err := r.Apply("CIAlpha", []*graph.Image{sourceImage(t)}, map[string]any{
		"inputAmount": 7,                  // clamped to 1
		"inputCount":  -4.0,               // clamped to 0
		"inputCenter": []any{3.0, 4.0},    // decoded from JSON form
		"inputColor":  "0 0 1 0.5",        // alpha forced to 1
		"inputStrict": 2,                  // inside range
	})
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if img.Kind() != graph.KindFilter {
		t.Fatalf("Kind() = %v", img.Kind())
	}

	got := Values(img.Filter().Params)
	if got.Float("inputAmount") != 1 {
		t.Errorf("inputAmount = %v", got["inputAmount"])
	}
	if got.Int("inputCount") != 0 {
		t.Errorf("inputCount = %v", got["inputCount"])
	}
	if got.Point("inputCenter") != geom.Pt(3, 4) {
		t.Errorf("inputCenter = %v", got["inputCenter"])
	}
	if c := got.Color("inputColor"); !c.Equal(color.Blue, 0) {
		t.Errorf("inputColor = %v", c)
	}
	if got.Float("inputStrict") != 2 {
		t.Errorf("inputStrict = %v", got["inputStrict"])
	}
	if diff := cmp.Diff([]float64{1, 2, 3}, got.Vector("inputWeights")); diff != "" {
		t.Errorf("default vector mismatch:\n%s", diff)
	}
	if img.Filter().Name != "CIAlpha" {
		t.Errorf("Name = %q", img.Filter().Name)
	}
}

func TestApplyingFilterThroughImage(t *testing.T) {
	r := newTestRegistry(t)
	out, err := sourceImage(t).ApplyingFilter(r, "CIBeta", nil)
	if err != nil {
		t.Fatalf("ApplyingFilter() error: %v", err)
	}
	if !out.Extent().Equal(geom.XYWH(0, 0, 4, 4)) {
		t.Errorf("Extent() = %v", out.Extent())
	}

	if _, err := sourceImage(t).ApplyingFilter(r, "CINope", nil); !errors.Is(err, imgerr.ErrUnknownFilter) {
		t.Errorf("expected ErrUnknownFilter, got %v", err)
	}
}

func TestConstructorErrorIsWrapped(t *testing.T) {
	r := NewRegistry()
	boom := errors.New("boom")
	err := r.Register("CIFail", Descriptor{Inputs: []string{InputImage}}, func(Request) (*graph.Image, error) {
		return nil, boom
	})
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	if _, err := r.Apply("CIFail", []*graph.Image{sourceImage(t)}, nil); !errors.Is(err, boom) {
		t.Errorf("expected constructor error, got %v", err)
	}
}

func TestRegistryConcurrency(t *testing.T) {
	r := NewRegistry()
	src := sourceImage(t)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("CIFilter%02d", i)
			if err := r.Register(name, testDescriptor(CategoryBuiltIn), identityCtor); err != nil {
				t.Errorf("Register(%s) error: %v", name, err)
			}
		}(i)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				names := r.Names(CategoryBuiltIn)
				for _, n := range names {
					if _, ok := r.Lookup(n); !ok {
						t.Errorf("listed filter %s not found", n)
					}
					if _, err := r.Apply(n, []*graph.Image{src}, nil); err != nil {
						t.Errorf("Apply(%s) error: %v", n, err)
					}
				}
			}
		}(i)
	}
	wg.Wait()

	if got := len(r.Names("")); got != 16 {
		t.Errorf("registered %d filters, want 16", got)
	}
}

func TestResolveHugeInteger(t *testing.T) {
	r := NewRegistry()
	desc := Descriptor{
		Inputs: []string{InputImage},
		Params: []Param{{Key: "inputLevels", Type: TypeInteger, Default: 10, Range: Bounded(1, 100)}},
	}
	if err := r.Register("CIPosterize", desc, identityCtor); err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	v, err := r.Resolve("CIPosterize", map[string]any{"inputLevels": 1e300})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if got := v.Int("inputLevels"); got != 100 {
		t.Errorf("inputLevels = %d, want 100", got)
	}
}

func TestResolve(t *testing.T) {
	r := newTestRegistry(t)
	v, err := r.Resolve("CIGamma", map[string]any{"inputAmount": 0.25})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if v.Float("inputAmount") != 0.25 || v.Int("inputCount") != 3 {
		t.Errorf("Resolve() = %v", v)
	}
	if _, err := r.Resolve("CIMissing", nil); !errors.Is(err, imgerr.ErrUnknownFilter) {
		t.Errorf("expected ErrUnknownFilter, got %v", err)
	}
}
