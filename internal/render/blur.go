package render

import (
	"context"
	"image"
	"math"

	"github.com/ironsheep/cigraph/internal/graph"
	"github.com/ironsheep/cigraph/internal/pixel"
)

// gaussianBlur blurs src with standard deviation sigma and returns the
// region r. Two one-dimensional passes run over float samples; pixels
// outside src read as transparent.
func gaussianBlur(ctx context.Context, src *pixel.Buffer, r image.Rectangle, sigma float64) (*pixel.Buffer, error) {
	if !(sigma > 0) {
		return src.Crop(r), nil
	}
	kernel := gaussianKernel(sigma)
	half := len(kernel) / 2

	// The horizontal pass only stores rows the vertical pass can read that
	// hold samples of src; every other row is transparent.
	rows := image.Rectangle{
		Min: image.Pt(r.Min.X, max(r.Min.Y-half, src.Rect.Min.Y)),
		Max: image.Pt(r.Max.X, min(r.Max.Y+half, src.Rect.Max.Y)),
	}
	if rows.Empty() || src.Rect.Empty() {
		return pixel.New(r), nil
	}
	temp := pixel.New(rows)
	err := temp.RowsContext(ctx, func(y int, row []float32) {
		for i := 0; i < len(row); i += 4 {
			x := rows.Min.X + i/4
			lo, hi := tapRange(x, half, len(kernel), src.Rect.Min.X, src.Rect.Max.X)
			var acc [4]float32
			for k := lo; k < hi; k++ {
				w := kernel[k]
				p := src.Pixel(x+k-half, y)
				acc[0] += p[0] * w
				acc[1] += p[1] * w
				acc[2] += p[2] * w
				acc[3] += p[3] * w
			}
			copy(row[i:i+4], acc[:])
		}
	})
	if err != nil {
		return nil, err
	}

	dst := pixel.New(r)
	err = dst.RowsContext(ctx, func(y int, row []float32) {
		lo, hi := tapRange(y, half, len(kernel), rows.Min.Y, rows.Max.Y)
		for i := 0; i < len(row); i += 4 {
			x := r.Min.X + i/4
			var acc [4]float32
			for k := lo; k < hi; k++ {
				w := kernel[k]
				p := temp.Pixel(x, y+k-half)
				acc[0] += p[0] * w
				acc[1] += p[1] * w
				acc[2] += p[2] * w
				acc[3] += p[3] * w
			}
			copy(row[i:i+4], acc[:])
		}
	})
	if err != nil {
		return nil, err
	}
	return dst, nil
}

// tapRange returns the kernel taps [lo, hi) that land inside [min, max)
// when the kernel is centred on v.
func tapRange(v, half, taps, lo, hi int) (int, int) {
	return max(0, lo-v+half), min(taps, hi-v+half)
}

// gaussianKernel returns a normalised kernel of 2*ceil(3*sigma)+1 taps.
func gaussianKernel(sigma float64) []float32 {
	half := int(graph.BlurPadding(sigma))
	k := make([]float32, 2*half+1)
	twoSigmaSq := 2 * sigma * sigma
	weight := func(i int) float64 {
		x := float64(i - half)
		return math.Exp(-(x * x) / twoSigmaSq)
	}
	var sum float64
	for i := range k {
		sum += weight(i)
	}
	for i := range k {
		k[i] = float32(weight(i) / sum)
	}
	return k
}

// blurFootprint is the number of pixel-sized values a blur of sigma holds
// while computing region r from an input region of in: the kernel plus
// the intermediate rows.
func blurFootprint(sigma float64, r, in image.Rectangle) float64 {
	pad := graph.BlurPadding(sigma)
	rows := math.Min(float64(r.Dy())+2*pad, float64(in.Dy()))
	return 2*pad + 1 + float64(r.Dx())*math.Max(rows, 0)
}
