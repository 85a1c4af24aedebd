package geom

// Orientation is a TIFF/EXIF orientation tag value. The value names the
// transform that must be applied to stored pixels to display them upright.
type Orientation int

// TIFF orientation values.
const (
	OrientationUp            Orientation = 1 // stored upright
	OrientationUpMirrored    Orientation = 2 // flipped horizontally
	OrientationDown          Orientation = 3 // rotated 180
	OrientationDownMirrored  Orientation = 4 // flipped vertically
	OrientationLeftMirrored  Orientation = 5 // transposed
	OrientationRight         Orientation = 6 // needs 90 clockwise
	OrientationRightMirrored Orientation = 7 // transversed
	OrientationLeft          Orientation = 8 // needs 90 counter-clockwise
)

// Valid reports whether o is one of the eight TIFF values.
func (o Orientation) Valid() bool {
	return o >= OrientationUp && o <= OrientationLeft
}

// OrientationTransform returns the affine transform that displays an image
// with the given extent upright. The image is first moved to the origin so
// the result always starts at (0, 0). The second result is false for values
// outside 1..8 and for extents that are null or infinite.
func OrientationTransform(o Orientation, extent Rect) (Affine, bool) {
	if !o.Valid() || extent.IsNull() || extent.IsInfinite() {
		return Identity(), false
	}
	w, h := extent.Dx(), extent.Dy()
	var m Affine
	switch o {
	case OrientationUp:
		m = Identity()
	case OrientationUpMirrored:
		m = Affine{A: -1, C: w, E: 1}
	case OrientationDown:
		m = Affine{A: -1, C: w, E: -1, F: h}
	case OrientationDownMirrored:
		m = Affine{A: 1, E: -1, F: h}
	case OrientationLeftMirrored:
		m = Affine{B: 1, D: 1}
	case OrientationRight:
		m = Affine{B: -1, C: h, D: 1}
	case OrientationRightMirrored:
		m = Affine{B: -1, C: h, D: -1, F: w}
	case OrientationLeft:
		m = Affine{B: 1, D: -1, F: w}
	}
	return m.Multiply(Translate(-extent.Min.X, -extent.Min.Y)), true
}
