// Package geom provides the geometry used by the image graph: rectangles
// that may be infinite or null, 2D affine matrices, and the TIFF orientation
// transforms.
//
// # Coordinate System
//
// The origin is at the top-left, X increases rightward and Y increases
// downward, the same convention as the standard image package. A pixel at
// integer coordinates (i, j) covers the half-open square [i, i+1) x [j, j+1).
//
// # Infinite and Null Rectangles
//
// An image produced by a generator or by clamping has no bound; its extent
// is [Infinite]. A rectangle with no area is null; [Null] is the canonical
// null value returned by intersections that do not overlap. Union treats a
// null operand as the identity, and any operation involving an infinite
// rectangle stays infinite where that is the geometric answer.
package geom
