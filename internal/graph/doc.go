// Package graph implements the immutable image node graph.
//
// An [*Image] is one node of a directed acyclic graph. Every operation such
// as Cropping, Applying or CompositingOver returns a new node that refers to
// its inputs as children; no operation mutates an existing node, so images
// can be shared freely between goroutines and between graphs.
//
// # Node Kinds
//
// A node is a tagged variant: its [Kind] selects which payload fields are
// meaningful. Sources hold pixels, a colour or an external handle. All other
// kinds hold children plus the parameters of one operation. The renderer
// dispatches on Kind with a single switch.
//
// # Extents
//
// Each node computes its extent when it is constructed:
//
//   - Source: the pixel bounds, infinite for a colour, null for Empty
//   - Transform: bounding box of the transformed child extent
//   - Crop: child extent intersected with the crop rectangle
//   - Composite: union of both child extents
//   - Filter: declared by the filter kernel
//   - Blur: child extent grown by ceil(3*sigma)
//   - Clamp: infinite for ClampingToExtent, the given rect for Clamping
//   - SetAlpha: the given rect
//   - ColorMatch, Premultiply, Unpremultiply, Properties: the child extent
//
// # Regions of Interest
//
// [Image.RegionOfInterest] maps a rectangle of a node's output back to the
// rectangle of an ancestor that is needed to compute it, without clipping
// to extents. [Plan] does the same for every node below a root at once,
// clipping each region to the node's extent, and is what the renderer uses
// to decide how many pixels each node must produce.
package graph
