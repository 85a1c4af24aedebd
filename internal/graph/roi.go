package graph

import (
	"math"

	"github.com/ironsheep/cigraph/internal/geom"
)

// InputROI returns the region of child i needed to produce r of img's
// output. Only the part of r inside img's extent is considered, and the
// result is clipped to the child's extent.
func (img *Image) InputROI(i int, r geom.Rect) geom.Rect {
	return img.inputROI(i, r.Intersect(img.extent), true)
}

// inputROI maps r back through img to child i. Without clip the mapping is
// purely geometric: only crop and clamp rectangles bound the result.
func (img *Image) inputROI(i int, r geom.Rect, clip bool) geom.Rect {
	if r.IsNull() || i < 0 || i >= len(img.children) {
		return geom.Null()
	}
	child := img.children[i]
	within := func(roi geom.Rect) geom.Rect {
		if !clip {
			return roi
		}
		return roi.Intersect(child.extent)
	}

	switch img.kind {
	case KindTransform:
		inv, ok := img.matrix.Invert()
		if !ok {
			return geom.Null()
		}
		roi := inv.ApplyRect(r)
		if !img.matrix.IsIntegerTranslation() {
			// bilinear sampling reads one neighbour beyond the mapped area
			roi = roi.Outset(1, 1)
		}
		return within(roi)
	case KindCrop:
		return r.Intersect(img.rect)
	case KindComposite, KindSetAlpha:
		return within(r)
	case KindBlur:
		pad := BlurPadding(img.sigma)
		return within(r.Outset(pad, pad))
	case KindFilter:
		return img.filter.Kernel.ROI(i, r)
	case KindClamp:
		return project(r, img.rect)
	}
	return r
}

// project returns the part of c that clamping the points of r into c can
// reach: r itself where it overlaps c, otherwise the nearest edge row or
// column of c.
func project(r, c geom.Rect) geom.Rect {
	if c.IsNull() {
		return geom.Null()
	}
	clamp := func(v, lo, hi float64) float64 {
		return math.Max(lo, math.Min(hi, v))
	}
	return geom.Rect{
		Min: geom.Pt(clamp(r.Min.X, c.Min.X, c.Max.X-1), clamp(r.Min.Y, c.Min.Y, c.Max.Y-1)),
		Max: geom.Pt(clamp(r.Max.X, c.Min.X+1, c.Max.X), clamp(r.Max.Y, c.Min.Y+1, c.Max.Y)),
	}
}

// Plan holds the region every node below a root must produce to render one
// rectangle of the root.
type Plan struct {
	root    *Image
	order   []*Image
	regions map[*Image]geom.Rect
}

// NewPlan walks the graph below root top-down. A node reachable along
// several paths is asked for the union of the regions each path needs.
// Regions are clipped to extents on the way down.
func NewPlan(root *Image, r geom.Rect) *Plan {
	return newPlan(root, r, true)
}

func newPlan(root *Image, r geom.Rect, clip bool) *Plan {
	p := &Plan{
		root:    root,
		regions: make(map[*Image]geom.Rect),
	}
	p.order = topoOrder(root)
	p.regions[root] = r
	for _, n := range p.order {
		need, ok := p.regions[n]
		if !ok {
			continue
		}
		for i, c := range n.children {
			in := need
			if clip {
				in = need.Intersect(n.extent)
			}
			roi := n.inputROI(i, in, clip)
			if prev, ok := p.regions[c]; ok {
				roi = prev.Union(roi)
			}
			p.regions[c] = roi
		}
	}
	return p
}

// Root returns the node the plan was made for.
func (p *Plan) Root() *Image { return p.root }

// Order returns every node reachable from the root, each after all of its
// parents.
func (p *Plan) Order() []*Image { return p.order }

// Region returns the region requested from n. The second result is false
// when n is not below the root.
func (p *Plan) Region(n *Image) (geom.Rect, bool) {
	r, ok := p.regions[n]
	return r, ok
}

// topoOrder lists the nodes below root with parents before children.
func topoOrder(root *Image) []*Image {
	seen := make(map[*Image]bool)
	var post []*Image
	var visit func(n *Image)
	visit = func(n *Image) {
		if seen[n] {
			return
		}
		seen[n] = true
		for _, c := range n.children {
			visit(c)
		}
		post = append(post, n)
	}
	visit(root)

	for i, j := 0, len(post)-1; i < j; i, j = i+1, j-1 {
		post[i], post[j] = post[j], post[i]
	}
	return post
}

// RegionOfInterest returns the region of ancestor needed to produce r of
// img. Several paths to ancestor contribute the union of their regions. The
// result is null when ancestor is not below img.
//
// Rectangles are mapped through each node without being clipped to
// extents, so the result may reach past ancestor's extent. Crop and clamp
// nodes still bound it to their rectangles.
func (img *Image) RegionOfInterest(ancestor *Image, r geom.Rect) geom.Rect {
	if ancestor == img {
		return r
	}
	roi, ok := newPlan(img, r, false).Region(ancestor)
	if !ok {
		return geom.Null()
	}
	return roi
}
