package vision

import "image"

// Candidate is a face candidate rectangle with its precomputed area.
type Candidate struct {
	Rect image.Rectangle
	Area int
}

// RegionVariance measures pixel-value variance over a region of the
// frame under inspection. Injected so the filter stays independent of
// any image backend.
type RegionVariance func(r image.Rectangle) float64

// NewCandidate wraps a rectangle as a Candidate.
func NewCandidate(r image.Rectangle) Candidate {
	return Candidate{Rect: r, Area: r.Dx() * r.Dy()}
}

// IoU is the intersection-over-union of two rectangles. Returns 0 for
// disjoint or degenerate inputs.
func IoU(a, b image.Rectangle) float64 {
	inter := a.Intersect(b)
	if inter.Empty() {
		return 0
	}

	interArea := inter.Dx() * inter.Dy()
	union := a.Dx()*a.Dy() + b.Dx()*b.Dy() - interArea
	if union <= 0 {
		return 0
	}
	return float64(interArea) / float64(union)
}
