package vision

import (
	"image"
	"log"
	"sort"
)

// Filter thresholds tuned against the reference face set.
const (
	DefaultMinFaceSize      = 30
	DefaultMaxFaceSize      = 300
	DefaultMinAspectRatio   = 0.6
	DefaultMaxAspectRatio   = 1.4
	DefaultMinVariance      = 100.0
	DefaultOverlapThreshold = 0.3
	DefaultMaxFaces         = 3
)

// FilterConfig holds the false-positive rejection thresholds.
type FilterConfig struct {
	MinFaceSize      int
	MaxFaceSize      int
	MinAspectRatio   float64
	MaxAspectRatio   float64
	MinVariance      float64
	OverlapThreshold float64
	MaxFaces         int
}

// DefaultFilterConfig returns the reference thresholds.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		MinFaceSize:      DefaultMinFaceSize,
		MaxFaceSize:      DefaultMaxFaceSize,
		MinAspectRatio:   DefaultMinAspectRatio,
		MaxAspectRatio:   DefaultMaxAspectRatio,
		MinVariance:      DefaultMinVariance,
		OverlapThreshold: DefaultOverlapThreshold,
		MaxFaces:         DefaultMaxFaces,
	}
}

// FilterCandidates reduces raw detector rectangles to at most
// cfg.MaxFaces plausible, non-overlapping face candidates. Stages run
// in order: size bounds, aspect ratio, frame bounds, texture variance,
// center-distance dedup, non-max suppression, count cap.
func FilterCandidates(rects []image.Rectangle, frameW, frameH int, variance RegionVariance, cfg FilterConfig) []Candidate {
	kept := make([]Candidate, 0, len(rects))

	for _, r := range rects {
		w, h := r.Dx(), r.Dy()

		if w < cfg.MinFaceSize || h < cfg.MinFaceSize || w > cfg.MaxFaceSize || h > cfg.MaxFaceSize {
			log.Printf("[FILTER] Dropped %v: size %dx%d out of range", r, w, h)
			continue
		}

		aspect := float64(w) / float64(h)
		if aspect < cfg.MinAspectRatio || aspect > cfg.MaxAspectRatio {
			log.Printf("[FILTER] Dropped %v: aspect ratio %.2f", r, aspect)
			continue
		}

		if r.Min.X < 0 || r.Min.Y < 0 || r.Max.X > frameW || r.Max.Y > frameH {
			log.Printf("[FILTER] Dropped %v: outside %dx%d frame", r, frameW, frameH)
			continue
		}

		if variance != nil {
			if v := variance(r); v < cfg.MinVariance {
				log.Printf("[FILTER] Dropped %v: flat region (variance %.1f)", r, v)
				continue
			}
		}

		kept = append(kept, NewCandidate(r))
	}

	kept = dedupeByCenter(kept)
	kept = NonMaxSuppression(kept, cfg.OverlapThreshold)

	if cfg.MaxFaces > 0 && len(kept) > cfg.MaxFaces {
		log.Printf("[FILTER] Capping %d candidates to %d", len(kept), cfg.MaxFaces)
		kept = kept[:cfg.MaxFaces]
	}

	return kept
}

// dedupeByCenter drops a candidate whose center falls within half the
// width and height of an already kept one. A coarse pre-pass before
// the IoU suppression.
func dedupeByCenter(cands []Candidate) []Candidate {
	kept := make([]Candidate, 0, len(cands))

	for _, c := range cands {
		cx := c.Rect.Min.X + c.Rect.Dx()/2
		cy := c.Rect.Min.Y + c.Rect.Dy()/2

		dup := false
		for _, k := range kept {
			kx := k.Rect.Min.X + k.Rect.Dx()/2
			ky := k.Rect.Min.Y + k.Rect.Dy()/2

			if abs(cx-kx) < k.Rect.Dx()/2 && abs(cy-ky) < k.Rect.Dy()/2 {
				dup = true
				break
			}
		}
		if dup {
			log.Printf("[FILTER] Dropped %v: duplicate center", c.Rect)
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

// NonMaxSuppression keeps the largest candidates first and discards
// any remaining candidate overlapping a kept one above the threshold.
// Output is ordered by descending area; every surviving pair has
// IoU <= threshold.
func NonMaxSuppression(cands []Candidate, threshold float64) []Candidate {
	if len(cands) <= 1 {
		return cands
	}

	remaining := make([]Candidate, len(cands))
	copy(remaining, cands)
	sort.SliceStable(remaining, func(i, j int) bool {
		return remaining[i].Area > remaining[j].Area
	})

	kept := make([]Candidate, 0, len(remaining))
	for len(remaining) > 0 {
		best := remaining[0]
		kept = append(kept, best)

		next := make([]Candidate, 0, len(remaining)-1)
		for _, c := range remaining[1:] {
			if IoU(best.Rect, c.Rect) > threshold {
				log.Printf("[NMS] Suppressed %v (overlaps %v)", c.Rect, best.Rect)
				continue
			}
			next = append(next, c)
		}
		remaining = next
	}
	return kept
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
