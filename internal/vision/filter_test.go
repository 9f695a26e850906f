package vision

import (
	"image"
	"reflect"
	"testing"
)

func rect(x, y, w, h int) image.Rectangle {
	return image.Rect(x, y, x+w, y+h)
}

// texturedVariance treats every region as textured.
func texturedVariance(image.Rectangle) float64 { return 500 }

// ========================================
// IoU Tests
// ========================================

func TestIoU(t *testing.T) {
	tests := []struct {
		name     string
		a, b     image.Rectangle
		expected float64
	}{
		{"identical", rect(0, 0, 10, 10), rect(0, 0, 10, 10), 1.0},
		{"disjoint", rect(0, 0, 10, 10), rect(20, 20, 10, 10), 0.0},
		{"touching edges", rect(0, 0, 10, 10), rect(10, 0, 10, 10), 0.0},
		{"half overlap", rect(0, 0, 10, 10), rect(5, 0, 10, 10), 50.0 / 150.0},
		{"contained quarter", rect(0, 0, 20, 20), rect(0, 0, 10, 10), 0.25},
		{"degenerate", rect(5, 5, 0, 0), rect(0, 0, 10, 10), 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IoU(tt.a, tt.b)
			if diff := got - tt.expected; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("IoU = %v, expected %v", got, tt.expected)
			}
			if sym := IoU(tt.b, tt.a); sym != got {
				t.Errorf("IoU not symmetric: %v vs %v", got, sym)
			}
		})
	}
}

// ========================================
// Stage Filter Tests
// ========================================

func TestFilterCandidates_SizeBounds(t *testing.T) {
	cfg := DefaultFilterConfig()
	rects := []image.Rectangle{
		rect(0, 0, 20, 20),   // below minimum
		rect(0, 0, 350, 350), // above maximum
		rect(100, 100, 50, 50),
	}

	got := FilterCandidates(rects, 1000, 1000, texturedVariance, cfg)
	if len(got) != 1 || got[0].Rect != rect(100, 100, 50, 50) {
		t.Errorf("expected only the in-range candidate, got %v", got)
	}
}

func TestFilterCandidates_AspectRatio(t *testing.T) {
	cfg := DefaultFilterConfig()
	rects := []image.Rectangle{
		rect(0, 0, 100, 40),    // too wide
		rect(200, 0, 40, 100),  // too tall
		rect(400, 0, 50, 60),   // 0.83, plausible
		rect(400, 200, 60, 50), // 1.2, plausible
	}

	got := FilterCandidates(rects, 1000, 1000, texturedVariance, cfg)
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %v", got)
	}
}

func TestFilterCandidates_FrameBounds(t *testing.T) {
	cfg := DefaultFilterConfig()
	rects := []image.Rectangle{
		rect(-5, 10, 50, 50),
		rect(10, -5, 50, 50),
		rect(80, 10, 50, 50), // extends past frame width 100
		rect(10, 10, 50, 50),
	}

	got := FilterCandidates(rects, 100, 100, texturedVariance, cfg)
	if len(got) != 1 || got[0].Rect != rect(10, 10, 50, 50) {
		t.Errorf("expected only the in-frame candidate, got %v", got)
	}
}

func TestFilterCandidates_Variance(t *testing.T) {
	cfg := DefaultFilterConfig()
	flat := rect(0, 0, 50, 50)
	textured := rect(100, 100, 50, 50)

	variance := func(r image.Rectangle) float64 {
		if r == flat {
			return 10
		}
		return 500
	}

	got := FilterCandidates([]image.Rectangle{flat, textured}, 1000, 1000, variance, cfg)
	if len(got) != 1 || got[0].Rect != textured {
		t.Errorf("expected flat region rejected, got %v", got)
	}
}

func TestFilterCandidates_DuplicateCenters(t *testing.T) {
	cfg := DefaultFilterConfig()
	rects := []image.Rectangle{
		rect(100, 100, 60, 60),
		rect(110, 110, 60, 60), // center within half-extents of the first
		rect(300, 300, 60, 60),
	}

	got := FilterCandidates(rects, 1000, 1000, texturedVariance, cfg)
	if len(got) != 2 {
		t.Errorf("expected duplicate-center candidate dropped, got %v", got)
	}
}

// ========================================
// Non-Max Suppression Tests
// ========================================

func TestNonMaxSuppression_OverlapInvariant(t *testing.T) {
	cands := []Candidate{
		NewCandidate(rect(0, 0, 100, 100)),
		NewCandidate(rect(10, 10, 90, 90)),
		NewCandidate(rect(500, 500, 80, 80)),
		NewCandidate(rect(490, 490, 100, 100)),
	}

	got := NonMaxSuppression(cands, 0.3)
	for i := 0; i < len(got); i++ {
		for j := i + 1; j < len(got); j++ {
			if iou := IoU(got[i].Rect, got[j].Rect); iou > 0.3 {
				t.Errorf("survivors %v and %v overlap with IoU %.2f", got[i].Rect, got[j].Rect, iou)
			}
		}
	}
}

func TestNonMaxSuppression_LargestFirst(t *testing.T) {
	small := NewCandidate(rect(10, 10, 50, 50))
	large := NewCandidate(rect(0, 0, 100, 100))

	got := NonMaxSuppression([]Candidate{small, large}, 0.2)
	if len(got) != 1 || got[0] != large {
		t.Errorf("expected the larger candidate to win, got %v", got)
	}
}

func TestNonMaxSuppression_Idempotent(t *testing.T) {
	cands := []Candidate{
		NewCandidate(rect(0, 0, 100, 100)),
		NewCandidate(rect(300, 0, 80, 80)),
		NewCandidate(rect(0, 300, 60, 60)),
	}

	once := NonMaxSuppression(cands, 0.3)
	twice := NonMaxSuppression(once, 0.3)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("suppression not idempotent: %v vs %v", once, twice)
	}
}

func TestNonMaxSuppression_Empty(t *testing.T) {
	if got := NonMaxSuppression(nil, 0.3); len(got) != 0 {
		t.Errorf("expected empty result, got %v", got)
	}
}

func TestFilterCandidates_CapKeepsLargest(t *testing.T) {
	cfg := DefaultFilterConfig()
	rects := []image.Rectangle{
		rect(0, 0, 40, 40),
		rect(200, 0, 60, 60),
		rect(0, 200, 80, 80),
		rect(200, 200, 100, 100),
		rect(400, 400, 50, 50),
	}

	got := FilterCandidates(rects, 1000, 1000, texturedVariance, cfg)
	if len(got) != cfg.MaxFaces {
		t.Fatalf("expected cap at %d, got %d", cfg.MaxFaces, len(got))
	}
	// NMS orders by descending area, so the cap keeps the largest.
	if got[0].Rect != rect(200, 200, 100, 100) {
		t.Errorf("expected largest candidate first, got %v", got[0].Rect)
	}
}

func TestFilterCandidates_Deterministic(t *testing.T) {
	cfg := DefaultFilterConfig()
	rects := []image.Rectangle{
		rect(0, 0, 100, 100),
		rect(10, 10, 90, 90),
		rect(300, 300, 60, 60),
		rect(500, 100, 45, 50),
	}

	first := FilterCandidates(rects, 1000, 1000, texturedVariance, cfg)
	for i := 0; i < 10; i++ {
		again := FilterCandidates(rects, 1000, 1000, texturedVariance, cfg)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs: %v vs %v", i, first, again)
		}
	}
}

// ========================================
// Synthetic Frame Scenario
// ========================================

// syntheticVariance mimics a 100x100 frame with a textured patch at
// (20,20)-(60,60) and flat background elsewhere.
func syntheticVariance(r image.Rectangle) float64 {
	patch := image.Rect(20, 20, 60, 60)
	inter := r.Intersect(patch)
	if inter.Empty() {
		return 0
	}
	// Variance proportional to the textured share of the region.
	share := float64(inter.Dx()*inter.Dy()) / float64(r.Dx()*r.Dy())
	return share * 4000
}

func TestFilterCandidates_SyntheticFrame(t *testing.T) {
	cfg := DefaultFilterConfig()

	// Raw detections: two near-duplicates over the patch and one huge
	// frame-sized rectangle.
	rects := []image.Rectangle{
		rect(18, 18, 44, 44),
		rect(20, 20, 40, 40),
		rect(0, 0, 99, 99),
	}

	got := FilterCandidates(rects, 100, 100, syntheticVariance, cfg)
	if len(got) != 1 {
		t.Fatalf("expected exactly one surviving candidate, got %v", got)
	}

	c := got[0]
	cx := c.Rect.Min.X + c.Rect.Dx()/2
	cy := c.Rect.Min.Y + c.Rect.Dy()/2
	if abs(cx-40) > 5 || abs(cy-40) > 5 {
		t.Errorf("survivor center (%d,%d) not near patch center (40,40)", cx, cy)
	}
}
