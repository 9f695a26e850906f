package detect

import (
	"fmt"
	"image"
	"os"

	"gocv.io/x/gocv"

	"emotionserver/internal/config"
	"emotionserver/internal/logger"
)

// CascadeDetector generates raw face candidates with a Haar cascade.
// Loaded once at startup and shared read-only between requests; the
// detector output is noisy and over-inclusive by design, the candidate
// filter downstream is responsible for cleaning it up.
type CascadeDetector struct {
	classifier   gocv.CascadeClassifier
	scaleFactor  float64
	minNeighbors int
	minSize      int
	maxSize      int
	loaded       bool
	logger       *logger.Logger
}

// NewCascadeDetector loads the Haar cascade from cfg.CascadePath.
func NewCascadeDetector(cfg *config.Config, logger *logger.Logger) (*CascadeDetector, error) {
	if _, err := os.Stat(cfg.CascadePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("cascade file not found: %s", cfg.CascadePath)
	}

	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(cfg.CascadePath) {
		classifier.Close()
		return nil, fmt.Errorf("failed to load cascade from %s", cfg.CascadePath)
	}

	logger.Info("Haar cascade loaded from %s (scaleFactor=%.2f, minNeighbors=%d)",
		cfg.CascadePath, cfg.ScaleFactor, cfg.MinNeighbors)

	return &CascadeDetector{
		classifier:   classifier,
		scaleFactor:  cfg.ScaleFactor,
		minNeighbors: cfg.MinNeighbors,
		minSize:      cfg.MinFaceSize,
		maxSize:      cfg.MaxFaceSize,
		loaded:       true,
		logger:       logger,
	}, nil
}

// Detect runs the cascade over a single-channel frame and returns raw
// candidate rectangles. No ordering or non-overlap is guaranteed.
func (d *CascadeDetector) Detect(gray gocv.Mat) ([]image.Rectangle, error) {
	if !d.loaded {
		return nil, fmt.Errorf("cascade detector not initialized")
	}
	if gray.Empty() {
		return nil, fmt.Errorf("input frame is empty")
	}

	rects := d.classifier.DetectMultiScaleWithParams(
		gray,
		d.scaleFactor,
		d.minNeighbors,
		0,
		image.Pt(d.minSize, d.minSize),
		image.Pt(d.maxSize, d.maxSize),
	)

	return rects, nil
}

// Ready reports whether the cascade is loaded.
func (d *CascadeDetector) Ready() bool {
	return d.loaded
}

// Close releases the cascade resources.
func (d *CascadeDetector) Close() {
	if d.loaded {
		d.classifier.Close()
		d.loaded = false
	}
}
