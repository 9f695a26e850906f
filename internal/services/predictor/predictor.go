package predictor

import (
	"context"
	"fmt"
	"image"
	"math"
	"time"

	"gocv.io/x/gocv"

	"emotionserver/internal/config"
	"emotionserver/internal/dto"
	"emotionserver/internal/logger"
	"emotionserver/internal/services/classify"
	"emotionserver/internal/services/detect"
	"emotionserver/internal/vision"
)

// Detector produces raw face candidate rectangles from a
// single-channel frame. Implementations must treat the frame as
// read-only; no ordering or non-overlap of the output is guaranteed.
type Detector interface {
	Detect(gray gocv.Mat) ([]image.Rectangle, error)
	Ready() bool
}

// Classifier maps a prepared input blob to a probability vector over
// the emotion classes (entries non-negative, summing to ~1).
type Classifier interface {
	Labels() []string
	Infer(blob gocv.Mat) ([]float32, error)
	Ready() bool
}

// Service drives the full predict pipeline: noise reduction,
// candidate generation, false-positive filtering, and per-candidate
// preprocess/classify with partial-failure tolerance.
type Service struct {
	detector   Detector
	classifier Classifier
	filterCfg  vision.FilterConfig
	inputSize  int
	logger     *logger.Logger

	// Per-candidate preprocessing, replaceable in tests.
	prepare func(frame gocv.Mat, rect image.Rectangle, inputSize int) (gocv.Mat, error)
}

// NewService wires the pipeline from its collaborators.
func NewService(detector Detector, classifier Classifier, cfg *config.Config, logger *logger.Logger) *Service {
	return &Service{
		detector:   detector,
		classifier: classifier,
		filterCfg: vision.FilterConfig{
			MinFaceSize:      cfg.MinFaceSize,
			MaxFaceSize:      cfg.MaxFaceSize,
			MinAspectRatio:   vision.DefaultMinAspectRatio,
			MaxAspectRatio:   vision.DefaultMaxAspectRatio,
			MinVariance:      cfg.MinVariance,
			OverlapThreshold: cfg.OverlapThreshold,
			MaxFaces:         cfg.MaxFaces,
		},
		inputSize: cfg.ModelInputSize,
		logger:    logger,
		prepare:   classify.PrepareFaceInput,
	}
}

// Ready reports whether both shared models are loaded.
func (s *Service) Ready() bool {
	return s.detector != nil && s.classifier != nil && s.detector.Ready() && s.classifier.Ready()
}

// Predict runs the pipeline over one frame and always returns a
// structured response; no fault escapes to the caller. A zero-face
// outcome is a normal successful response. The context deadline is
// checked before each classifier invocation, since classifier latency
// dominates total latency.
func (s *Service) Predict(ctx context.Context, frame gocv.Mat) dto.EmotionResponse {
	start := time.Now()

	if frame.Empty() {
		return s.failure("Empty input frame", start)
	}

	// Plain luminance copy of the original frame. Texture variance is
	// measured here, before any noise reduction touches the pixels.
	var gray gocv.Mat
	if frame.Channels() > 1 {
		gray = gocv.NewMat()
		if err := gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray); err != nil {
			gray.Close()
			return s.failure(fmt.Sprintf("Failed to convert frame: %v", err), start)
		}
	} else {
		gray = frame.Clone()
	}
	defer gray.Close()

	detectStart := time.Now()

	denoised := detect.ReduceNoise(gray)
	defer denoised.Close()

	rects, err := s.detector.Detect(denoised)
	if err != nil {
		return s.failure(fmt.Sprintf("Face detection failed: %v", err), start)
	}

	candidates := vision.FilterCandidates(rects, gray.Cols(), gray.Rows(),
		regionVariance(gray), s.filterCfg)

	detectionMs := msSince(detectStart)

	if len(candidates) == 0 {
		total := msSince(start)
		return dto.EmotionResponse{
			Success:          true,
			FacesDetected:    0,
			Emotions:         []dto.FacePrediction{},
			Message:          "No face detected",
			ProcessingTimeMs: total,
			TimingBreakdownMs: dto.TimingBreakdown{
				FaceDetection: detectionMs,
				Total:         total,
			},
		}
	}

	predictions := make([]dto.FacePrediction, 0, len(candidates))
	var modelMs float64

	for i, cand := range candidates {
		blob, err := s.prepare(frame, cand.Rect, s.inputSize)
		if err != nil {
			// Per-candidate failure: skip and continue, the remaining
			// candidates still get classified.
			s.logger.Warning("Skipping face candidate %d (%v): %v", i+1, cand.Rect, err)
			continue
		}

		if err := ctx.Err(); err != nil {
			blob.Close()
			return s.failure(fmt.Sprintf("Request aborted: %v", err), start)
		}

		inferStart := time.Now()
		probs, err := s.classifier.Infer(blob)
		blob.Close()
		if err != nil {
			// Fatal to the request: an unavailable classifier
			// invalidates the whole response, no partial predictions.
			return s.failure(fmt.Sprintf("Error during prediction: %v", err), start)
		}
		inferMs := msSince(inferStart)
		modelMs += inferMs

		predictions = append(predictions, s.buildPrediction(len(predictions)+1, cand, probs, inferMs))
	}

	total := msSince(start)
	return dto.EmotionResponse{
		Success: true,
		// Count of candidates that survived filtering, independent of
		// per-face prediction success.
		FacesDetected:    len(candidates),
		Emotions:         predictions,
		Message:          fmt.Sprintf("Successfully detected %d face(s)", len(candidates)),
		ProcessingTimeMs: total,
		TimingBreakdownMs: dto.TimingBreakdown{
			FaceDetection:   detectionMs,
			ModelPrediction: modelMs,
			Total:           total,
		},
	}
}

// buildPrediction assembles a FacePrediction from a probability
// vector: argmax class as the label, its probability as confidence,
// full per-class map retained.
func (s *Service) buildPrediction(faceID int, cand vision.Candidate, probs []float32, inferMs float64) dto.FacePrediction {
	labels := s.classifier.Labels()

	n := len(labels)
	if len(probs) < n {
		n = len(probs)
	}

	best := 0
	all := make(map[string]float64, n)
	for j := 0; j < n; j++ {
		all[labels[j]] = float64(probs[j])
		if probs[j] > probs[best] {
			best = j
		}
	}

	return dto.FacePrediction{
		FaceID: faceID,
		BoundingBox: dto.BoundingBox{
			X:      cand.Rect.Min.X,
			Y:      cand.Rect.Min.Y,
			Width:  cand.Rect.Dx(),
			Height: cand.Rect.Dy(),
		},
		Emotion:          labels[best],
		Confidence:       float64(probs[best]),
		PredictionTimeMs: inferMs,
		AllPredictions:   all,
	}
}

func (s *Service) failure(message string, start time.Time) dto.EmotionResponse {
	s.logger.Error("%s", message)

	total := msSince(start)
	return dto.EmotionResponse{
		Success:           false,
		FacesDetected:     0,
		Emotions:          []dto.FacePrediction{},
		Message:           message,
		ProcessingTimeMs:  total,
		TimingBreakdownMs: dto.TimingBreakdown{Total: total},
	}
}

// regionVariance returns a vision.RegionVariance that measures
// pixel-value variance over regions of a single-channel frame.
// Callers only pass rectangles that lie inside the frame.
func regionVariance(gray gocv.Mat) vision.RegionVariance {
	return func(r image.Rectangle) float64 {
		if r.Dx() <= 0 || r.Dy() <= 0 {
			return 0
		}

		region := gray.Region(r)
		defer region.Close()

		_, stddev := region.MeanStdDev()
		return stddev.Val1 * stddev.Val1
	}
}

func msSince(t time.Time) float64 {
	return math.Round(float64(time.Since(t).Microseconds())/10) / 100
}
