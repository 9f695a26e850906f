package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"gocv.io/x/gocv"

	"emotionserver/internal/config"
	"emotionserver/internal/dto"
	"emotionserver/internal/logger"
	"emotionserver/internal/repository"
	"emotionserver/internal/services/websocket"
)

// Predictor runs the emotion pipeline over a decoded frame.
type Predictor interface {
	Predict(ctx context.Context, frame gocv.Mat) dto.EmotionResponse
	Ready() bool
}

type predictRequest struct {
	Image string `json:"image"`
}

// PredictHandler accepts a base64 encoded image in a JSON body and
// returns the emotion predictions for every detected face.
func PredictHandler(pred Predictor, repo repository.PredictionRepository, hub *websocket.HubService, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if !pred.Ready() {
			http.Error(w, "Predictor not initialized", http.StatusServiceUnavailable)
			return
		}

		start := time.Now()

		r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxContentLength)

		var req predictRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON body", http.StatusBadRequest)
			return
		}
		if req.Image == "" {
			http.Error(w, "No image data provided", http.StatusBadRequest)
			return
		}

		decodeStart := time.Now()

		// Accept both raw base64 and data URLs ("data:image/...;base64,").
		imageData := req.Image
		if strings.HasPrefix(imageData, "data:image") {
			if idx := strings.Index(imageData, ","); idx >= 0 {
				imageData = imageData[idx+1:]
			}
		}

		imageBytes, err := base64.StdEncoding.DecodeString(imageData)
		if err != nil {
			http.Error(w, "Invalid base64 image data", http.StatusBadRequest)
			return
		}

		frame, err := gocv.IMDecode(imageBytes, gocv.IMReadColor)
		if err != nil || frame.Empty() {
			http.Error(w, "Could not decode image", http.StatusBadRequest)
			return
		}
		defer frame.Close()

		decodeMs := roundMs(time.Since(decodeStart))

		resp := runPrediction(r.Context(), pred, frame, cfg)
		resp.RequestTiming = &dto.RequestTiming{
			DecodeMs:  decodeMs,
			PredictMs: resp.ProcessingTimeMs,
			TotalMs:   roundMs(time.Since(start)),
		}

		recordPrediction(resp, "base64", repo, hub, logger)

		logger.Info("Prediction request: %.1fms (decode: %.1fms, predict: %.1fms)",
			resp.RequestTiming.TotalMs, decodeMs, resp.ProcessingTimeMs)

		writeJSON(w, resp, logger)
	}
}

// PredictFileHandler accepts a multipart file upload and returns the
// emotion predictions for every detected face.
func PredictFileHandler(pred Predictor, repo repository.PredictionRepository, hub *websocket.HubService, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if !pred.Ready() {
			http.Error(w, "Predictor not initialized", http.StatusServiceUnavailable)
			return
		}

		frame, filename, ok := decodeUpload(w, r, cfg)
		if !ok {
			return
		}
		defer frame.Close()

		resp := runPrediction(r.Context(), pred, frame, cfg)

		recordPrediction(resp, filename, repo, hub, logger)

		writeJSON(w, resp, logger)
	}
}

// decodeUpload reads and decodes the "file" form field. On failure it
// writes the error response itself and returns ok=false.
func decodeUpload(w http.ResponseWriter, r *http.Request, cfg *config.Config) (gocv.Mat, string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxContentLength)

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "No file uploaded", http.StatusBadRequest)
		return gocv.Mat{}, "", false
	}
	defer file.Close()

	if header.Filename == "" {
		http.Error(w, "No file selected", http.StatusBadRequest)
		return gocv.Mat{}, "", false
	}
	if !cfg.AllowedExtension(header.Filename) {
		http.Error(w, "File type not allowed", http.StatusBadRequest)
		return gocv.Mat{}, "", false
	}

	imageBytes, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Error reading file", http.StatusBadRequest)
		return gocv.Mat{}, "", false
	}

	frame, err := gocv.IMDecode(imageBytes, gocv.IMReadColor)
	if err != nil || frame.Empty() {
		http.Error(w, "Could not decode image", http.StatusBadRequest)
		return gocv.Mat{}, "", false
	}

	return frame, header.Filename, true
}

// runPrediction invokes the pipeline under the configured per-request
// deadline.
func runPrediction(parent context.Context, pred Predictor, frame gocv.Mat, cfg *config.Config) dto.EmotionResponse {
	ctx := parent
	if cfg.DetectionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, cfg.DetectionTimeout)
		defer cancel()
	}
	return pred.Predict(ctx, frame)
}

// recordPrediction stores the request summary and notifies monitor
// clients. Both are best-effort; failures never affect the response.
func recordPrediction(resp dto.EmotionResponse, source string, repo repository.PredictionRepository, hub *websocket.HubService, logger *logger.Logger) {
	if repo != nil {
		emotions := make([]string, 0, len(resp.Emotions))
		for _, pred := range resp.Emotions {
			emotions = append(emotions, pred.Emotion)
		}

		rec := &dto.PredictionRecord{
			CreatedAt:        time.Now().UTC(),
			Source:           source,
			Success:          resp.Success,
			FacesDetected:    resp.FacesDetected,
			Emotions:         emotions,
			ProcessingTimeMs: resp.ProcessingTimeMs,
		}
		if _, err := repo.Insert(rec); err != nil {
			logger.Error("Failed to store prediction record: %v", err)
		}
	}

	if hub != nil {
		hub.BroadcastPrediction(resp)
	}
}

func writeJSON(w http.ResponseWriter, payload interface{}, logger *logger.Logger) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("Error encoding JSON response: %v", err)
	}
}

func roundMs(d time.Duration) float64 {
	return math.Round(float64(d.Microseconds())/10) / 100
}
