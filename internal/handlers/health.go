package handlers

import (
	"net/http"
	"time"

	"emotionserver/internal/config"
	"emotionserver/internal/logger"
)

type serviceInfo struct {
	Name              string            `json:"name"`
	Version           string            `json:"version"`
	Status            string            `json:"status"`
	Endpoints         map[string]string `json:"endpoints"`
	SupportedEmotions []string          `json:"supported_emotions"`
}

type healthStatus struct {
	Status          string    `json:"status"`
	PredictorStatus string    `json:"predictor_status"`
	Timestamp       time.Time `json:"timestamp"`
}

// IndexHandler returns API information.
func IndexHandler(pred Predictor, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "active"
		if !pred.Ready() {
			status = "error"
		}

		writeJSON(w, serviceInfo{
			Name:    "Facial Emotion Recognition API",
			Version: "1.0.0",
			Status:  status,
			Endpoints: map[string]string{
				"health":            "GET /health",
				"predict":           "POST /api/predict",
				"predict_file":      "POST /api/predict/file",
				"predict_annotated": "POST /api/predict/annotated",
				"history":           "GET /api/history",
				"stats":             "GET /api/stats",
				"monitor":           "GET /api/monitor",
			},
			SupportedEmotions: cfg.EmotionLabels,
		}, logger)
	}
}

// HealthHandler returns the readiness of the loaded models.
func HealthHandler(pred Predictor, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, predictorStatus := "healthy", "initialized"
		if !pred.Ready() {
			status, predictorStatus = "unhealthy", "failed"
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		writeJSON(w, healthStatus{
			Status:          status,
			PredictorStatus: predictorStatus,
			Timestamp:       time.Now().UTC(),
		}, logger)
	}
}
