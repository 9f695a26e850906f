package routes

import (
	"net/http"

	"emotionserver/internal/config"
	"emotionserver/internal/handlers"
	"emotionserver/internal/logger"
	"emotionserver/internal/middleware"
	"emotionserver/internal/repository"
	"emotionserver/internal/services/websocket"
)

// SetupRoutes registers HTTP routes and wraps the mux with the CORS
// middleware.
func SetupRoutes(pred handlers.Predictor, repo repository.PredictionRepository, hub *websocket.HubService, cfg *config.Config, log *logger.Logger) http.Handler {
	mux := http.NewServeMux()

	// Service endpoints
	mux.HandleFunc("/", handlers.IndexHandler(pred, cfg, log))
	mux.HandleFunc("/health", handlers.HealthHandler(pred, log))

	// Prediction endpoints
	mux.HandleFunc("/api/predict", handlers.PredictHandler(pred, repo, hub, cfg, log))
	mux.HandleFunc("/api/predict/file", handlers.PredictFileHandler(pred, repo, hub, cfg, log))
	mux.HandleFunc("/api/predict/annotated", handlers.AnnotatedHandler(pred, cfg, log))

	// History endpoints
	mux.HandleFunc("/api/history", handlers.GetHistoryHandler(repo, cfg, log))
	mux.HandleFunc("/api/history/clear", handlers.ClearHistoryHandler(repo, log))
	mux.HandleFunc("/api/stats", handlers.GetStatsHandler(repo, log))

	// Live monitor
	mux.HandleFunc("/api/monitor", handlers.MonitorWebsocketHandler(hub, log))

	// Log endpoints
	mux.HandleFunc("/logs/info", handlers.ShowLogsHandler(cfg, "info.log"))
	mux.HandleFunc("/logs/warning", handlers.ShowLogsHandler(cfg, "warning.log"))
	mux.HandleFunc("/logs/error", handlers.ShowLogsHandler(cfg, "error.log"))
	mux.HandleFunc("/logs/info/clear", handlers.ClearLogsHandler(log, "info.log"))
	mux.HandleFunc("/logs/warning/clear", handlers.ClearLogsHandler(log, "warning.log"))
	mux.HandleFunc("/logs/error/clear", handlers.ClearLogsHandler(log, "error.log"))

	return middleware.CORS(cfg.CORSOrigins)(mux)
}
