package handlers

import (
	"net/http"
	"strconv"

	"emotionserver/internal/config"
	"emotionserver/internal/dto"
	"emotionserver/internal/logger"
	"emotionserver/internal/repository"
)

// GetHistoryHandler returns the paginated prediction history.
func GetHistoryHandler(repo repository.PredictionRepository, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := atoiDefault(r.URL.Query().Get("page"), 1)
		limit := atoiDefault(r.URL.Query().Get("limit"), cfg.HistoryPageSize)

		total, err := repo.Count()
		if err != nil {
			logger.Error("Failed to count predictions: %v", err)
			http.Error(w, "Unable to read prediction history", http.StatusInternalServerError)
			return
		}

		records, err := repo.List(limit, (page-1)*limit)
		if err != nil {
			logger.Error("Failed to list predictions: %v", err)
			http.Error(w, "Unable to read prediction history", http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []dto.PredictionRecord{}
		}

		writeJSON(w, dto.HistoryData{
			Predictions: records,
			Length:      total,
			TotalPages:  (total + limit - 1) / limit,
			CurrentPage: page,
			Limit:       limit,
		}, logger)
	}
}

// GetStatsHandler returns aggregate prediction statistics.
func GetStatsHandler(repo repository.PredictionRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := repo.Stats()
		if err != nil {
			logger.Error("Failed to compute stats: %v", err)
			http.Error(w, "Unable to compute statistics", http.StatusInternalServerError)
			return
		}

		writeJSON(w, stats, logger)
	}
}

// ClearHistoryHandler wipes the stored prediction history.
func ClearHistoryHandler(repo repository.PredictionRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		if err := repo.ClearAll(); err != nil {
			logger.Error("Failed to clear history: %v", err)
			http.Error(w, "Unable to clear history", http.StatusInternalServerError)
			return
		}

		logger.Info("Prediction history cleared")
		writeJSON(w, map[string]bool{"success": true}, logger)
	}
}

// atoiDefault parses a positive integer, falling back to def for
// empty, invalid or non-positive input.
func atoiDefault(value string, def int) int {
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
