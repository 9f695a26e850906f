package handlers

import (
	"net/http"
	"os"
	"path/filepath"

	"emotionserver/internal/config"
	"emotionserver/internal/logger"
)

// ShowLogsHandler serves the content of one log file as plain text.
func ShowLogsHandler(cfg *config.Config, filename string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(cfg.LogDirectory, filename)

		content, err := os.ReadFile(path)
		if err != nil {
			http.Error(w, "Unable to read log file", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write(content)
	}
}

// ClearLogsHandler truncates one log file.
func ClearLogsHandler(log *logger.Logger, filename string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		log.CleanLogs(filename)
		w.WriteHeader(http.StatusNoContent)
	}
}
