package dto

import "time"

// PredictionRecord is one stored prediction request summary.
type PredictionRecord struct {
	ID               int64     `json:"id"`
	CreatedAt        time.Time `json:"created_at"`
	Source           string    `json:"source"`
	Success          bool      `json:"success"`
	FacesDetected    int       `json:"faces_detected"`
	Emotions         []string  `json:"emotions"`
	ProcessingTimeMs float64   `json:"processing_time_ms"`
}

// HistoryData is a paginated response payload for the prediction history.
type HistoryData struct {
	Predictions []PredictionRecord `json:"predictions"`
	Length      int                `json:"length"`
	TotalPages  int                `json:"totalPages"`
	CurrentPage int                `json:"currentPage"`
	Limit       int                `json:"pageSize"`
}
