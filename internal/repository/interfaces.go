package repository

import "emotionserver/internal/dto"

// PredictionRepository stores per-request prediction summaries for
// the history and stats endpoints.
type PredictionRepository interface {
	Insert(rec *dto.PredictionRecord) (int64, error)
	List(limit, offset int) ([]dto.PredictionRecord, error)
	Count() (int, error)
	Stats() (map[string]interface{}, error)
	ClearAll() error
	Close() error
}
