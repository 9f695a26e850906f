package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"emotionserver/internal/dto"
)

// DB wraps the SQLite prediction history with thread-safe access.
type DB struct {
	conn *sql.DB
	mu   sync.RWMutex
}

// New creates and initializes a new SQLite database connection.
func New(dbPath string) (*DB, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// migrate creates the necessary tables if they don't exist.
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS predictions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at DATETIME NOT NULL,
		source TEXT NOT NULL,
		success INTEGER NOT NULL,
		faces_detected INTEGER DEFAULT 0,
		processing_time_ms REAL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS prediction_emotions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		prediction_id INTEGER NOT NULL,
		emotion TEXT NOT NULL,
		confidence REAL DEFAULT 0,
		FOREIGN KEY (prediction_id) REFERENCES predictions(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_predictions_created ON predictions(created_at);
	CREATE INDEX IF NOT EXISTS idx_prediction_emotions_name ON prediction_emotions(emotion);
	CREATE INDEX IF NOT EXISTS idx_prediction_emotions_prediction_id ON prediction_emotions(prediction_id);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// Insert adds a prediction record with its per-face emotions.
func (db *DB) Insert(rec *dto.PredictionRecord) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		INSERT INTO predictions (created_at, source, success, faces_detected, processing_time_ms)
		VALUES (?, ?, ?, ?, ?)
	`, rec.CreatedAt, rec.Source, rec.Success, rec.FacesDetected, rec.ProcessingTimeMs)
	if err != nil {
		return 0, fmt.Errorf("failed to insert prediction: %w", err)
	}

	predictionID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}

	for _, emotion := range rec.Emotions {
		if _, err := tx.Exec(`
			INSERT INTO prediction_emotions (prediction_id, emotion)
			VALUES (?, ?)
		`, predictionID, emotion); err != nil {
			return 0, fmt.Errorf("failed to insert emotion: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return predictionID, nil
}

// List retrieves prediction records, newest first.
func (db *DB) List(limit, offset int) ([]dto.PredictionRecord, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	query := `
		SELECT id, created_at, source, success, faces_detected, processing_time_ms
		FROM predictions
		ORDER BY created_at DESC, id DESC
	`
	args := []interface{}{}

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	if offset > 0 {
		query += " OFFSET ?"
		args = append(args, offset)
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	var records []dto.PredictionRecord
	for rows.Next() {
		var rec dto.PredictionRecord
		if err := rows.Scan(&rec.ID, &rec.CreatedAt, &rec.Source, &rec.Success,
			&rec.FacesDetected, &rec.ProcessingTimeMs); err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}

		emotions, err := db.getEmotions(rec.ID)
		if err != nil {
			return nil, err
		}
		rec.Emotions = emotions

		records = append(records, rec)
	}

	return records, rows.Err()
}

// getEmotions retrieves the per-face emotions for one prediction.
func (db *DB) getEmotions(predictionID int64) ([]string, error) {
	rows, err := db.conn.Query(`
		SELECT emotion FROM prediction_emotions WHERE prediction_id = ? ORDER BY id
	`, predictionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query emotions: %w", err)
	}
	defer rows.Close()

	var emotions []string
	for rows.Next() {
		var emotion string
		if err := rows.Scan(&emotion); err != nil {
			return nil, fmt.Errorf("failed to scan emotion: %w", err)
		}
		emotions = append(emotions, emotion)
	}

	return emotions, rows.Err()
}

// Count returns the total number of stored predictions.
func (db *DB) Count() (int, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var count int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM predictions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count predictions: %w", err)
	}
	return count, nil
}

// Stats returns aggregate statistics about stored predictions.
func (db *DB) Stats() (map[string]interface{}, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	stats := make(map[string]interface{})

	var totalRequests, totalFaces int
	var avgProcessing sql.NullFloat64
	err := db.conn.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(faces_detected), 0), AVG(processing_time_ms)
		FROM predictions
	`).Scan(&totalRequests, &totalFaces, &avgProcessing)
	if err != nil {
		return nil, err
	}
	stats["total_requests"] = totalRequests
	stats["total_faces"] = totalFaces
	stats["avg_processing_time_ms"] = avgProcessing.Float64

	rows, err := db.conn.Query(`
		SELECT emotion, COUNT(*) as cnt
		FROM prediction_emotions
		GROUP BY emotion
		ORDER BY cnt DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	emotionCounts := make(map[string]int)
	for rows.Next() {
		var emotion string
		var count int
		if err := rows.Scan(&emotion, &count); err != nil {
			return nil, err
		}
		emotionCounts[emotion] = count
	}
	stats["emotion_counts"] = emotionCounts

	return stats, rows.Err()
}

// ClearAll removes all stored predictions and emotions.
func (db *DB) ClearAll() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, err := db.conn.Exec(`DELETE FROM prediction_emotions`); err != nil {
		return fmt.Errorf("failed to delete emotions: %w", err)
	}
	if _, err := db.conn.Exec(`DELETE FROM predictions`); err != nil {
		return fmt.Errorf("failed to delete predictions: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
