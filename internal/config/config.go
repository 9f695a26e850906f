package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port int
	Host string

	ModelPath     string
	CascadePath   string
	EmotionLabels []string

	// Cascade scan parameters
	ScaleFactor  float64
	MinNeighbors int

	// Candidate filter thresholds
	MinFaceSize      int
	MaxFaceSize      int
	MinVariance      float64
	OverlapThreshold float64
	MaxFaces         int

	// Classifier input resolution (48x48 for the reference model)
	ModelInputSize int

	MaxContentLength  int64
	DetectionTimeout  time.Duration
	CORSOrigins       string
	AllowedExtensions []string

	DatabasePath    string
	LogDirectory    string
	HistoryPageSize int
}

func Load() *Config {
	// Optional .env file, same as the original deployment setup.
	_ = godotenv.Load()

	return &Config{
		Port: getEnvAsInt("PORT", 8080),
		Host: getEnv("HOST", "0.0.0.0"),

		ModelPath:     getEnv("MODEL_PATH", filepath.Join(".", "models", "emotion_model.onnx")),
		CascadePath:   getEnv("CASCADE_PATH", filepath.Join(".", "models", "haarcascade_frontalface_default.xml")),
		EmotionLabels: getEnvAsList("EMOTION_LABELS", "happy,sad,neutral"),

		ScaleFactor:  getEnvAsFloat("SCALE_FACTOR", 1.1),
		MinNeighbors: getEnvAsInt("MIN_NEIGHBORS", 4),

		MinFaceSize:      getEnvAsInt("MIN_FACE_SIZE", 30),
		MaxFaceSize:      getEnvAsInt("MAX_FACE_SIZE", 300),
		MinVariance:      getEnvAsFloat("MIN_VARIANCE", 100),
		OverlapThreshold: getEnvAsFloat("OVERLAP_THRESHOLD", 0.3),
		MaxFaces:         getEnvAsInt("MAX_FACES", 3),

		ModelInputSize: getEnvAsInt("MODEL_INPUT_SIZE", 48),

		MaxContentLength:  getEnvAsInt64("MAX_CONTENT_LENGTH", 16777216), // 16MB
		DetectionTimeout:  time.Duration(getEnvAsInt("DETECTION_TIMEOUT", 30)) * time.Second,
		CORSOrigins:       getEnv("CORS_ORIGINS", "*"),
		AllowedExtensions: getEnvAsList("ALLOWED_EXTENSIONS", "png,jpg,jpeg,gif,bmp"),

		DatabasePath:    getEnv("DB_PATH", filepath.Join(".", "data", "predictions.db")),
		LogDirectory:    getEnv("LOG_DIR", filepath.Join(".", "logs")),
		HistoryPageSize: getEnvAsInt("HISTORY_PAGE_SIZE", 10),
	}
}

// Validate checks that the required model files exist on disk and the
// label list is usable, so a misconfigured deployment fails at startup
// instead of on the first request.
func (c *Config) Validate() error {
	if len(c.EmotionLabels) == 0 {
		return fmt.Errorf("no emotion labels configured")
	}

	var missing []string

	if _, err := os.Stat(c.ModelPath); os.IsNotExist(err) {
		missing = append(missing, fmt.Sprintf("model file: %s", c.ModelPath))
	}
	if _, err := os.Stat(c.CascadePath); os.IsNotExist(err) {
		missing = append(missing, fmt.Sprintf("cascade file: %s", c.CascadePath))
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required files: %s", strings.Join(missing, "; "))
	}
	return nil
}

// AllowedExtension reports whether the given filename has one of the
// configured upload extensions.
func (c *Config) AllowedExtension(filename string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	for _, allowed := range c.AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsList(key, defaultValue string) []string {
	value := getEnv(key, defaultValue)

	parts := strings.Split(value, ",")
	list := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			list = append(list, trimmed)
		}
	}
	return list
}
