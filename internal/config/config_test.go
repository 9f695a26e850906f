package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Port)
	}
	if cfg.MinFaceSize != 30 || cfg.MaxFaceSize != 300 {
		t.Errorf("unexpected face size bounds: %d..%d", cfg.MinFaceSize, cfg.MaxFaceSize)
	}
	if cfg.OverlapThreshold != 0.3 {
		t.Errorf("expected overlap threshold 0.3, got %v", cfg.OverlapThreshold)
	}
	if cfg.MaxFaces != 3 {
		t.Errorf("expected max faces 3, got %d", cfg.MaxFaces)
	}
	if cfg.ModelInputSize != 48 {
		t.Errorf("expected model input size 48, got %d", cfg.ModelInputSize)
	}
	if cfg.DetectionTimeout != 30*time.Second {
		t.Errorf("expected detection timeout 30s, got %v", cfg.DetectionTimeout)
	}

	expected := []string{"happy", "sad", "neutral"}
	if len(cfg.EmotionLabels) != len(expected) {
		t.Fatalf("expected %d emotion labels, got %v", len(expected), cfg.EmotionLabels)
	}
	for i, label := range expected {
		if cfg.EmotionLabels[i] != label {
			t.Errorf("label %d: expected %q, got %q", i, label, cfg.EmotionLabels[i])
		}
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("SCALE_FACTOR", "1.3")
	t.Setenv("EMOTION_LABELS", "angry, calm ,surprised")

	cfg := Load()

	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
	if cfg.ScaleFactor != 1.3 {
		t.Errorf("expected scale factor 1.3, got %v", cfg.ScaleFactor)
	}
	if len(cfg.EmotionLabels) != 3 || cfg.EmotionLabels[1] != "calm" {
		t.Errorf("expected trimmed labels, got %v", cfg.EmotionLabels)
	}
}

func TestLoad_InvalidEnvFallsBack(t *testing.T) {
	t.Setenv("PORT", "not-a-number")
	t.Setenv("MIN_VARIANCE", "abc")

	cfg := Load()

	if cfg.Port != 8080 {
		t.Errorf("expected fallback port 8080, got %d", cfg.Port)
	}
	if cfg.MinVariance != 100 {
		t.Errorf("expected fallback variance 100, got %v", cfg.MinVariance)
	}
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()

	modelPath := filepath.Join(dir, "model.onnx")
	cascadePath := filepath.Join(dir, "cascade.xml")

	cfg := &Config{
		ModelPath:     modelPath,
		CascadePath:   cascadePath,
		EmotionLabels: []string{"happy", "sad", "neutral"},
	}

	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing model files")
	}

	if err := os.WriteFile(modelPath, []byte("m"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error while cascade file still missing")
	}

	if err := os.WriteFile(cascadePath, []byte("c"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected no error with both files present, got %v", err)
	}
}

func TestValidate_EmptyLabels(t *testing.T) {
	dir := t.TempDir()

	modelPath := filepath.Join(dir, "model.onnx")
	cascadePath := filepath.Join(dir, "cascade.xml")
	for _, path := range []string{modelPath, cascadePath} {
		if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	// EMOTION_LABELS="," survives list parsing as an empty slice; the
	// classifier can never produce a label from it.
	cfg := &Config{ModelPath: modelPath, CascadePath: cascadePath}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for empty emotion label list")
	}
}

func TestAllowedExtension(t *testing.T) {
	cfg := &Config{AllowedExtensions: []string{"png", "jpg", "jpeg"}}

	tests := []struct {
		filename string
		allowed  bool
	}{
		{"face.jpg", true},
		{"face.JPG", true},
		{"face.jpeg", true},
		{"face.png", true},
		{"face.tiff", false},
		{"face", false},
	}

	for _, tt := range tests {
		if got := cfg.AllowedExtension(tt.filename); got != tt.allowed {
			t.Errorf("AllowedExtension(%q) = %v, expected %v", tt.filename, got, tt.allowed)
		}
	}
}
