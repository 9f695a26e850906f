package dto

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestEmotionResponse_JSONContract(t *testing.T) {
	resp := EmotionResponse{
		Success:       true,
		FacesDetected: 1,
		Emotions: []FacePrediction{
			{
				FaceID:           1,
				BoundingBox:      BoundingBox{X: 20, Y: 20, Width: 40, Height: 40},
				Emotion:          "happy",
				Confidence:       0.91,
				PredictionTimeMs: 4.2,
				AllPredictions:   map[string]float64{"happy": 0.91, "sad": 0.04, "neutral": 0.05},
			},
		},
		Message:           "Successfully detected 1 face(s)",
		ProcessingTimeMs:  12.5,
		TimingBreakdownMs: TimingBreakdown{FaceDetection: 7.1, ModelPrediction: 4.2, Total: 12.5},
	}

	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	got := string(data)

	// Field names are the wire contract consumed by existing clients.
	for _, field := range []string{
		`"success"`, `"faces_detected"`, `"emotions"`, `"message"`,
		`"processing_time_ms"`, `"timing_breakdown_ms"`, `"face_detection"`,
		`"model_prediction"`, `"total"`, `"face_id"`, `"bounding_box"`,
		`"x"`, `"y"`, `"width"`, `"height"`, `"emotion"`, `"confidence"`,
		`"prediction_time_ms"`, `"all_predictions"`,
	} {
		if !strings.Contains(got, field) {
			t.Errorf("response JSON missing field %s: %s", field, got)
		}
	}

	// Handler-level timing is optional and omitted when unset.
	if strings.Contains(got, `"timing_breakdown":`) {
		t.Errorf("expected timing_breakdown omitted when unset: %s", got)
	}
}
