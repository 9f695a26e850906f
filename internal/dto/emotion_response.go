package dto

// BoundingBox is the pixel-coordinate rectangle of a detected face.
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// FacePrediction is the classification result for one detected face.
// FaceID values are dense 1..N within a single response.
type FacePrediction struct {
	FaceID           int                `json:"face_id"`
	BoundingBox      BoundingBox        `json:"bounding_box"`
	Emotion          string             `json:"emotion"`
	Confidence       float64            `json:"confidence"`
	PredictionTimeMs float64            `json:"prediction_time_ms"`
	AllPredictions   map[string]float64 `json:"all_predictions"`
}

// TimingBreakdown reports per-stage pipeline latency in milliseconds.
type TimingBreakdown struct {
	FaceDetection   float64 `json:"face_detection"`
	ModelPrediction float64 `json:"model_prediction"`
	Total           float64 `json:"total"`
}

// RequestTiming reports transport-level latency measured by the
// handler around the pipeline invocation.
type RequestTiming struct {
	DecodeMs  float64 `json:"decode_ms"`
	PredictMs float64 `json:"predict_ms"`
	TotalMs   float64 `json:"total_ms"`
}

// EmotionResponse is the per-request result of the prediction
// pipeline. One instance per request; predictions are ordered in
// candidate-processing order.
type EmotionResponse struct {
	Success           bool             `json:"success"`
	FacesDetected     int              `json:"faces_detected"`
	Emotions          []FacePrediction `json:"emotions"`
	Message           string           `json:"message"`
	ProcessingTimeMs  float64          `json:"processing_time_ms"`
	TimingBreakdownMs TimingBreakdown  `json:"timing_breakdown_ms"`
	RequestTiming     *RequestTiming   `json:"timing_breakdown,omitempty"`
}
