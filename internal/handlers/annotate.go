package handlers

import (
	"fmt"
	"image"
	"image/color"
	"net/http"

	"gocv.io/x/gocv"

	"emotionserver/internal/config"
	"emotionserver/internal/logger"
)

// AnnotatedHandler accepts a multipart file upload and returns the
// image as JPEG with bounding boxes and emotion labels drawn on it.
func AnnotatedHandler(pred Predictor, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	green := color.RGBA{R: 0, G: 255, B: 0, A: 0}

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if !pred.Ready() {
			http.Error(w, "Predictor not initialized", http.StatusServiceUnavailable)
			return
		}

		frame, _, ok := decodeUpload(w, r, cfg)
		if !ok {
			return
		}
		defer frame.Close()

		resp := runPrediction(r.Context(), pred, frame, cfg)
		if !resp.Success {
			http.Error(w, resp.Message, http.StatusInternalServerError)
			return
		}

		for _, face := range resp.Emotions {
			box := image.Rect(face.BoundingBox.X, face.BoundingBox.Y,
				face.BoundingBox.X+face.BoundingBox.Width,
				face.BoundingBox.Y+face.BoundingBox.Height)

			if err := gocv.Rectangle(&frame, box, green, 2); err != nil {
				logger.Error("Failed to draw rectangle: %v", err)
				continue
			}

			label := fmt.Sprintf("%s (%.2f)", face.Emotion, face.Confidence)
			pt := image.Pt(face.BoundingBox.X, face.BoundingBox.Y-5)
			if err := gocv.PutText(&frame, label, pt, gocv.FontHersheySimplex, 0.5, green, 1); err != nil {
				logger.Error("Failed to draw label: %v", err)
			}
		}

		buf, err := gocv.IMEncode(".jpg", frame)
		if err != nil {
			logger.Error("Failed to encode annotated image: %v", err)
			http.Error(w, "Failed to encode image", http.StatusInternalServerError)
			return
		}
		defer buf.Close()

		w.Header().Set("Content-Type", "image/jpeg")
		if _, err := w.Write(buf.GetBytes()); err != nil {
			logger.Error("Failed to write annotated image: %v", err)
		}
	}
}
