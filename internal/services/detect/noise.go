package detect

import (
	"image"

	"gocv.io/x/gocv"
)

// ReduceNoise normalizes a frame before candidate generation: convert
// to single-channel luminance if needed, apply a small Gaussian blur
// to suppress sensor noise, and equalize the histogram so the
// cascade's learned thresholds hold across lighting conditions.
//
// Noise reduction is an optimization, not a correctness requirement:
// on any failure the original frame is returned unmodified (as a
// clone the caller owns either way).
func ReduceNoise(frame gocv.Mat) gocv.Mat {
	var gray gocv.Mat
	if frame.Channels() > 1 {
		gray = gocv.NewMat()
		if err := gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray); err != nil {
			gray.Close()
			return frame.Clone()
		}
	} else {
		gray = frame.Clone()
	}

	// Small kernel, large enough to smooth noise without erasing
	// facial features.
	if err := gocv.GaussianBlur(gray, &gray, image.Pt(3, 3), 0, 0, gocv.BorderDefault); err != nil {
		gray.Close()
		return frame.Clone()
	}

	if err := gocv.EqualizeHist(gray, &gray); err != nil {
		gray.Close()
		return frame.Clone()
	}

	return gray
}
