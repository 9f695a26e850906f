package classify

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// ErrDegenerateRegion marks a face crop with zero area. The
// orchestrator treats it as "candidate skipped", not request failure.
var ErrDegenerateRegion = errors.New("degenerate face region")

// PrepareFaceInput crops the candidate rectangle from the frame,
// converts it to single-channel, resizes to inputSize x inputSize,
// scales pixel values to [0,1] and packages the result as a
// 1x1xNxN blob in the shape the classifier expects. The caller owns
// the returned Mat.
func PrepareFaceInput(frame gocv.Mat, rect image.Rectangle, inputSize int) (gocv.Mat, error) {
	if rect.Dx() <= 0 || rect.Dy() <= 0 {
		return gocv.Mat{}, ErrDegenerateRegion
	}

	bounds := image.Rect(0, 0, frame.Cols(), frame.Rows())
	clipped := rect.Intersect(bounds)
	if clipped.Dx() <= 0 || clipped.Dy() <= 0 {
		return gocv.Mat{}, ErrDegenerateRegion
	}

	region := frame.Region(clipped)
	defer region.Close()

	var gray gocv.Mat
	if region.Channels() > 1 {
		gray = gocv.NewMat()
		if err := gocv.CvtColor(region, &gray, gocv.ColorBGRToGray); err != nil {
			gray.Close()
			return gocv.Mat{}, fmt.Errorf("failed to convert face region: %w", err)
		}
	} else {
		gray = region.Clone()
	}
	defer gray.Close()

	blob := gocv.BlobFromImage(gray, 1.0/255.0, image.Pt(inputSize, inputSize),
		gocv.NewScalar(0, 0, 0, 0), false, false)
	if blob.Empty() {
		blob.Close()
		return gocv.Mat{}, fmt.Errorf("failed to build input blob for region %v", clipped)
	}

	return blob, nil
}
