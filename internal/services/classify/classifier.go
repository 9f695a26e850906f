package classify

import (
	"fmt"
	"os"

	"gocv.io/x/gocv"

	"emotionserver/internal/config"
	"emotionserver/internal/logger"
)

// EmotionNet wraps the trained emotion classification network. Loaded
// once at startup and treated as a read-only shared resource; callers
// must serialize access through the per-request pipeline, which never
// mutates it.
type EmotionNet struct {
	net    gocv.Net
	labels []string
	loaded bool
	logger *logger.Logger
}

// NewEmotionNet loads the ONNX classifier from cfg.ModelPath.
func NewEmotionNet(cfg *config.Config, logger *logger.Logger) (*EmotionNet, error) {
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", cfg.ModelPath)
	}

	net := gocv.ReadNetFromONNX(cfg.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load network from %s", cfg.ModelPath)
	}

	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		net.Close()
		return nil, fmt.Errorf("failed to set network backend: %w", err)
	}
	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		net.Close()
		return nil, fmt.Errorf("failed to set network target: %w", err)
	}

	logger.Info("Emotion network loaded from %s (%d classes: %v)",
		cfg.ModelPath, len(cfg.EmotionLabels), cfg.EmotionLabels)

	return &EmotionNet{
		net:    net,
		labels: cfg.EmotionLabels,
		loaded: true,
		logger: logger,
	}, nil
}

// Labels returns the ordered emotion class labels.
func (n *EmotionNet) Labels() []string {
	return n.labels
}

// Infer runs the network on a prepared input blob and returns the
// probability vector over the emotion classes.
func (n *EmotionNet) Infer(blob gocv.Mat) ([]float32, error) {
	if !n.loaded {
		return nil, fmt.Errorf("emotion network not initialized")
	}
	if blob.Empty() {
		return nil, fmt.Errorf("input blob is empty")
	}

	n.net.SetInput(blob, "")

	output := n.net.Forward("")
	defer output.Close()

	if output.Empty() || output.Total() < len(n.labels) {
		return nil, fmt.Errorf("unexpected network output: %d values for %d classes",
			output.Total(), len(n.labels))
	}

	probs := make([]float32, len(n.labels))
	for j := range probs {
		probs[j] = output.GetFloatAt(0, j)
	}

	return probs, nil
}

// Ready reports whether the network is loaded.
func (n *EmotionNet) Ready() bool {
	return n.loaded
}

// Close releases the network resources.
func (n *EmotionNet) Close() {
	if n.loaded {
		n.net.Close()
		n.loaded = false
	}
}
