package features

import (
	"fmt"
	"image"
	"math"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"imageculler/types"
)

// AestheticScorer runs the ONNX aesthetic-scoring head over an image and
// produces the seven fixed sub-scores. The DNN handle is not safe for
// concurrent forward passes, so calls are serialized internally.
type AestheticScorer struct {
	mu  sync.Mutex
	net gocv.Net
}

// NewAestheticScorer loads the scoring model. A missing or unreadable
// model is a provider failure: the run cannot proceed without scores.
func NewAestheticScorer(modelPath string) (*AestheticScorer, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, &types.ProviderError{Op: "score", Err: fmt.Errorf("scoring model unavailable at %s: %v", modelPath, err)}
	}

	net := gocv.ReadNetFromONNX(modelPath)
	if net.Empty() {
		return nil, &types.ProviderError{Op: "score", Err: fmt.Errorf("cannot load scoring model %s", modelPath)}
	}

	return &AestheticScorer{net: net}, nil
}

// Close releases the model.
func (s *AestheticScorer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.net.Close()
}

// Score runs one forward pass and returns the score vector, each category
// rounded to two decimals.
func (s *AestheticScorer) Score(img gocv.Mat) (types.ScoreVector, error) {
	var scores types.ScoreVector
	if img.Empty() {
		return scores, fmt.Errorf("cannot score empty image")
	}

	blob := gocv.BlobFromImage(img, 1.0/255.0, image.Pt(224, 224), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	s.mu.Lock()
	s.net.SetInput(blob, "")
	out := s.net.Forward("")
	s.mu.Unlock()
	defer out.Close()

	if out.Total() < 7 {
		return scores, fmt.Errorf("scoring model produced %d outputs, want 7", out.Total())
	}

	scores.Overall = round2(out.GetFloatAt(0, 0))
	scores.Quality = round2(out.GetFloatAt(0, 1))
	scores.Composition = round2(out.GetFloatAt(0, 2))
	scores.Lighting = round2(out.GetFloatAt(0, 3))
	scores.Color = round2(out.GetFloatAt(0, 4))
	scores.DepthOfField = round2(out.GetFloatAt(0, 5))
	scores.Content = round2(out.GetFloatAt(0, 6))

	return scores, nil
}

// round2 rounds a model output to two decimals.
func round2(v float32) float64 {
	return math.Round(float64(v)*100) / 100
}
