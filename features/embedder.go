package features

import (
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"imageculler/types"
)

// Embedder extracts a pooled feature vector per image from an ONNX
// backbone. Forward passes are serialized; the DNN handle is not
// goroutine-safe.
type Embedder struct {
	mu  sync.Mutex
	net gocv.Net
}

// NewEmbedder loads the embedding backbone.
func NewEmbedder(modelPath string) (*Embedder, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, &types.ProviderError{Op: "embed", Err: fmt.Errorf("embedding model unavailable at %s: %v", modelPath, err)}
	}

	net := gocv.ReadNetFromONNX(modelPath)
	if net.Empty() {
		return nil, &types.ProviderError{Op: "embed", Err: fmt.Errorf("cannot load embedding model %s", modelPath)}
	}

	return &Embedder{net: net}, nil
}

// Close releases the model.
func (e *Embedder) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.net.Close()
}

// Embed runs one forward pass and returns the flattened feature vector.
func (e *Embedder) Embed(img gocv.Mat) ([]float32, error) {
	if img.Empty() {
		return nil, fmt.Errorf("cannot embed empty image")
	}

	blob := gocv.BlobFromImage(img, 1.0, image.Pt(224, 224), gocv.NewScalar(103.939, 116.779, 123.68, 0), false, false)
	defer blob.Close()

	e.mu.Lock()
	e.net.SetInput(blob, "")
	out := e.net.Forward("")
	e.mu.Unlock()
	defer out.Close()

	total := out.Total()
	if total == 0 {
		return nil, fmt.Errorf("embedding model produced no output")
	}

	flat := out.Reshape(1, 1)
	defer flat.Close()

	vector := make([]float32, total)
	for k := 0; k < total; k++ {
		vector[k] = flat.GetFloatAt(0, k)
	}

	return vector, nil
}
