package features

import (
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"imageculler/types"
)

// FaceExtractor detects faces and produces one encoding vector per
// detected face, for the face-identity grouping refinement.
type FaceExtractor struct {
	mu         sync.Mutex
	detector   gocv.FaceDetectorYN
	recognizer gocv.FaceRecognizerSF
}

// NewFaceExtractor loads the detection and recognition models.
func NewFaceExtractor(detectorModel, recognizerModel string) (*FaceExtractor, error) {
	for _, path := range []string{detectorModel, recognizerModel} {
		if _, err := os.Stat(path); err != nil {
			return nil, &types.ProviderError{Op: "faces", Err: fmt.Errorf("face model unavailable at %s: %v", path, err)}
		}
	}

	detector := gocv.NewFaceDetectorYN(detectorModel, "", image.Pt(320, 320))
	recognizer := gocv.NewFaceRecognizerSF(recognizerModel, "")

	return &FaceExtractor{detector: detector, recognizer: recognizer}, nil
}

// Close releases both models.
func (f *FaceExtractor) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detector.Close()
	f.recognizer.Close()
}

// Encodings returns one encoding per face found in the image. An image
// with no faces yields an empty, non-nil slice.
func (f *FaceExtractor) Encodings(img gocv.Mat) ([][]float32, error) {
	if img.Empty() {
		return nil, fmt.Errorf("cannot encode faces of empty image")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.detector.SetInputSize(image.Pt(img.Cols(), img.Rows()))

	faces := gocv.NewMat()
	defer faces.Close()
	f.detector.Detect(img, &faces)

	encodings := [][]float32{}
	for r := 0; r < faces.Rows(); r++ {
		box := faces.RowRange(r, r+1)

		aligned := gocv.NewMat()
		f.recognizer.AlignCrop(img, box, &aligned)

		feature := gocv.NewMat()
		f.recognizer.Feature(aligned, &feature)

		enc := make([]float32, feature.Cols())
		for c := 0; c < feature.Cols(); c++ {
			enc[c] = feature.GetFloatAt(0, c)
		}
		encodings = append(encodings, enc)

		feature.Close()
		aligned.Close()
		box.Close()
	}

	return encodings, nil
}
