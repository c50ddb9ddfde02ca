// Package features implements the provider side of the pipeline: image
// loading, aesthetic scoring, embedding extraction, face encodings,
// capture timestamps and perceptual hashes, plus the concurrent fan-out
// that collects them per run.
package features

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"gocv.io/x/gocv"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// imageExtensions lists the formats the pipeline enumerates.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".tif":  true,
	".tiff": true,
}

// IsImageFile reports whether a filename extension belongs to a supported
// image format.
func IsImageFile(ext string) bool {
	return imageExtensions[strings.ToLower(ext)]
}

// LoadImage loads an image as a color Mat for model inference. OpenCV
// handles the common formats directly; TIFF variants it rejects go through
// the standard Go decoders instead.
func LoadImage(path string) (gocv.Mat, error) {
	img := gocv.IMRead(path, gocv.IMReadColor)
	if !img.Empty() {
		return img, nil
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".tif" || ext == ".tiff" {
		goImg, err := decodeGoImage(path)
		if err == nil {
			return matFromGoImage(goImg)
		}
	}

	return gocv.NewMat(), fmt.Errorf("failed to load image: %s", path)
}

// decodeGoImage decodes an image with the registered standard decoders.
func decodeGoImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	return img, err
}

// matFromGoImage converts a Go standard library image to a BGR Mat.
func matFromGoImage(img image.Image) (gocv.Mat, error) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return gocv.NewMat(), fmt.Errorf("empty decoded image")
	}

	mat := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			mat.SetUCharAt3(y, x, 0, uint8(b>>8))
			mat.SetUCharAt3(y, x, 1, uint8(g>>8))
			mat.SetUCharAt3(y, x, 2, uint8(r>>8))
		}
	}

	return mat, nil
}

// isRawFormat reports whether a file is a camera RAW format. RAW files are
// not decoded by the pipeline but their EXIF data is still readable.
func isRawFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	rawFormats := []string{".dng", ".raf", ".arw", ".nef", ".cr2", ".cr3", ".nrw", ".srf"}
	for _, format := range rawFormats {
		if ext == format {
			return true
		}
	}
	return false
}
