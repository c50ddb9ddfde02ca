package features

import (
	"fmt"
	"os"
	"time"

	"github.com/barasher/go-exiftool"
	"github.com/bep/imagemeta"
)

// exifTimeLayout is the timestamp format EXIF uses for DateTimeOriginal.
const exifTimeLayout = "2006:01:02 15:04:05"

// TimestampReader extracts capture timestamps. Standard formats go through
// the pure-Go EXIF decoder; RAW formats fall back to an exiftool process,
// which understands vendor containers the decoder does not.
type TimestampReader struct {
	et *exiftool.Exiftool
}

// NewTimestampReader starts the reader. The exiftool process is started
// lazily on the first RAW file, so a missing exiftool binary only matters
// when RAW files are present.
func NewTimestampReader() *TimestampReader {
	return &TimestampReader{}
}

// Close stops the exiftool process if one was started.
func (r *TimestampReader) Close() {
	if r.et != nil {
		r.et.Close()
		r.et = nil
	}
}

// CaptureTime returns the DateTimeOriginal of an image, or the zero time
// when the tag is absent. Only I/O and parse failures are errors.
func (r *TimestampReader) CaptureTime(path string) (time.Time, error) {
	if isRawFormat(path) {
		return r.captureTimeExiftool(path)
	}
	return captureTimeEmbedded(path)
}

// captureTimeEmbedded reads DateTimeOriginal with the pure-Go decoder.
func captureTimeEmbedded(path string) (time.Time, error) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, err
	}
	defer f.Close()

	var ts time.Time
	err = imagemeta.Decode(imagemeta.Options{
		R:       f,
		Sources: imagemeta.EXIF,
		ShouldHandleTag: func(ti imagemeta.TagInfo) bool {
			return ti.Tag == "DateTimeOriginal"
		},
		HandleTag: func(ti imagemeta.TagInfo) error {
			switch v := ti.Value.(type) {
			case time.Time:
				ts = v
			case string:
				parsed, perr := time.ParseInLocation(exifTimeLayout, v, time.Local)
				if perr == nil {
					ts = parsed
				}
			}
			return nil
		},
	})
	if err != nil {
		// No EXIF block at all is not an error, just an absent timestamp.
		return time.Time{}, nil
	}

	return ts, nil
}

// captureTimeExiftool reads DateTimeOriginal from a RAW file via exiftool.
func (r *TimestampReader) captureTimeExiftool(path string) (time.Time, error) {
	if r.et == nil {
		et, err := exiftool.NewExiftool()
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to initialize exiftool: %v", err)
		}
		r.et = et
	}

	fileInfos := r.et.ExtractMetadata(path)
	if len(fileInfos) == 0 {
		return time.Time{}, fmt.Errorf("no metadata extracted from %s", path)
	}
	fileInfo := fileInfos[0]
	if fileInfo.Err != nil {
		return time.Time{}, fileInfo.Err
	}

	raw, err := fileInfo.GetString("DateTimeOriginal")
	if err != nil {
		// Tag absent.
		return time.Time{}, nil
	}

	ts, err := time.ParseInLocation(exifTimeLayout, raw, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("cannot parse DateTimeOriginal %q of %s: %v", raw, path, err)
	}

	return ts, nil
}
