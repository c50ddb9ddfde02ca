package types

import (
	"errors"
	"fmt"
)

// ErrConfiguration marks fatal setup problems: unknown strategy, missing
// model files, images without the features the chosen strategy needs.
var ErrConfiguration = errors.New("invalid configuration")

// ProviderError wraps a scoring/feature/timestamp provider failure for a
// specific image. Provider failures abort the run; skipping images silently
// would bias the score-based tie-breaking downstream.
type ProviderError struct {
	Op    string // "score", "embed", "faces", "timestamp"
	Image string
	Err   error
}

func (e *ProviderError) Error() string {
	if e.Image == "" {
		return fmt.Sprintf("%s provider: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s provider: %s: %v", e.Op, e.Image, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// ConfigErrorf builds an error wrapping ErrConfiguration so callers can
// test the class with errors.Is.
func ConfigErrorf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrConfiguration)...)
}
