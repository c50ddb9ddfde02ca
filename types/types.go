package types

import "time"

// ScoreVector holds the fixed set of aesthetic sub-scores for one image.
// Scores are typically in the range [0, 10].
type ScoreVector struct {
	Overall      float64 `json:"overall"`
	Quality      float64 `json:"quality"`
	Composition  float64 `json:"composition"`
	Lighting     float64 `json:"lighting"`
	Color        float64 `json:"color"`
	DepthOfField float64 `json:"depth_of_field"`
	Content      float64 `json:"content"`
}

// Weighted collapses a score vector into the single scalar used for both
// survivor selection and final trimming.
func (s ScoreVector) Weighted() float64 {
	return s.Quality*0.1 +
		s.Composition*0.3 +
		s.DepthOfField*0.2 +
		s.Color*0.15 +
		s.Lighting*0.25
}

// Image holds everything the pipeline knows about one image. Instances are
// built once per run from the providers and never mutated afterward.
type Image struct {
	Name       string      `json:"name"`
	Scores     ScoreVector `json:"scores"`
	Timestamp  time.Time   `json:"timestamp,omitempty"`
	Embedding  []float32   `json:"-"`
	Faces      [][]float32 `json:"-"`
	Hash       uint64      `json:"hash,omitempty"`
	HasHash    bool        `json:"-"`
	ModifiedAt string      `json:"modified_at"`
}

// HasTimestamp reports whether a capture timestamp was extracted.
func (i *Image) HasTimestamp() bool {
	return !i.Timestamp.IsZero()
}

// DuplicateGroup is an ordered set of image names believed to show the same
// scene or subject. Groups emitted by one grouping pass are pairwise
// disjoint and cover the whole input set, singletons included.
type DuplicateGroup struct {
	Members []string
}

// CullStats summarizes one pipeline run for the final report.
type CullStats struct {
	Strategy      string
	Threshold     float64
	TotalImages   int
	DuplicateSets int
	Duplicates    int
	Culled        int
	Kept          int
}

// PercentCulled returns the culled share of the input, 0 for empty input.
func (s CullStats) PercentCulled() float64 {
	if s.TotalImages == 0 {
		return 0
	}
	return float64(s.Culled) / float64(s.TotalImages) * 100
}
