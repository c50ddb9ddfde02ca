package features

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"imageculler/config"
	"imageculler/database"
	"imageculler/logging"
	"imageculler/types"
)

// Needs describes which features the configured grouping strategy
// requires beyond the always-required aesthetic scores.
type Needs struct {
	Embeddings bool
	Faces      bool
	Timestamps bool
	Hashes     bool
}

// NeedsFor maps a strategy name to the features it requires.
func NeedsFor(strategy string) Needs {
	switch strategy {
	case config.StrategyEmbeddingFast, config.StrategyEmbeddingPrecise:
		return Needs{Embeddings: true, Hashes: true}
	case config.StrategyFaceRefined:
		return Needs{Embeddings: true, Faces: true, Hashes: true}
	case config.StrategyTemporalBurst:
		return Needs{Timestamps: true}
	default:
		return Needs{}
	}
}

// Extractor builds the per-run image set: it fans feature extraction out
// across a bounded worker pool and returns images in directory-listing
// order. It implements the pipeline's FeatureProvider contract.
type Extractor struct {
	dir        string
	names      []string
	workers    int
	needs      Needs
	cache      *database.FeatureCache
	scorer     *AestheticScorer
	embedder   *Embedder
	faces      *FaceExtractor
	timestamps *TimestampReader
}

// NewExtractor loads the models the strategy needs. Model loading
// failures surface here, before any stage runs. cache may be nil.
func NewExtractor(cfg config.Config, names []string, cache *database.FeatureCache) (*Extractor, error) {
	needs := NeedsFor(cfg.Strategy)

	e := &Extractor{
		dir:     cfg.SourceDir,
		names:   names,
		workers: cfg.Workers,
		needs:   needs,
		cache:   cache,
	}
	if e.workers < 1 {
		e.workers = 4
	}

	scorer, err := NewAestheticScorer(cfg.Models.Scorer)
	if err != nil {
		return nil, err
	}
	e.scorer = scorer

	if needs.Embeddings {
		embedder, err := NewEmbedder(cfg.Models.Embedder)
		if err != nil {
			e.Close()
			return nil, err
		}
		e.embedder = embedder
	}

	if needs.Faces {
		faces, err := NewFaceExtractor(cfg.Models.FaceDetector, cfg.Models.FaceRecognizer)
		if err != nil {
			e.Close()
			return nil, err
		}
		e.faces = faces
	}

	if needs.Timestamps {
		e.timestamps = NewTimestampReader()
	}

	return e, nil
}

// Close releases the loaded models.
func (e *Extractor) Close() {
	if e.scorer != nil {
		e.scorer.Close()
	}
	if e.embedder != nil {
		e.embedder.Close()
	}
	if e.faces != nil {
		e.faces.Close()
	}
	if e.timestamps != nil {
		e.timestamps.Close()
	}
}

// outcome is one worker result fed back to the tracker.
type outcome struct {
	idx int
	img *types.Image
	err error
}

// Extract scores every image and collects the strategy's features,
// preserving input order. Any provider failure aborts extraction; skipping
// images silently would bias the score-based selection downstream.
func (e *Extractor) Extract(ctx context.Context) ([]*types.Image, error) {
	if len(e.names) == 0 {
		return nil, nil
	}

	fmt.Printf("Scoring images...\n")
	startTime := time.Now()

	results := make([]*types.Image, len(e.names))
	var wg sync.WaitGroup
	resultsChan := make(chan outcome, 100)
	semaphore := make(chan struct{}, e.workers)

	tracker := newProgressTracker(len(e.names))
	defer tracker.stop()

	done := make(chan struct{})
	var firstErr error
	go func() {
		for res := range resultsChan {
			if res.err != nil {
				if firstErr == nil {
					firstErr = res.err
				}
				tracker.record(false)
				logging.LogFeatureExtracted(e.names[res.idx], false, res.err.Error())
			} else {
				results[res.idx] = res.img
				tracker.record(true)
				logging.LogFeatureExtracted(e.names[res.idx], true, "")
			}
		}
		close(done)
	}()

	var cancelled bool
	for i := range e.names {
		select {
		case <-ctx.Done():
			cancelled = true
		case semaphore <- struct{}{}:
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				defer func() { <-semaphore }()

				img, err := e.extractOne(e.names[idx])
				resultsChan <- outcome{idx: idx, img: img, err: err}
			}(i)
		}
		if cancelled {
			break
		}
	}

	wg.Wait()
	close(resultsChan)
	<-done

	if cancelled {
		return nil, ctx.Err()
	}
	if firstErr != nil {
		return nil, firstErr
	}

	fmt.Printf("\nDone scoring images in %v.\n", time.Since(startTime).Round(time.Second))
	return results, nil
}

// extractOne collects all needed features for a single image, consulting
// the cache first.
func (e *Extractor) extractOne(name string) (*types.Image, error) {
	path := filepath.Join(e.dir, name)

	fileInfo, err := os.Stat(path)
	if err != nil {
		return nil, &types.ProviderError{Op: "load", Image: name, Err: err}
	}
	modifiedAt := fileInfo.ModTime().Format(time.RFC3339)

	if e.cache != nil {
		if img, ok := e.cache.Lookup(path, name, modifiedAt); ok && e.covers(img) {
			logging.DebugLog("Feature cache hit for %s", name)
			return img, nil
		}
	}

	img := &types.Image{Name: name, ModifiedAt: modifiedAt}

	mat, err := LoadImage(path)
	if err != nil {
		return nil, &types.ProviderError{Op: "load", Image: name, Err: err}
	}
	defer mat.Close()

	if img.Scores, err = e.scorer.Score(mat); err != nil {
		return nil, &types.ProviderError{Op: "score", Image: name, Err: err}
	}

	if e.needs.Embeddings {
		if img.Embedding, err = e.embedder.Embed(mat); err != nil {
			return nil, &types.ProviderError{Op: "embed", Image: name, Err: err}
		}
	}

	if e.needs.Faces {
		if img.Faces, err = e.faces.Encodings(mat); err != nil {
			return nil, &types.ProviderError{Op: "faces", Image: name, Err: err}
		}
	}

	if e.needs.Timestamps {
		ts, err := e.timestamps.CaptureTime(path)
		if err != nil {
			return nil, &types.ProviderError{Op: "timestamp", Image: name, Err: err}
		}
		img.Timestamp = ts
	}

	if e.needs.Hashes {
		img.Hash, img.HasHash = DifferenceHash(path)
	}

	if e.cache != nil {
		if err := e.cache.Store(path, img, e.needs.Faces); err != nil {
			logging.LogWarning("Cannot cache features for %s: %v", name, err)
		}
	}

	return img, nil
}

// covers reports whether a cached image satisfies the run's needs.
// Hashes are best-effort and never force re-extraction. An image whose
// EXIF genuinely lacks a timestamp is re-extracted each run; the cache
// cannot tell absent from never-read.
func (e *Extractor) covers(img *types.Image) bool {
	if e.needs.Embeddings && len(img.Embedding) == 0 {
		return false
	}
	if e.needs.Faces && img.Faces == nil {
		return false
	}
	if e.needs.Timestamps && !img.HasTimestamp() {
		return false
	}
	return true
}
