// Package grouper partitions an image set into duplicate groups using one
// of three interchangeable similarity signals: embedding distance, face
// identity, or capture-time bursts.
package grouper

import (
	"context"

	"imageculler/config"
	"imageculler/types"
)

// Strategy is one duplicate-grouping algorithm. Group returns a partition
// of the input: every image appears in exactly one group, images with no
// match form singleton groups. An empty input yields an empty partition.
type Strategy interface {
	Name() string
	Group(ctx context.Context, images []*types.Image) ([]types.DuplicateGroup, error)
}

// New selects the strategy named in the configuration.
func New(cfg config.Config) (Strategy, error) {
	switch cfg.Strategy {
	case config.StrategyEmbeddingFast:
		return &EmbeddingStrategy{
			StrategyName: cfg.Strategy,
			Threshold:    cfg.Thresholds.Fast,
			Workers:      cfg.Workers,
		}, nil
	case config.StrategyEmbeddingPrecise:
		return &EmbeddingStrategy{
			StrategyName: cfg.Strategy,
			Threshold:    cfg.Thresholds.Precise,
			Workers:      cfg.Workers,
		}, nil
	case config.StrategyFaceRefined:
		return &FaceRefinedStrategy{
			Embedding: EmbeddingStrategy{
				StrategyName: config.StrategyEmbeddingPrecise,
				Threshold:    cfg.Thresholds.Precise,
				Workers:      cfg.Workers,
			},
			Tolerance:        cfg.Thresholds.FaceTolerance,
			MaxFaceCountDiff: cfg.Thresholds.MaxFaceCountDiff,
		}, nil
	case config.StrategyTemporalBurst:
		return &TemporalStrategy{Window: cfg.Thresholds.BurstWindowSec}, nil
	default:
		return nil, types.ConfigErrorf("unknown grouping strategy %q", cfg.Strategy)
	}
}

// indexByName maps image names back to their position in the input slice.
func indexByName(images []*types.Image) map[string]int {
	idx := make(map[string]int, len(images))
	for i, img := range images {
		idx[img.Name] = i
	}
	return idx
}
