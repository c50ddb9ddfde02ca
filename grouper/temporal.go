package grouper

import (
	"context"
	"sort"
	"time"

	"imageculler/logging"
	"imageculler/types"
)

// TemporalStrategy groups images shot in quick succession ("bursts").
// Window is the maximum gap, in seconds, between consecutive captures of
// one burst.
type TemporalStrategy struct {
	Window float64
}

func (s *TemporalStrategy) Name() string { return "temporal-burst" }

// Group sorts images by capture time and chains consecutive captures into
// bursts. Gaps chain: each image only has to fall within the window of the
// image before it, so a burst can span more than one window in total.
// Every image must carry a timestamp; singleton bursts are emitted too.
func (s *TemporalStrategy) Group(ctx context.Context, images []*types.Image) ([]types.DuplicateGroup, error) {
	if len(images) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, img := range images {
		if !img.HasTimestamp() {
			return nil, types.ConfigErrorf("image %s has no capture timestamp, required by strategy temporal-burst", img.Name)
		}
	}

	sorted := make([]*types.Image, len(images))
	copy(sorted, images)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	window := time.Duration(s.Window * float64(time.Second))

	var groups []types.DuplicateGroup
	current := types.DuplicateGroup{Members: []string{sorted[0].Name}}
	prev := sorted[0].Timestamp

	for _, img := range sorted[1:] {
		if img.Timestamp.Sub(prev) > window {
			groups = append(groups, current)
			current = types.DuplicateGroup{Members: []string{img.Name}}
		} else {
			current.Members = append(current.Members, img.Name)
		}
		prev = img.Timestamp
	}
	groups = append(groups, current)

	logging.DebugLog("Temporal grouping (%.1fs window): %d images into %d bursts", s.Window, len(images), len(groups))

	return groups, nil
}
