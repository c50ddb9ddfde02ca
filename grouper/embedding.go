package grouper

import (
	"context"
	"math"
	"sync"

	"imageculler/logging"
	"imageculler/types"
)

// EmbeddingStrategy groups images whose feature-vector cosine similarity
// exceeds a threshold. The threshold is a precision/recall knob: the
// "precise" operating point (0.93) detects more duplicates than the
// looser "fast" one (0.96).
type EmbeddingStrategy struct {
	StrategyName string
	Threshold    float64
	Workers      int
}

func (s *EmbeddingStrategy) Name() string { return s.StrategyName }

// pairEdge is one above-threshold similarity result from the fan-out.
type pairEdge struct {
	i, j int
}

// Group builds an undirected similarity graph over all unordered image
// pairs and emits its connected components, singletons included.
func (s *EmbeddingStrategy) Group(ctx context.Context, images []*types.Image) ([]types.DuplicateGroup, error) {
	if len(images) == 0 {
		return nil, nil
	}

	for _, img := range images {
		if len(img.Embedding) == 0 {
			return nil, types.ConfigErrorf("image %s has no embedding, required by strategy %s", img.Name, s.StrategyName)
		}
	}

	edges, err := s.collectEdges(ctx, images)
	if err != nil {
		return nil, err
	}

	adj := make([][]int, len(images))
	for _, e := range edges {
		adj[e.i] = append(adj[e.i], e.j)
		adj[e.j] = append(adj[e.j], e.i)
	}

	var groups []types.DuplicateGroup
	for _, component := range connectedComponents(len(images), adj) {
		members := make([]string, len(component))
		for k, idx := range component {
			members[k] = images[idx].Name
		}
		groups = append(groups, types.DuplicateGroup{Members: members})
	}

	logging.DebugLog("Embedding grouping (%s, threshold %.2f): %d images into %d groups",
		s.StrategyName, s.Threshold, len(images), len(groups))

	return groups, nil
}

// collectEdges fans the O(n^2) pairwise comparisons out across a bounded
// worker pool and reduces the results single-threaded. Cancellation stops
// new comparisons and reports failure instead of a partial graph.
func (s *EmbeddingStrategy) collectEdges(ctx context.Context, images []*types.Image) ([]pairEdge, error) {
	workers := s.Workers
	if workers < 1 {
		workers = 4
	}

	var wg sync.WaitGroup
	resultsChan := make(chan pairEdge, 100)
	semaphore := make(chan struct{}, workers)

	done := make(chan struct{})
	var edges []pairEdge
	go func() {
		for e := range resultsChan {
			edges = append(edges, e)
		}
		close(done)
	}()

	var cancelled bool
	for i := 0; i < len(images) && !cancelled; i++ {
		for j := i + 1; j < len(images); j++ {
			select {
			case <-ctx.Done():
				cancelled = true
			case semaphore <- struct{}{}:
				wg.Add(1)
				go func(i, j int) {
					defer wg.Done()
					defer func() { <-semaphore }()

					if s.isDuplicatePair(images[i], images[j]) {
						resultsChan <- pairEdge{i: i, j: j}
					}
				}(i, j)
			}
			if cancelled {
				break
			}
		}
	}

	wg.Wait()
	close(resultsChan)
	<-done

	if cancelled {
		return nil, ctx.Err()
	}
	return edges, nil
}

// isDuplicatePair reports whether two images sit above the similarity
// threshold. Identical perceptual hashes short-circuit the comparison:
// cosine similarity of identical content is 1.0, above any threshold.
func (s *EmbeddingStrategy) isDuplicatePair(a, b *types.Image) bool {
	if a.HasHash && b.HasHash && a.Hash == b.Hash {
		return true
	}
	return CosineSimilarity(a.Embedding, b.Embedding) > s.Threshold
}

// CosineSimilarity computes the cosine of the angle between two feature
// vectors. Mismatched lengths or zero vectors yield 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for k := range a {
		dot += float64(a[k]) * float64(b[k])
		normA += float64(a[k]) * float64(a[k])
		normB += float64(b[k]) * float64(b[k])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
