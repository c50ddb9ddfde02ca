package grouper

import (
	"context"
	"math"

	"imageculler/logging"
	"imageculler/types"
)

// FaceRefinedStrategy first groups by embedding similarity at the precise
// threshold, then splits each candidate group by face identity. This keeps
// similarly-composed images of different people from collapsing into one
// group.
type FaceRefinedStrategy struct {
	Embedding        EmbeddingStrategy
	Tolerance        float64
	MaxFaceCountDiff int
}

func (s *FaceRefinedStrategy) Name() string { return "face-refined" }

// Group partitions the input set. Multi-member refined sets survive as
// duplicate groups; every image not claimed by one becomes a singleton,
// so the partition invariant holds for the whole input.
func (s *FaceRefinedStrategy) Group(ctx context.Context, images []*types.Image) ([]types.DuplicateGroup, error) {
	candidates, err := s.Embedding.Group(ctx, images)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]*types.Image, len(images))
	for _, img := range images {
		byName[img.Name] = img
	}

	grouped := make(map[string]bool, len(images))
	var groups []types.DuplicateGroup

	for _, candidate := range candidates {
		if len(candidate.Members) < 2 {
			continue
		}

		members := make([]*types.Image, len(candidate.Members))
		for k, name := range candidate.Members {
			members[k] = byName[name]
		}

		for _, refined := range s.refineByFaces(members) {
			if len(refined.Members) < 2 {
				continue
			}
			for _, name := range refined.Members {
				grouped[name] = true
			}
			groups = append(groups, refined)
		}
	}

	// Everything not claimed by a refined set is a singleton.
	for _, img := range images {
		if !grouped[img.Name] {
			groups = append(groups, types.DuplicateGroup{Members: []string{img.Name}})
		}
	}

	logging.DebugLog("Face refinement: %d images into %d groups", len(images), len(groups))

	return groups, nil
}

// refineByFaces builds a face-identity adjacency inside one candidate
// group and extracts its connected sets.
//
// The match predicate is not symmetric: A matching B does not imply B
// matching A when face counts differ. The adjacency is therefore directed
// and traversal follows each image's own outgoing matches only; the
// resulting sets are deliberately not symmetrized.
func (s *FaceRefinedStrategy) refineByFaces(members []*types.Image) []types.DuplicateGroup {
	n := len(members)
	adj := make([][]int, n)

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}

			// Face counts too far apart: not the same set of people.
			diff := len(members[i].Faces) - len(members[j].Faces)
			if diff < 0 {
				diff = -diff
			}
			if diff > s.MaxFaceCountDiff {
				continue
			}

			if s.facesMatch(members[i].Faces, members[j].Faces) {
				adj[i] = append(adj[i], j)
			}
		}
	}

	var groups []types.DuplicateGroup
	for _, component := range connectedComponents(n, adj) {
		names := make([]string, len(component))
		for k, idx := range component {
			names[k] = members[idx].Name
		}
		groups = append(groups, types.DuplicateGroup{Members: names})
	}

	return groups
}

// facesMatch reports whether every face encoding in a has at least one
// encoding in b within the distance tolerance. An image with no detected
// faces matches vacuously.
func (s *FaceRefinedStrategy) facesMatch(a, b [][]float32) bool {
	for _, encA := range a {
		matched := false
		for _, encB := range b {
			if EncodingDistance(encA, encB) <= s.Tolerance {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

// EncodingDistance is the Euclidean distance between two face encodings.
// Mismatched lengths are treated as maximally distant.
func EncodingDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(1)
	}

	var sum float64
	for k := range a {
		d := float64(a[k]) - float64(b[k])
		sum += d * d
	}
	return math.Sqrt(sum)
}
