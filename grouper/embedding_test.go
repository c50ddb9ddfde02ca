package grouper

import (
	"context"
	"errors"
	"math"
	"testing"

	"imageculler/types"
)

func embImage(name string, embedding ...float32) *types.Image {
	return &types.Image{Name: name, Embedding: embedding}
}

func groupMembers(groups []types.DuplicateGroup) [][]string {
	out := make([][]string, len(groups))
	for i, g := range groups {
		out[i] = g.Members
	}
	return out
}

// assertPartition checks that every input image lands in exactly one group.
func assertPartition(t *testing.T, images []*types.Image, groups []types.DuplicateGroup) {
	t.Helper()

	seen := make(map[string]int)
	for _, g := range groups {
		for _, name := range g.Members {
			seen[name]++
		}
	}
	for _, img := range images {
		if seen[img.Name] != 1 {
			t.Errorf("image %s appears in %d groups, want 1", img.Name, seen[img.Name])
		}
	}
	if len(seen) != len(images) {
		t.Errorf("partition covers %d images, want %d", len(seen), len(images))
	}
}

func TestEmbeddingGroup(t *testing.T) {
	t.Parallel()

	// a and b point almost the same way, c is orthogonal to both.
	images := []*types.Image{
		embImage("a.jpg", 1, 0, 0),
		embImage("b.jpg", 1, 0.1, 0),
		embImage("c.jpg", 0, 0, 1),
	}

	s := &EmbeddingStrategy{StrategyName: "embedding-precise", Threshold: 0.93, Workers: 2}
	groups, err := s.Group(context.Background(), images)
	if err != nil {
		t.Fatalf("Group() error: %v", err)
	}

	assertPartition(t, images, groups)
	if len(groups) != 2 {
		t.Fatalf("groups = %v, want {a,b} and {c}", groupMembers(groups))
	}
	if len(groups[0].Members) != 2 || groups[0].Members[0] != "a.jpg" || groups[0].Members[1] != "b.jpg" {
		t.Errorf("first group = %v, want [a.jpg b.jpg]", groups[0].Members)
	}
	if len(groups[1].Members) != 1 || groups[1].Members[0] != "c.jpg" {
		t.Errorf("second group = %v, want [c.jpg]", groups[1].Members)
	}
}

func TestEmbeddingGroupThreshold(t *testing.T) {
	t.Parallel()

	// cos([1 0], [1 1]) is about 0.707: below the precise threshold but
	// above a permissive one.
	images := []*types.Image{
		embImage("a.jpg", 1, 0),
		embImage("b.jpg", 1, 1),
	}

	strict := &EmbeddingStrategy{StrategyName: "embedding-precise", Threshold: 0.93}
	groups, err := strict.Group(context.Background(), images)
	if err != nil {
		t.Fatalf("Group() error: %v", err)
	}
	if len(groups) != 2 {
		t.Errorf("strict threshold grouped %v, want singletons", groupMembers(groups))
	}

	loose := &EmbeddingStrategy{StrategyName: "embedding-fast", Threshold: 0.5}
	groups, err = loose.Group(context.Background(), images)
	if err != nil {
		t.Fatalf("Group() error: %v", err)
	}
	if len(groups) != 1 {
		t.Errorf("loose threshold produced %v, want one group", groupMembers(groups))
	}
}

func TestEmbeddingGroupTransitiveChain(t *testing.T) {
	t.Parallel()

	// a~b and b~c suffice: a and c share a group even if a and c alone
	// would not cross the threshold.
	images := []*types.Image{
		embImage("a.jpg", 1, 0),
		embImage("b.jpg", 1, 0.3),
		embImage("c.jpg", 1, 0.6),
	}

	s := &EmbeddingStrategy{Threshold: 0.95}
	groups, err := s.Group(context.Background(), images)
	if err != nil {
		t.Fatalf("Group() error: %v", err)
	}

	assertPartition(t, images, groups)
	if len(groups) != 1 || len(groups[0].Members) != 3 {
		t.Errorf("groups = %v, want one chained group of 3", groupMembers(groups))
	}
}

func TestEmbeddingGroupHashShortCircuit(t *testing.T) {
	t.Parallel()

	// Orthogonal embeddings would never group, but identical perceptual
	// hashes force the pair.
	a := embImage("a.jpg", 1, 0)
	b := embImage("b.jpg", 0, 1)
	a.Hash, a.HasHash = 0xdeadbeef, true
	b.Hash, b.HasHash = 0xdeadbeef, true

	s := &EmbeddingStrategy{Threshold: 0.93}
	groups, err := s.Group(context.Background(), []*types.Image{a, b})
	if err != nil {
		t.Fatalf("Group() error: %v", err)
	}
	if len(groups) != 1 || len(groups[0].Members) != 2 {
		t.Errorf("groups = %v, want one group from equal hashes", groupMembers(groups))
	}
}

func TestEmbeddingGroupMissingEmbedding(t *testing.T) {
	t.Parallel()

	images := []*types.Image{
		embImage("a.jpg", 1, 0),
		{Name: "b.jpg"},
	}

	s := &EmbeddingStrategy{StrategyName: "embedding-precise", Threshold: 0.93}
	if _, err := s.Group(context.Background(), images); !errors.Is(err, types.ErrConfiguration) {
		t.Errorf("Group() error = %v, want configuration error", err)
	}
}

func TestEmbeddingGroupEmptyInput(t *testing.T) {
	t.Parallel()

	s := &EmbeddingStrategy{Threshold: 0.93}
	groups, err := s.Group(context.Background(), nil)
	if err != nil {
		t.Fatalf("Group() error: %v", err)
	}
	if len(groups) != 0 {
		t.Errorf("empty input produced %v", groupMembers(groups))
	}
}

func TestEmbeddingGroupCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Enough pairs that the fan-out is certain to observe the cancelled
	// context.
	var images []*types.Image
	for i := 0; i < 64; i++ {
		images = append(images, embImage(string(rune('a'+i%26))+".jpg", float32(i+1), 1))
	}

	s := &EmbeddingStrategy{Threshold: 0.93, Workers: 1}
	if _, err := s.Group(ctx, images); !errors.Is(err, context.Canceled) {
		t.Errorf("Group() error = %v, want context.Canceled", err)
	}
}

func TestCosineSimilarity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{name: "identical vectors", a: []float32{1, 2, 3}, b: []float32{1, 2, 3}, want: 1},
		{name: "orthogonal vectors", a: []float32{1, 0}, b: []float32{0, 1}, want: 0},
		{name: "opposite vectors", a: []float32{1, 0}, b: []float32{-1, 0}, want: -1},
		{name: "scaling is irrelevant", a: []float32{1, 1}, b: []float32{5, 5}, want: 1},
		{name: "mismatched lengths", a: []float32{1, 0}, b: []float32{1, 0, 0}, want: 0},
		{name: "zero vector", a: []float32{0, 0}, b: []float32{1, 0}, want: 0},
		{name: "empty vectors", a: nil, b: nil, want: 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := CosineSimilarity(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CosineSimilarity(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
