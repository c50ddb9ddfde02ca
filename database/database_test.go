package database

import (
	"path/filepath"
	"testing"
	"time"

	"imageculler/types"
)

func openTestCache(t *testing.T) *FeatureCache {
	t.Helper()

	cache, err := Open(filepath.Join(t.TempDir(), "features.db"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { cache.Close() })
	return cache
}

func TestStoreAndLookup(t *testing.T) {
	t.Parallel()

	cache := openTestCache(t)

	img := &types.Image{
		Name:       "a.jpg",
		ModifiedAt: "2024-06-01T12:00:00Z",
		Scores: types.ScoreVector{
			Overall: 7.5, Quality: 8, Composition: 6.5,
			Lighting: 7, Color: 6, DepthOfField: 5.5, Content: 7,
		},
		Embedding: []float32{0.25, -1.5, 3},
		Faces:     [][]float32{{1, 2}, {3, 4}},
		Hash:      0xabc123,
		HasHash:   true,
		Timestamp: time.Date(2024, 6, 1, 11, 58, 0, 0, time.UTC),
	}

	if err := cache.Store("/photos/a.jpg", img, true); err != nil {
		t.Fatalf("Store() error: %v", err)
	}

	got, ok := cache.Lookup("/photos/a.jpg", "a.jpg", img.ModifiedAt)
	if !ok {
		t.Fatal("Lookup() missed a freshly stored row")
	}

	if got.Scores != img.Scores {
		t.Errorf("scores = %+v, want %+v", got.Scores, img.Scores)
	}
	if len(got.Embedding) != 3 || got.Embedding[0] != 0.25 || got.Embedding[1] != -1.5 || got.Embedding[2] != 3 {
		t.Errorf("embedding = %v, want %v", got.Embedding, img.Embedding)
	}
	if len(got.Faces) != 2 || got.Faces[1][1] != 4 {
		t.Errorf("faces = %v, want %v", got.Faces, img.Faces)
	}
	if !got.HasHash || got.Hash != img.Hash {
		t.Errorf("hash = %x/%v, want %x/true", got.Hash, got.HasHash, img.Hash)
	}
	if !got.Timestamp.Equal(img.Timestamp) {
		t.Errorf("timestamp = %v, want %v", got.Timestamp, img.Timestamp)
	}
}

func TestLookupStaleModTime(t *testing.T) {
	t.Parallel()

	cache := openTestCache(t)

	img := &types.Image{Name: "a.jpg", ModifiedAt: "2024-06-01T12:00:00Z"}
	if err := cache.Store("/photos/a.jpg", img, false); err != nil {
		t.Fatalf("Store() error: %v", err)
	}

	if _, ok := cache.Lookup("/photos/a.jpg", "a.jpg", "2024-06-02T08:00:00Z"); ok {
		t.Error("Lookup() hit despite changed modification time")
	}
}

func TestLookupUnknownPath(t *testing.T) {
	t.Parallel()

	cache := openTestCache(t)
	if _, ok := cache.Lookup("/photos/never-seen.jpg", "never-seen.jpg", "x"); ok {
		t.Error("Lookup() hit for a path never stored")
	}
}

func TestLookupDistinguishesEmptyFaces(t *testing.T) {
	t.Parallel()

	cache := openTestCache(t)

	// Faces extracted, none found: the row records an empty set, not an
	// absent one.
	withEmpty := &types.Image{Name: "empty.jpg", ModifiedAt: "m1", Faces: [][]float32{}}
	if err := cache.Store("/p/empty.jpg", withEmpty, true); err != nil {
		t.Fatalf("Store() error: %v", err)
	}

	got, ok := cache.Lookup("/p/empty.jpg", "empty.jpg", "m1")
	if !ok {
		t.Fatal("Lookup() missed")
	}
	if got.Faces == nil {
		t.Error("extracted-but-empty faces came back nil")
	}

	// Faces never extracted: absent stays absent.
	without := &types.Image{Name: "plain.jpg", ModifiedAt: "m1"}
	if err := cache.Store("/p/plain.jpg", without, false); err != nil {
		t.Fatalf("Store() error: %v", err)
	}

	got, ok = cache.Lookup("/p/plain.jpg", "plain.jpg", "m1")
	if !ok {
		t.Fatal("Lookup() missed")
	}
	if got.Faces != nil {
		t.Errorf("unextracted faces came back as %v", got.Faces)
	}
}

func TestStoreReplaces(t *testing.T) {
	t.Parallel()

	cache := openTestCache(t)

	first := &types.Image{Name: "a.jpg", ModifiedAt: "m1", Scores: types.ScoreVector{Quality: 3}}
	if err := cache.Store("/p/a.jpg", first, false); err != nil {
		t.Fatalf("Store() error: %v", err)
	}

	second := &types.Image{Name: "a.jpg", ModifiedAt: "m2", Scores: types.ScoreVector{Quality: 9}}
	if err := cache.Store("/p/a.jpg", second, false); err != nil {
		t.Fatalf("Store() error: %v", err)
	}

	got, ok := cache.Lookup("/p/a.jpg", "a.jpg", "m2")
	if !ok {
		t.Fatal("Lookup() missed replaced row")
	}
	if got.Scores.Quality != 9 {
		t.Errorf("quality = %v, want replacement value 9", got.Scores.Quality)
	}

	stats, err := cache.Stats()
	if err != nil {
		t.Fatalf("Stats() error: %v", err)
	}
	if stats.TotalRows != 1 {
		t.Errorf("total rows = %d, want 1 after replace", stats.TotalRows)
	}
}

func TestVectorRoundTrip(t *testing.T) {
	t.Parallel()

	in := []float32{0, 1, -1, 0.5, 3.14159, -2.71828}
	out := decodeVector(encodeVector(in))

	if len(out) != len(in) {
		t.Fatalf("round trip length = %d, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("out[%d] = %v, want %v", i, out[i], in[i])
		}
	}

	// Trailing partial values are dropped, not misread.
	buf := encodeVector(in)
	if got := decodeVector(buf[:len(buf)-2]); len(got) != len(in)-1 {
		t.Errorf("truncated blob decoded %d values, want %d", len(got), len(in)-1)
	}
}
