// Package database caches extracted image features in sqlite so re-runs
// over unchanged files skip model inference. The decision engine itself
// never reads the cache; only the feature extraction layer does.
package database

import (
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"imageculler/logging"
	"imageculler/types"
)

// FeatureCache is a sqlite-backed store of per-image features keyed by
// (path, modification time). A stale modification time invalidates the row.
type FeatureCache struct {
	db *sql.DB
}

// Open initializes the cache database, creating the schema if needed.
func Open(dbPath string) (*FeatureCache, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS features (
		path TEXT PRIMARY KEY,
		modified_at TEXT NOT NULL,
		scores TEXT NOT NULL,
		embedding BLOB,
		faces TEXT,
		hash INTEGER,
		has_hash INTEGER NOT NULL DEFAULT 0,
		captured_at TEXT,
		cached_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_modified_at ON features(modified_at);`

	if _, err = db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot create feature cache schema: %v", err)
	}

	return &FeatureCache{db: db}, nil
}

// Close releases the underlying database handle.
func (c *FeatureCache) Close() error {
	return c.db.Close()
}

// Lookup returns the cached image for path if the stored row matches the
// current modification time. The second return reports a usable hit.
// Corrupt rows are treated as misses, never as errors: the extractor just
// recomputes.
func (c *FeatureCache) Lookup(path, name, modifiedAt string) (*types.Image, bool) {
	var (
		storedModTime string
		scoresJSON    string
		embedding     []byte
		facesJSON     sql.NullString
		hash          sql.NullInt64
		hasHash       int
		capturedAt    sql.NullString
	)

	err := c.db.QueryRow(
		`SELECT modified_at, scores, embedding, faces, hash, has_hash, captured_at
		 FROM features WHERE path = ?`, path).
		Scan(&storedModTime, &scoresJSON, &embedding, &facesJSON, &hash, &hasHash, &capturedAt)
	if err != nil {
		if err != sql.ErrNoRows {
			logging.LogWarning("Feature cache read failed for %s: %v", path, err)
		}
		return nil, false
	}

	if storedModTime != modifiedAt {
		return nil, false
	}

	img := &types.Image{Name: name, ModifiedAt: modifiedAt}

	if err := json.Unmarshal([]byte(scoresJSON), &img.Scores); err != nil {
		logging.LogWarning("Feature cache has corrupt scores for %s: %v", path, err)
		return nil, false
	}

	if len(embedding) > 0 {
		img.Embedding = decodeVector(embedding)
	}

	if facesJSON.Valid {
		if err := json.Unmarshal([]byte(facesJSON.String), &img.Faces); err != nil {
			logging.LogWarning("Feature cache has corrupt face encodings for %s: %v", path, err)
			return nil, false
		}
		if img.Faces == nil {
			img.Faces = [][]float32{}
		}
	}

	if hasHash != 0 && hash.Valid {
		img.Hash = uint64(hash.Int64)
		img.HasHash = true
	}

	if capturedAt.Valid && capturedAt.String != "" {
		if ts, err := time.Parse(time.RFC3339, capturedAt.String); err == nil {
			img.Timestamp = ts
		}
	}

	return img, true
}

// Store writes or replaces the cached features for path.
func (c *FeatureCache) Store(path string, img *types.Image, facesExtracted bool) error {
	scoresJSON, err := json.Marshal(img.Scores)
	if err != nil {
		return fmt.Errorf("cannot encode scores for %s: %v", path, err)
	}

	var facesJSON interface{}
	if facesExtracted {
		data, err := json.Marshal(img.Faces)
		if err != nil {
			return fmt.Errorf("cannot encode face encodings for %s: %v", path, err)
		}
		facesJSON = string(data)
	}

	var embedding interface{}
	if len(img.Embedding) > 0 {
		embedding = encodeVector(img.Embedding)
	}

	var capturedAt interface{}
	if img.HasTimestamp() {
		capturedAt = img.Timestamp.Format(time.RFC3339)
	}

	hasHash := 0
	if img.HasHash {
		hasHash = 1
	}

	stmt, err := c.db.Prepare(`
		INSERT OR REPLACE INTO features (
			path, modified_at, scores, embedding, faces, hash, has_hash, captured_at, cached_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("cannot prepare cache statement for %s: %v", path, err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(
		path,
		img.ModifiedAt,
		string(scoresJSON),
		embedding,
		facesJSON,
		int64(img.Hash),
		hasHash,
		capturedAt,
		time.Now().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("cannot cache features for %s: %v", path, err)
	}

	return nil
}

// CacheStats contains statistics about the feature cache contents.
type CacheStats struct {
	TotalRows    int
	WithFaces    int
	WithCaptured int
}

// Stats retrieves counts about the cached features.
func (c *FeatureCache) Stats() (*CacheStats, error) {
	var stats CacheStats

	if err := c.db.QueryRow("SELECT COUNT(*) FROM features").Scan(&stats.TotalRows); err != nil {
		return nil, fmt.Errorf("failed to count cached features: %v", err)
	}
	if err := c.db.QueryRow("SELECT COUNT(*) FROM features WHERE faces IS NOT NULL").Scan(&stats.WithFaces); err != nil {
		return nil, fmt.Errorf("failed to count cached face sets: %v", err)
	}
	if err := c.db.QueryRow("SELECT COUNT(*) FROM features WHERE captured_at IS NOT NULL").Scan(&stats.WithCaptured); err != nil {
		return nil, fmt.Errorf("failed to count cached timestamps: %v", err)
	}

	return &stats, nil
}

// encodeVector packs a feature vector as little-endian float32 bits.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// decodeVector unpacks a little-endian float32 blob. Trailing partial
// values are dropped.
func decodeVector(buf []byte) []float32 {
	v := make([]float32, 0, len(buf)/4)
	for i := 0; i+4 <= len(buf); i += 4 {
		v = append(v, math.Float32frombits(binary.LittleEndian.Uint32(buf[i:])))
	}
	return v
}
