package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"imageculler/types"
)

// Strategy names accepted on the command line and in the config file.
const (
	StrategyEmbeddingFast    = "embedding-fast"
	StrategyEmbeddingPrecise = "embedding-precise"
	StrategyFaceRefined      = "face-refined"
	StrategyTemporalBurst    = "temporal-burst"
)

// Default duplicate-detection operating points. Higher means stricter
// matching and therefore fewer duplicates detected.
const (
	DefaultPreciseThreshold = 0.93
	DefaultFastThreshold    = 0.96
	DefaultFaceTolerance    = 0.5
	DefaultBurstWindowSec   = 1.0
	DefaultMaxFaceCountDiff = 2
)

// Thresholds contains the tunable knobs of the grouping strategies.
type Thresholds struct {
	Precise          float64 `toml:"precise"`
	Fast             float64 `toml:"fast"`
	FaceTolerance    float64 `toml:"face_tolerance"`
	BurstWindowSec   float64 `toml:"burst_window_sec"`
	MaxFaceCountDiff int     `toml:"max_face_count_diff"`
}

// Models contains paths to the ONNX model files the providers load.
type Models struct {
	Scorer         string `toml:"scorer"`
	Embedder       string `toml:"embedder"`
	FaceDetector   string `toml:"face_detector"`
	FaceRecognizer string `toml:"face_recognizer"`
}

// Output contains the export directories for kept, culled, and
// duplicate-set audit copies.
type Output struct {
	KeptDir          string `toml:"kept_dir"`
	CulledDir        string `toml:"culled_dir"`
	DuplicateSetsDir string `toml:"duplicate_sets_dir"`
	Numbered         bool   `toml:"numbered"`
}

// Bucket contains S3-compatible transfer settings. Credentials come from
// the environment, never from the config file.
type Bucket struct {
	Endpoint       string `toml:"endpoint"`
	UseSSL         bool   `toml:"use_ssl"`
	DownloadBucket string `toml:"download_bucket"`
	UploadBucket   string `toml:"upload_bucket"`
}

// Config is the full run configuration for one culling pipeline run.
type Config struct {
	SourceDir  string     `toml:"source_dir"`
	CullTo     int        `toml:"cull_to"`
	Strategy   string     `toml:"strategy"`
	Thresholds Thresholds `toml:"thresholds"`
	Models     Models     `toml:"models"`
	Output     Output     `toml:"output"`
	Bucket     Bucket     `toml:"bucket"`
	CachePath  string     `toml:"cache_path"`
	Workers    int        `toml:"workers"`
	Debug      bool       `toml:"debug"`
	LogFile    string     `toml:"log_file"`
}

// Default returns the configuration used when no config file is present.
func Default() Config {
	return Config{
		Strategy: StrategyEmbeddingPrecise,
		Thresholds: Thresholds{
			Precise:          DefaultPreciseThreshold,
			Fast:             DefaultFastThreshold,
			FaceTolerance:    DefaultFaceTolerance,
			BurstWindowSec:   DefaultBurstWindowSec,
			MaxFaceCountDiff: DefaultMaxFaceCountDiff,
		},
		Models: Models{
			Scorer:         "models/aesthetic_scorer.onnx",
			Embedder:       "models/resnet50_embed.onnx",
			FaceDetector:   "models/face_detection_yunet.onnx",
			FaceRecognizer: "models/face_recognition_sface.onnx",
		},
		Output: Output{
			KeptDir:          "PIPELINE_RESULTS",
			CulledDir:        "CULLED",
			DuplicateSetsDir: "DUPLICATE_SETS",
			Numbered:         true,
		},
		CachePath: "features.db",
	}
}

// Load reads the optional TOML config file at path over the defaults.
// A missing file is not an error; a malformed one is a configuration error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("cannot read config file %s: %v", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, types.ConfigErrorf("cannot parse config file %s: %v", path, err)
	}

	return cfg, nil
}

// Threshold returns the similarity threshold for the configured strategy.
// Only the embedding-based strategies use one.
func (c Config) Threshold() float64 {
	if c.Strategy == StrategyEmbeddingFast {
		return c.Thresholds.Fast
	}
	return c.Thresholds.Precise
}

// Validate checks the configuration before any pipeline stage runs.
func (c Config) Validate() error {
	if c.SourceDir == "" {
		return types.ConfigErrorf("missing source directory")
	}
	if c.CullTo < 0 {
		return types.ConfigErrorf("cull_to must be non-negative, got %d", c.CullTo)
	}

	switch c.Strategy {
	case StrategyEmbeddingFast, StrategyEmbeddingPrecise, StrategyFaceRefined, StrategyTemporalBurst:
	default:
		return types.ConfigErrorf("unknown strategy %q", c.Strategy)
	}

	if c.Thresholds.Precise <= 0 || c.Thresholds.Precise > 1 {
		return types.ConfigErrorf("precise threshold %.2f outside (0, 1]", c.Thresholds.Precise)
	}
	if c.Thresholds.Fast <= 0 || c.Thresholds.Fast > 1 {
		return types.ConfigErrorf("fast threshold %.2f outside (0, 1]", c.Thresholds.Fast)
	}
	if c.Thresholds.FaceTolerance <= 0 {
		return types.ConfigErrorf("face tolerance must be positive, got %.2f", c.Thresholds.FaceTolerance)
	}
	if c.Thresholds.BurstWindowSec <= 0 {
		return types.ConfigErrorf("burst window must be positive, got %.2f", c.Thresholds.BurstWindowSec)
	}

	return nil
}
