package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"imageculler/types"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	if cfg.Strategy != StrategyEmbeddingPrecise {
		t.Errorf("default strategy = %s, want %s", cfg.Strategy, StrategyEmbeddingPrecise)
	}
	if cfg.Thresholds.Precise != DefaultPreciseThreshold {
		t.Errorf("precise threshold = %v, want %v", cfg.Thresholds.Precise, DefaultPreciseThreshold)
	}
	if cfg.Thresholds.Fast != DefaultFastThreshold {
		t.Errorf("fast threshold = %v, want %v", cfg.Thresholds.Fast, DefaultFastThreshold)
	}
	if cfg.Thresholds.BurstWindowSec != DefaultBurstWindowSec {
		t.Errorf("burst window = %v, want %v", cfg.Thresholds.BurstWindowSec, DefaultBurstWindowSec)
	}
	if !cfg.Output.Numbered {
		t.Error("numbered output should default on")
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "culler.toml")
	content := `
source_dir = "/photos/shoot"
cull_to = 24
strategy = "face-refined"

[thresholds]
precise = 0.90
face_tolerance = 0.6

[output]
kept_dir = "RESULTS"
numbered = false
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.SourceDir != "/photos/shoot" || cfg.CullTo != 24 || cfg.Strategy != "face-refined" {
		t.Errorf("loaded %+v, want file values applied", cfg)
	}
	if cfg.Thresholds.Precise != 0.90 || cfg.Thresholds.FaceTolerance != 0.6 {
		t.Errorf("thresholds = %+v, want file overrides", cfg.Thresholds)
	}
	// Unset keys keep their defaults.
	if cfg.Thresholds.Fast != DefaultFastThreshold {
		t.Errorf("fast threshold = %v, want untouched default", cfg.Thresholds.Fast)
	}
	if cfg.Output.KeptDir != "RESULTS" || cfg.Output.Numbered {
		t.Errorf("output = %+v, want file overrides", cfg.Output)
	}
	if cfg.Output.CulledDir != "CULLED" {
		t.Errorf("culled dir = %s, want untouched default", cfg.Output.CulledDir)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load() of absent file errored: %v", err)
	}
	if cfg.Strategy != StrategyEmbeddingPrecise {
		t.Errorf("absent file should yield defaults, got strategy %s", cfg.Strategy)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "culler.toml")
	if err := os.WriteFile(path, []byte("strategy = [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); !errors.Is(err, types.ErrConfiguration) {
		t.Errorf("Load() error = %v, want configuration error", err)
	}
}

func TestThreshold(t *testing.T) {
	t.Parallel()

	cfg := Default()

	cfg.Strategy = StrategyEmbeddingFast
	if got := cfg.Threshold(); got != cfg.Thresholds.Fast {
		t.Errorf("fast Threshold() = %v, want %v", got, cfg.Thresholds.Fast)
	}

	for _, strategy := range []string{StrategyEmbeddingPrecise, StrategyFaceRefined, StrategyTemporalBurst} {
		cfg.Strategy = strategy
		if got := cfg.Threshold(); got != cfg.Thresholds.Precise {
			t.Errorf("%s Threshold() = %v, want precise %v", strategy, got, cfg.Thresholds.Precise)
		}
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() Config {
		cfg := Default()
		cfg.SourceDir = "/photos"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid defaults", mutate: func(c *Config) {}},
		{name: "missing source dir", mutate: func(c *Config) { c.SourceDir = "" }, wantErr: true},
		{name: "negative cull target", mutate: func(c *Config) { c.CullTo = -1 }, wantErr: true},
		{name: "zero cull target is allowed", mutate: func(c *Config) { c.CullTo = 0 }},
		{name: "unknown strategy", mutate: func(c *Config) { c.Strategy = "pixel-diff" }, wantErr: true},
		{name: "precise threshold above one", mutate: func(c *Config) { c.Thresholds.Precise = 1.5 }, wantErr: true},
		{name: "fast threshold zero", mutate: func(c *Config) { c.Thresholds.Fast = 0 }, wantErr: true},
		{name: "negative face tolerance", mutate: func(c *Config) { c.Thresholds.FaceTolerance = -0.5 }, wantErr: true},
		{name: "zero burst window", mutate: func(c *Config) { c.Thresholds.BurstWindowSec = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := valid()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, types.ErrConfiguration) {
				t.Errorf("Validate() error %v is not a configuration error", err)
			}
		})
	}
}
