package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

// TestNewConfig verifies that NewConfig returns a Config with all expected
// default values. Changing a default should be a deliberate test change.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default Damping is 0.85", func(t *testing.T) {
		t.Parallel()
		if cfg.Damping != 0.85 {
			t.Errorf("expected Damping to be 0.85, got %v", cfg.Damping)
		}
	})

	t.Run("default Samples is 10000", func(t *testing.T) {
		t.Parallel()
		if cfg.Samples != 10000 {
			t.Errorf("expected Samples to be 10000, got %d", cfg.Samples)
		}
	})

	t.Run("default Threshold is 0.001", func(t *testing.T) {
		t.Parallel()
		if cfg.Threshold != 0.001 {
			t.Errorf("expected Threshold to be 0.001, got %v", cfg.Threshold)
		}
	})

	t.Run("default MaxIterations is 10000", func(t *testing.T) {
		t.Parallel()
		if cfg.MaxIterations != 10000 {
			t.Errorf("expected MaxIterations to be 10000, got %d", cfg.MaxIterations)
		}
	})

	t.Run("default Extensions is .html", func(t *testing.T) {
		t.Parallel()
		if !slices.Equal(cfg.Extensions, []string{".html"}) {
			t.Errorf("expected Extensions to be [.html], got %v", cfg.Extensions)
		}
	})

	t.Run("default Seed is random", func(t *testing.T) {
		t.Parallel()
		if cfg.Seed != 0 {
			t.Errorf("expected Seed to be 0, got %d", cfg.Seed)
		}
	})

	t.Run("default Workers is 8 and BatchSize is 4", func(t *testing.T) {
		t.Parallel()
		if cfg.Workers != 8 || cfg.BatchSize != 4 {
			t.Errorf("expected Workers 8 and BatchSize 4, got %d and %d", cfg.Workers, cfg.BatchSize)
		}
	})

	t.Run("default Tolerance is 0.05", func(t *testing.T) {
		t.Parallel()
		if cfg.Tolerance != 0.05 {
			t.Errorf("expected Tolerance to be 0.05, got %v", cfg.Tolerance)
		}
	})

	t.Run("default extensions are not shared", func(t *testing.T) {
		t.Parallel()
		other := NewConfig()
		other.Extensions[0] = ".htm"
		if DefaultExtensions[0] != ".html" {
			t.Error("expected DefaultExtensions to be unchanged")
		}
	})
}

// TestConfigValidate tests the Validate method.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	validConfig := func() *Config {
		cfg := NewConfig()
		cfg.Corpora = []string{"corpus0"}
		return cfg
	}

	t.Run("valid config returns nil", func(t *testing.T) {
		t.Parallel()
		if err := validConfig().Validate(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"no corpora returns ErrNoCorpus", func(c *Config) { c.Corpora = nil }, ErrNoCorpus},
		{"zero damping returns ErrInvalidDamping", func(c *Config) { c.Damping = 0 }, ErrInvalidDamping},
		{"damping of one returns ErrInvalidDamping", func(c *Config) { c.Damping = 1 }, ErrInvalidDamping},
		{"NaN damping returns ErrInvalidDamping", func(c *Config) { c.Damping = math.NaN() }, ErrInvalidDamping},
		{"one sample returns ErrInvalidSamples", func(c *Config) { c.Samples = 1 }, ErrInvalidSamples},
		{"zero threshold returns ErrInvalidThreshold", func(c *Config) { c.Threshold = 0 }, ErrInvalidThreshold},
		{"infinite threshold returns ErrInvalidThreshold", func(c *Config) { c.Threshold = math.Inf(1) }, ErrInvalidThreshold},
		{"zero max iterations returns ErrInvalidMaxIterations", func(c *Config) { c.MaxIterations = 0 }, ErrInvalidMaxIterations},
		{"zero tolerance returns ErrInvalidTolerance", func(c *Config) { c.Tolerance = 0 }, ErrInvalidTolerance},
		{"NaN tolerance returns ErrInvalidTolerance", func(c *Config) { c.Tolerance = math.NaN() }, ErrInvalidTolerance},
		{"infinite tolerance returns ErrInvalidTolerance", func(c *Config) { c.Tolerance = math.Inf(1) }, ErrInvalidTolerance},
		{"zero workers returns ErrInvalidWorkers", func(c *Config) { c.Workers = 0 }, ErrInvalidWorkers},
		{"negative batch size returns ErrInvalidBatchSize", func(c *Config) { c.BatchSize = -1 }, ErrInvalidBatchSize},
		{"json and markdown both enabled returns ErrConflictingReportFormats", func(c *Config) {
			c.JSONReport = true
			c.MarkdownReport = true
		}, ErrConflictingReportFormats},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.modify(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	t.Run("two samples is valid", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.Samples = 2
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})
}

// TestFileGetCorpusConfig tests merging corpus sections over defaults.
func TestFileGetCorpusConfig(t *testing.T) {
	t.Parallel()

	t.Run("returns defaults when corpus not found", func(t *testing.T) {
		t.Parallel()

		cf := &File{
			Defaults: CorpusConfig{Damping: 0.9, IgnorePatterns: []string{"draft-*"}},
			Corpora:  map[string]CorpusConfig{},
		}
		got := cf.GetCorpusConfig("docs")
		if got.Damping != 0.9 || !slices.Equal(got.IgnorePatterns, []string{"draft-*"}) {
			t.Errorf("expected defaults, got %+v", got)
		}
	})

	t.Run("corpus values override defaults", func(t *testing.T) {
		t.Parallel()

		cf := &File{
			Defaults: CorpusConfig{Damping: 0.9, Samples: 500, Tolerance: 0.1, Extensions: []string{".html"}},
			Corpora: map[string]CorpusConfig{
				"docs": {Samples: 2000, Seed: 7, Tolerance: 0.02, Extensions: []string{".htm"}},
			},
		}
		got := cf.GetCorpusConfig("docs")
		if got.Damping != 0.9 {
			t.Errorf("expected inherited damping 0.9, got %v", got.Damping)
		}
		if got.Tolerance != 0.02 {
			t.Errorf("expected tolerance 0.02, got %v", got.Tolerance)
		}
		if got.Samples != 2000 || got.Seed != 7 {
			t.Errorf("expected samples 2000 and seed 7, got %d and %d", got.Samples, got.Seed)
		}
		if !slices.Equal(got.Extensions, []string{".htm"}) {
			t.Errorf("expected [.htm], got %v", got.Extensions)
		}
	})

	t.Run("nil corpora map", func(t *testing.T) {
		t.Parallel()

		cf := &File{Defaults: CorpusConfig{Samples: 100}}
		if got := cf.GetCorpusConfig("docs"); got.Samples != 100 {
			t.Errorf("expected 100, got %d", got.Samples)
		}
	})
}

// TestConfigForCorpus tests applying file overrides to a run config.
func TestConfigForCorpus(t *testing.T) {
	t.Parallel()

	t.Run("without config file returns a copy", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.Corpora = []string{"a", "b"}
		cfg.IgnorePatterns = []string{"x"}

		got := cfg.ForCorpus("a")
		if !slices.Equal(got.Corpora, []string{"a"}) {
			t.Errorf("expected [a], got %v", got.Corpora)
		}
		got.IgnorePatterns[0] = "changed"
		got.Extensions[0] = ".changed"
		if cfg.IgnorePatterns[0] != "x" || cfg.Extensions[0] != ".html" {
			t.Error("expected original config to be unchanged")
		}
	})

	t.Run("applies overrides keyed by base name", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.IgnorePatterns = []string{"cli-*"}
		cfg.CorpusConfigs = &File{
			Corpora: map[string]CorpusConfig{
				"docs": {Damping: 0.5, Samples: 300, Seed: 9, Tolerance: 0.01, IgnorePatterns: []string{"draft-*"}},
			},
		}

		got := cfg.ForCorpus(filepath.Join("site", "docs") + string(filepath.Separator))
		if got.Damping != 0.5 || got.Samples != 300 || got.Seed != 9 {
			t.Errorf("expected overrides to apply, got damping %v samples %d seed %d", got.Damping, got.Samples, got.Seed)
		}
		if got.Tolerance != 0.01 {
			t.Errorf("expected tolerance override 0.01, got %v", got.Tolerance)
		}
		if !slices.Equal(got.IgnorePatterns, []string{"cli-*", "draft-*"}) {
			t.Errorf("expected [cli-* draft-*], got %v", got.IgnorePatterns)
		}
		if cfg.Damping != DefaultDamping {
			t.Error("expected original config to be unchanged")
		}
	})
}

// TestLoadConfigFile tests the LoadConfigFile function.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadConfigFile(filepath.Join(t.TempDir(), ".pagerank"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("expected ErrConfigNotFound, got: %v", err)
		}
		if cfg != nil {
			t.Error("expected nil config when file not found")
		}
	})

	t.Run("loads valid YAML config", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".pagerank")
		content := `defaults:
  damping: 0.9
  tolerance: 0.01
  ignorePatterns:
    - "draft-*"
corpora:
  docs:
    samples: 20000
    seed: 42
    extensions:
      - ".html"
      - ".htm"
`
		if err := os.WriteFile(configPath, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cfg, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.Defaults.Damping != 0.9 {
			t.Errorf("expected default damping 0.9, got %v", cfg.Defaults.Damping)
		}
		if cfg.Defaults.Tolerance != 0.01 {
			t.Errorf("expected default tolerance 0.01, got %v", cfg.Defaults.Tolerance)
		}
		docs, ok := cfg.Corpora["docs"]
		if !ok {
			t.Fatal("expected docs in corpora")
		}
		if docs.Samples != 20000 || docs.Seed != 42 {
			t.Errorf("expected samples 20000 and seed 42, got %d and %d", docs.Samples, docs.Seed)
		}
		if len(docs.Extensions) != 2 {
			t.Errorf("expected 2 extensions, got %d", len(docs.Extensions))
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".pagerank")
		if err := os.WriteFile(configPath, []byte(`invalid: yaml: content: [}`), 0o600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfigFile(configPath); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})

	t.Run("rejects out of range values", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".pagerank")
		content := `corpora:
  docs:
    damping: 1.5
`
		if err := os.WriteFile(configPath, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfigFile(configPath); !errors.Is(err, ErrInvalidDamping) {
			t.Errorf("expected ErrInvalidDamping, got %v", err)
		}
	})

	t.Run("rejects a negative tolerance", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".pagerank")
		content := `defaults:
  tolerance: -0.1
`
		if err := os.WriteFile(configPath, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfigFile(configPath); !errors.Is(err, ErrInvalidTolerance) {
			t.Errorf("expected ErrInvalidTolerance, got %v", err)
		}
	})

	t.Run("initializes nil Corpora map", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".pagerank")
		if err := os.WriteFile(configPath, []byte("defaults:\n  samples: 100\n"), 0o600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cfg, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Corpora == nil {
			t.Error("expected Corpora map to be initialized")
		}
	})
}

// TestFindConfigFile tests the FindConfigFile function.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns explicit path if exists", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(configPath, []byte("defaults: {}"), 0o600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if got := FindConfigFile(configPath); got != configPath {
			t.Errorf("expected %q, got %q", configPath, got)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		t.Parallel()

		if got := FindConfigFile(filepath.Join(t.TempDir(), "missing.yaml")); got != "" {
			t.Errorf("expected empty string, got %q", got)
		}
	})
}

// TestXDGDirs tests XDG directory functions.
func TestXDGDirs(t *testing.T) {
	t.Parallel()

	if dir := XDGDataDir(); filepath.Base(dir) != AppName {
		t.Errorf("expected data dir to end with %q, got %q", AppName, dir)
	}
	if dir := XDGConfigDir(); filepath.Base(dir) != AppName {
		t.Errorf("expected config dir to end with %q, got %q", AppName, dir)
	}
}
