package gridcalc

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
)

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(strings.NewReader("denseThreshold: 0.6\nsparseThreshold: 0.2\nlogLevel: debug\n"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	expected := DefaultConfig()
	expected.DenseThreshold = 0.6
	expected.SparseThreshold = 0.2
	expected.LogLevel = "debug"
	if diff := cmp.Diff(expected, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}

	level, err := cfg.Level()
	if err != nil || level != zerolog.DebugLevel {
		t.Errorf("Level() = %v, %v", level, err)
	}
}

func TestLoadConfigEmpty(t *testing.T) {
	cfg, err := LoadConfig(strings.NewReader(""))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Errorf("empty config should be the default (-want +got):\n%s", diff)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"no hysteresis band", func(c *Config) { c.SparseThreshold = 0.4 }},
		{"inverted thresholds", func(c *Config) { c.SparseThreshold, c.DenseThreshold = 0.5, 0.2 }},
		{"dense above one", func(c *Config) { c.DenseThreshold = 1.5 }},
		{"negative sparse", func(c *Config) { c.SparseThreshold = -0.1 }},
		{"negative cache", func(c *Config) { c.ParseCacheSize = -1 }},
		{"negative rows", func(c *Config) { c.Rows = -3 }},
		{"unknown level", func(c *Config) { c.LogLevel = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			expectCode(t, cfg.Validate(), codes.InvalidArgument)
		})
	}

	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(strings.NewReader("denseThreshold: [1, 2]\n"))
	expectCode(t, err, codes.InvalidArgument)

	_, err = LoadConfig(strings.NewReader("sparseThreshold: 0.9\n"))
	expectCode(t, err, codes.InvalidArgument)

	if _, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml")); !os.IsNotExist(err) {
		t.Errorf("missing file error = %v", err)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gridcalc.yaml")
	if err := os.WriteFile(path, []byte("rows: 10\ncolumns: 4\nparseCacheSize: 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile failed: %v", err)
	}
	if cfg.Rows != 10 || cfg.Columns != 4 || cfg.ParseCacheSize != 0 {
		t.Errorf("LoadConfigFile() = %+v", cfg)
	}
}
