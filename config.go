package gridcalc

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"gopkg.in/yaml.v2"
)

// Config holds the tunables of a document
type Config struct {
	// storage switching. a sparse grid becomes dense once more than
	// DenseThreshold of its cells are filled, and a dense grid becomes
	// sparse again below SparseThreshold.

	DenseThreshold  float64 `yaml:"denseThreshold"`
	SparseThreshold float64 `yaml:"sparseThreshold"`

	// parsing

	ParseCacheSize int `yaml:"parseCacheSize"`

	// defaults for new documents

	Rows    int `yaml:"rows"`
	Columns int `yaml:"columns"`

	LogLevel string `yaml:"logLevel"`
}

// DefaultConfig returns the configuration used when none is given
func DefaultConfig() Config {
	return Config{
		DenseThreshold:  0.4,
		SparseThreshold: 0.3,
		ParseCacheSize:  256,
		Rows:            100,
		Columns:         26,
		LogLevel:        "info",
	}
}

// LoadConfig reads YAML on top of the defaults and validates the result
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	data, err := io.ReadAll(r)
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, NewApplicationError(codes.InvalidArgument, fmt.Sprintf("parsing config: %v", err))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfigFile reads a YAML config file
func LoadConfigFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()
	return LoadConfig(f)
}

// Validate checks the thresholds leave a hysteresis band and the sizes
// are usable
func (c Config) Validate() error {
	if c.SparseThreshold < 0 || c.DenseThreshold > 1 || c.SparseThreshold >= c.DenseThreshold {
		return NewApplicationError(codes.InvalidArgument,
			fmt.Sprintf("thresholds must satisfy 0 <= sparse < dense <= 1, got sparse=%v dense=%v", c.SparseThreshold, c.DenseThreshold))
	}
	if c.ParseCacheSize < 0 {
		return NewApplicationError(codes.InvalidArgument, fmt.Sprintf("parseCacheSize must not be negative, got %d", c.ParseCacheSize))
	}
	if c.Rows < 0 || c.Columns < 0 {
		return NewApplicationError(codes.InvalidArgument, fmt.Sprintf("grid size must not be negative, got %dx%d", c.Rows, c.Columns))
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel. an empty level means info.
func (c Config) Level() (zerolog.Level, error) {
	if c.LogLevel == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.NoLevel, NewApplicationError(codes.InvalidArgument, fmt.Sprintf("invalid logLevel %q", c.LogLevel))
	}
	return level, nil
}
