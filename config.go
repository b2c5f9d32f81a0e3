package maplabel

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/maplabel/placement"
)

// DefaultInterval is the worker cadence used when none is configured.
const DefaultInterval = 250 * time.Millisecond

// Config holds the tunable parameters of an Engine. It can be loaded from
// YAML:
//
//	interval: 250ms
//	padding: 4
//	arena_capacity: 512
//	debug: false
type Config struct {
	// Interval is the delay between a relabel request and the pass that
	// serves it. Requests arriving in the meantime share the pass.
	Interval time.Duration `yaml:"interval"`

	// Padding is the margin in pixels around label boxes.
	Padding float64 `yaml:"padding"`

	// ArenaCapacity is the initial number of label slots.
	ArenaCapacity int `yaml:"arena_capacity"`

	// Debug records the outcome of every examined box for the overlay.
	Debug bool `yaml:"debug"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Interval:      DefaultInterval,
		Padding:       placement.DefaultPadding,
		ArenaCapacity: 256,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive, got %v", ErrInvalidConfig, c.Interval)
	}
	if c.Padding < 0 {
		return fmt.Errorf("%w: padding must not be negative, got %v", ErrInvalidConfig, c.Padding)
	}
	if c.ArenaCapacity < 0 {
		return fmt.Errorf("%w: arena_capacity must not be negative, got %d", ErrInvalidConfig, c.ArenaCapacity)
	}
	return nil
}

// ParseConfig decodes YAML over the default configuration and validates
// the result.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("maplabel: parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads a YAML configuration file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("maplabel: load config: %w", err)
	}
	return ParseConfig(data)
}
