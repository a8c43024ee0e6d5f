package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/dshills/tickbus/internal/logging"
)

// EnvPrefix is the prefix for environment overrides.
const EnvPrefix = "TICKBUS_"

// Config is the complete tickbus configuration.
type Config struct {
	Log     logging.Config `toml:"log" yaml:"log"`
	Bus     BusConfig      `toml:"bus" yaml:"bus"`
	Loop    LoopConfig     `toml:"loop" yaml:"loop"`
	Metrics MetricsConfig  `toml:"metrics" yaml:"metrics"`
	Script  ScriptConfig   `toml:"script" yaml:"script"`
}

// BusConfig configures the event bus.
type BusConfig struct {
	// MaxDrainPerTick caps envelopes dispatched per tick. Zero means no cap.
	MaxDrainPerTick int `toml:"max_drain_per_tick" yaml:"max_drain_per_tick"`
}

// LoopConfig configures the tick loop.
type LoopConfig struct {
	// TickRate is the number of ticks per second.
	TickRate int `toml:"tick_rate" yaml:"tick_rate"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool   `toml:"enabled" yaml:"enabled"`
	Addr      string `toml:"addr" yaml:"addr"`
	Namespace string `toml:"namespace" yaml:"namespace"`
}

// ScriptConfig lists Lua scripts loaded at startup.
type ScriptConfig struct {
	Files []string `toml:"files" yaml:"files"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Log: logging.DefaultConfig(),
		Bus: BusConfig{
			MaxDrainPerTick: 0,
		},
		Loop: LoopConfig{
			TickRate: 60,
		},
		Metrics: MetricsConfig{
			Enabled:   false,
			Addr:      ":9464",
			Namespace: "tickbus",
		},
	}
}

// Load reads the configuration file at path on top of the defaults.
// An empty path or a missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil // File doesn't exist, not an error
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err := Decode(path, data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode parses data into cfg using the decoder for path's extension.
// Keys absent from data leave cfg unchanged; unknown keys are rejected.
func Decode(path string, data []byte, cfg *Config) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			pe := &ParseError{Path: path, Format: "toml", Message: err.Error(), Err: err}
			var derr *toml.DecodeError
			if errors.As(err, &derr) {
				pe.Line, _ = derr.Position()
			}
			return pe
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return &ParseError{Path: path, Format: "yaml", Message: err.Error(), Err: err}
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return nil
}

// LoadAll loads path, applies environment overrides and validates the result.
func LoadAll(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(EnvPrefix); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
