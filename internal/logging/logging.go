// Package logging builds the process logger.
package logging

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config configures the logger.
type Config struct {
	// Level is the minimum level: debug, info, warn or error.
	Level string `toml:"level" yaml:"level"`

	// Format is console or json.
	Format string `toml:"format" yaml:"format"`

	// Output is stderr, stdout or a file path.
	Output string `toml:"output" yaml:"output"`
}

// DefaultConfig returns the default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: "console",
		Output: "stderr",
	}
}

// ParseLevel parses a level name. Accepts the same spellings as the command
// line: debug, info, warn (or warning) and error, in any case.
func ParseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info", "":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q (valid: debug, info, warn, error)", s)
	}
}

// New builds a logger from cfg. The returned AtomicLevel changes the level
// of the logger and every logger derived from it, which is how configuration
// reloads adjust verbosity without rebuilding the logger.
func New(cfg Config) (*zap.Logger, zap.AtomicLevel, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, zap.AtomicLevel{}, err
	}
	atom := zap.NewAtomicLevelAt(level)

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	switch strings.ToLower(cfg.Format) {
	case "json":
		enc = zapcore.NewJSONEncoder(encCfg)
	case "console", "":
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	default:
		return nil, zap.AtomicLevel{}, fmt.Errorf("invalid log format %q (valid: console, json)", cfg.Format)
	}

	ws, err := openOutput(cfg.Output)
	if err != nil {
		return nil, zap.AtomicLevel{}, err
	}

	logger := zap.New(zapcore.NewCore(enc, ws, atom), zap.AddCaller())
	return logger, atom, nil
}

// openOutput resolves an output name to a write syncer.
func openOutput(out string) (zapcore.WriteSyncer, error) {
	switch out {
	case "", "stderr":
		return zapcore.Lock(os.Stderr), nil
	case "stdout":
		return zapcore.Lock(os.Stdout), nil
	}

	f, err := os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log output: %w", err)
	}
	return zapcore.Lock(f), nil
}

// Component returns a logger with the component field set.
func Component(l *zap.Logger, component string) *zap.Logger {
	return l.With(zap.String("component", component))
}
