package app

import (
	"time"

	"github.com/dshills/tickbus/internal/config"
)

// Options configures the application. Non-zero fields override the
// configuration file.
type Options struct {
	// ConfigPath is the path to the configuration file. Empty means defaults
	// only and no reload watching.
	ConfigPath string

	// LogLevel overrides log.level, including across reloads.
	LogLevel string

	// Scripts are loaded after the scripts listed in the configuration.
	Scripts []string

	// Demo starts producer goroutines that fire framework events.
	Demo bool

	// DemoInterval is the pause between demo events. Zero uses the default.
	DemoInterval time.Duration
}

// apply writes the overrides into cfg.
func (o Options) apply(cfg *config.Config) {
	if o.LogLevel != "" {
		cfg.Log.Level = o.LogLevel
	}
	cfg.Script.Files = append(cfg.Script.Files, o.Scripts...)
}
