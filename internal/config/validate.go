package config

import (
	"regexp"
	"strings"

	"go.uber.org/multierr"

	"github.com/dshills/tickbus/internal/logging"
)

// MaxTickRate is the highest accepted loop.tick_rate.
const MaxTickRate = 1000

var metricNamespace = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Validate checks every setting and returns all problems found, combined
// with multierr. Each problem is a *FieldError.
func (c *Config) Validate() error {
	var errs error
	fail := func(field, msg string) {
		errs = multierr.Append(errs, &FieldError{Field: field, Message: msg})
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		fail("log.level", err.Error())
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "console", "json":
	default:
		fail("log.format", "must be console or json")
	}

	if c.Bus.MaxDrainPerTick < 0 {
		fail("bus.max_drain_per_tick", "must not be negative")
	}

	if c.Loop.TickRate < 1 || c.Loop.TickRate > MaxTickRate {
		fail("loop.tick_rate", "must be between 1 and 1000")
	}

	if c.Metrics.Enabled {
		if c.Metrics.Addr == "" {
			fail("metrics.addr", "required when metrics are enabled")
		}
		if !metricNamespace.MatchString(c.Metrics.Namespace) {
			fail("metrics.namespace", "must be a valid Prometheus metric prefix")
		}
	}

	for _, f := range c.Script.Files {
		if strings.TrimSpace(f) == "" {
			fail("script.files", "must not contain empty paths")
			break
		}
	}

	return errs
}
