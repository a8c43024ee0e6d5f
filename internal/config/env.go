package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/multierr"
)

// ApplyEnv overrides settings from environment variables named prefix plus
// the setting path, e.g. TICKBUS_LOOP_TICK_RATE. Unset variables leave the
// setting unchanged. Every malformed value is reported.
func (c *Config) ApplyEnv(prefix string) error {
	var errs error

	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv(prefix + name); ok {
			*dst = v
		}
	}
	integer := func(name string, dst *int) {
		v, ok := os.LookupEnv(prefix + name)
		if !ok {
			return
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s%s: %w", prefix, name, err))
			return
		}
		*dst = n
	}
	boolean := func(name string, dst *bool) {
		v, ok := os.LookupEnv(prefix + name)
		if !ok {
			return
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s%s: %w", prefix, name, err))
			return
		}
		*dst = b
	}

	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("LOG_OUTPUT", &c.Log.Output)
	integer("BUS_MAX_DRAIN_PER_TICK", &c.Bus.MaxDrainPerTick)
	integer("LOOP_TICK_RATE", &c.Loop.TickRate)
	boolean("METRICS_ENABLED", &c.Metrics.Enabled)
	str("METRICS_ADDR", &c.Metrics.Addr)
	str("METRICS_NAMESPACE", &c.Metrics.Namespace)

	if v, ok := os.LookupEnv(prefix + "SCRIPT_FILES"); ok {
		c.Script.Files = splitList(v)
	}

	return errs
}

// splitList splits a comma-separated list, dropping empty items.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
