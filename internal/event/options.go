package event

import "go.uber.org/zap"

// BusOption configures an event Bus.
type BusOption func(*busConfig)

// ErrorHandler receives every contained handler failure. err is a
// *HandlerError or a *PanicError. It runs on the bus goroutine, right after
// the failure is logged.
type ErrorHandler func(err error)

// busConfig contains configuration for the event bus.
type busConfig struct {
	// logger receives warnings for soft failures and errors for contained
	// handler failures.
	logger *zap.Logger

	// maxDrain caps the envelopes dispatched per Drain call. Zero means no cap.
	maxDrain int

	// observer is notified of bus activity, typically for metrics.
	observer Observer

	// errorHandler is called for each contained handler failure.
	errorHandler ErrorHandler
}

// defaultBusConfig returns sensible default configuration.
func defaultBusConfig() busConfig {
	return busConfig{
		logger:   zap.NewNop(),
		maxDrain: 0,
		observer: NopObserver{},
	}
}

// WithLogger sets the logger used by the bus.
func WithLogger(logger *zap.Logger) BusOption {
	return func(c *busConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMaxDrain limits how many envelopes a single Drain call dispatches.
// Envelopes left over stay queued for the next call. Zero or a negative value
// removes the limit, which lets handlers that keep firing from inside a drain
// extend it indefinitely.
func WithMaxDrain(n int) BusOption {
	return func(c *busConfig) {
		if n < 0 {
			n = 0
		}
		c.maxDrain = n
	}
}

// WithObserver sets an observer for bus activity.
func WithObserver(o Observer) BusOption {
	return func(c *busConfig) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithErrorHandler sets a callback for contained handler failures.
func WithErrorHandler(h ErrorHandler) BusOption {
	return func(c *busConfig) {
		c.errorHandler = h
	}
}
