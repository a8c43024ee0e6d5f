// Package metrics exports event bus and tick loop activity to Prometheus.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dshills/tickbus/internal/event"
	"github.com/dshills/tickbus/internal/event/events"
)

// Collector records bus and loop activity as Prometheus metrics.
// It implements event.Observer and is safe for concurrent use.
type Collector struct {
	reg prometheus.Registerer

	fired           *prometheus.CounterVec
	dispatched      *prometheus.CounterVec
	unhandled       *prometheus.CounterVec
	handlers        *prometheus.CounterVec
	handlerDuration *prometheus.HistogramVec
	drainSize       prometheus.Histogram
	drainDuration   prometheus.Histogram
	subscriptions   prometheus.Gauge
	eventTypes      prometheus.Gauge

	ticks        prometheus.Counter
	tickOverruns prometheus.Counter
	tickDuration prometheus.Histogram
}

// New creates a collector and registers its metrics with reg.
func New(namespace string, reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		reg: reg,
		fired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bus",
			Name:      "events_fired_total",
			Help:      "Envelopes accepted by Fire (deferred) or FireNow (immediate).",
		}, []string{"event", "mode"}),
		dispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bus",
			Name:      "events_dispatched_total",
			Help:      "Envelopes run through the dispatch engine.",
		}, []string{"event"}),
		unhandled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bus",
			Name:      "events_unhandled_total",
			Help:      "Envelopes with no subscriber and no default handler.",
		}, []string{"event"}),
		handlers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bus",
			Name:      "handler_calls_total",
			Help:      "Handler invocations by outcome.",
		}, []string{"event", "outcome"}),
		handlerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "bus",
			Name:      "handler_duration_seconds",
			Help:      "Handler execution time.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}, []string{"outcome"}),
		drainSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "bus",
			Name:      "drain_envelopes",
			Help:      "Envelopes dispatched per non-empty drain.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		drainDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "bus",
			Name:      "drain_duration_seconds",
			Help:      "Time spent in non-empty drains.",
			Buckets:   prometheus.ExponentialBuckets(1e-5, 4, 10),
		}),
		subscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "bus",
			Name:      "subscriptions",
			Help:      "Live subscriptions.",
		}),
		eventTypes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "bus",
			Name:      "event_types",
			Help:      "Event ids with at least one subscription.",
		}),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "loop",
			Name:      "ticks_total",
			Help:      "Ticks run by the loop.",
		}),
		tickOverruns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "loop",
			Name:      "tick_overruns_total",
			Help:      "Ticks that took longer than the tick interval.",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "loop",
			Name:      "tick_duration_seconds",
			Help:      "Time spent per tick.",
			Buckets:   prometheus.ExponentialBuckets(1e-5, 4, 10),
		}),
	}

	for _, col := range []prometheus.Collector{
		c.fired, c.dispatched, c.unhandled, c.handlers, c.handlerDuration,
		c.drainSize, c.drainDuration, c.subscriptions, c.eventTypes,
		c.ticks, c.tickOverruns, c.tickDuration,
	} {
		if err := reg.Register(col); err != nil {
			return nil, fmt.Errorf("register metric: %w", err)
		}
	}
	return c, nil
}

// WatchQueue registers a gauge that reports the deferred queue depth at
// scrape time. depth must be safe to call from any goroutine.
func (c *Collector) WatchQueue(namespace string, depth func() int) error {
	g := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "bus",
		Name:      "queue_depth",
		Help:      "Envelopes waiting for the next drain.",
	}, func() float64 {
		return float64(depth())
	})
	if err := c.reg.Register(g); err != nil {
		return fmt.Errorf("register metric: %w", err)
	}
	return nil
}

// EventFired implements event.Observer.
func (c *Collector) EventFired(id event.ID, deferred bool) {
	mode := "immediate"
	if deferred {
		mode = "deferred"
	}
	c.fired.WithLabelValues(events.Name(id), mode).Inc()
}

// EventDispatched implements event.Observer.
func (c *Collector) EventDispatched(id event.ID) {
	c.dispatched.WithLabelValues(events.Name(id)).Inc()
}

// EventUnhandled implements event.Observer.
func (c *Collector) EventUnhandled(id event.ID) {
	c.unhandled.WithLabelValues(events.Name(id)).Inc()
}

// HandlerExecuted implements event.Observer.
func (c *Collector) HandlerExecuted(id event.ID, d time.Duration, outcome event.Outcome) {
	c.handlers.WithLabelValues(events.Name(id), outcome.String()).Inc()
	c.handlerDuration.WithLabelValues(outcome.String()).Observe(d.Seconds())
}

// Drained implements event.Observer.
func (c *Collector) Drained(n int, d time.Duration) {
	c.drainSize.Observe(float64(n))
	c.drainDuration.Observe(d.Seconds())
}

// SubscriptionsChanged implements event.Observer.
func (c *Collector) SubscriptionsChanged(total, eventTypes int) {
	c.subscriptions.Set(float64(total))
	c.eventTypes.Set(float64(eventTypes))
}

// TickCompleted records one loop tick.
func (c *Collector) TickCompleted(d time.Duration, overrun bool) {
	c.ticks.Inc()
	c.tickDuration.Observe(d.Seconds())
	if overrun {
		c.tickOverruns.Inc()
	}
}

var _ event.Observer = (*Collector)(nil)
