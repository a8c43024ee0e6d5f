package app

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/tickbus/internal/config"
	"github.com/dshills/tickbus/internal/event"
	"github.com/dshills/tickbus/internal/event/events"
	"github.com/dshills/tickbus/internal/logging"
	"github.com/dshills/tickbus/internal/loop"
	"github.com/dshills/tickbus/internal/metrics"
	"github.com/dshills/tickbus/internal/script"
)

type runnerParams struct {
	fx.In

	Options    Options
	Config     *config.Config
	Logger     *zap.Logger
	Level      zap.AtomicLevel
	Bus        *event.Bus
	Loop       *loop.Loop
	Host       *script.Host
	Demo       *Demo
	Registry   *prometheus.Registry
	Shutdowner fx.Shutdowner
}

// runner supervises the long-running services: the tick loop, the admin
// HTTP server, the config watcher and the demo producers. If any of them
// fails, the whole application shuts down.
type runner struct {
	opts       Options
	cfg        *config.Config
	logger     *zap.Logger
	level      zap.AtomicLevel
	bus        *event.Bus
	loop       *loop.Loop
	host       *script.Host
	demo       *Demo
	reg        *prometheus.Registry
	shutdowner fx.Shutdowner

	cancel context.CancelFunc
	group  *errgroup.Group
}

func newRunner(p runnerParams) *runner {
	return &runner{
		opts:       p.Options,
		cfg:        p.Config,
		logger:     p.Logger,
		level:      p.Level,
		bus:        p.Bus,
		loop:       p.Loop,
		host:       p.Host,
		demo:       p.Demo,
		reg:        p.Registry,
		shutdowner: p.Shutdowner,
	}
}

// start loads scripts and launches the services. Scripts and demo
// subscribers are installed before the loop goroutine exists, so they need
// no hand-off.
func (r *runner) start(context.Context) error {
	for _, path := range r.cfg.Script.Files {
		// Failures are logged by the host and reported as ScriptError.
		_ = r.host.LoadFile(path)
	}

	if r.opts.Demo {
		if err := r.demo.Subscribe(); err != nil {
			return &InitError{Component: "demo", Err: err}
		}
	}

	var watcher *config.Watcher
	if r.opts.ConfigPath != "" {
		w, err := config.NewWatcher(r.opts.ConfigPath, r.reload,
			config.WithWatcherLogger(logging.Component(r.logger, "config")),
		)
		if err != nil {
			r.logger.Warn("config reload disabled", zap.Error(err))
		} else {
			watcher = w
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)
	r.cancel, r.group = cancel, g

	r.serve(g, "loop", func() error { return r.loop.Run(gctx) })

	if r.cfg.Metrics.Enabled {
		srv := metrics.NewServer(r.cfg.Metrics.Addr,
			metrics.Router(r.reg, r.bus.Stats),
			logging.Component(r.logger, "metrics"),
		)
		r.serve(g, "metrics", func() error { return srv.Run(gctx) })
	}
	if watcher != nil {
		r.serve(g, "config watcher", func() error { return watcher.Run(gctx) })
	}
	if r.opts.Demo {
		r.serve(g, "demo", func() error { return r.demo.Run(gctx) })
	}

	r.logger.Info("tickbus started",
		zap.Int("tick_rate", r.cfg.Loop.TickRate),
		zap.Int("scripts", len(r.cfg.Script.Files)),
		zap.Int("subscriptions", r.bus.TotalHandlerCount()),
		zap.Bool("metrics", r.cfg.Metrics.Enabled),
		zap.Bool("demo", r.opts.Demo),
	)
	return nil
}

// serve runs fn in g. An error from fn asks fx to shut the application down.
func (r *runner) serve(g *errgroup.Group, name string, fn func() error) {
	g.Go(func() error {
		err := fn()
		if err != nil {
			r.logger.Error("service failed", zap.String("service", name), zap.Error(err))
			if serr := r.shutdowner.Shutdown(fx.ExitCode(1)); serr != nil {
				r.logger.Error("shutdown request failed", zap.Error(serr))
			}
		}
		return err
	})
}

// stop cancels the services, waits for them, then tears down the script host
// and the bus. The loop drains once more on its way out, so events fired
// before stop are still delivered.
func (r *runner) stop(ctx context.Context) error {
	if r.cancel == nil {
		return nil
	}
	r.cancel()

	done := make(chan error, 1)
	go func() { done <- r.group.Wait() }()

	// Service errors were reported when they happened.
	select {
	case <-done:
	case <-ctx.Done():
		return ErrShutdownTimeout
	}

	removed := r.host.Close()
	stats := r.bus.Stats()
	r.bus.Shutdown()

	r.logger.Info("tickbus stopped",
		zap.Uint64("ticks", r.loop.Ticks()),
		zap.Uint64("events_fired", stats.EventsFired),
		zap.Uint64("events_dispatched", stats.EventsDispatched),
		zap.Uint64("handler_errors", stats.HandlerErrors),
		zap.Int("script_subscriptions_removed", removed),
	)
	_ = r.logger.Sync()
	return nil
}

// reload applies a reloaded configuration. The log level changes in place.
// Tick rate, drain cap and metrics settings take effect on restart.
func (r *runner) reload(cfg *config.Config) {
	// Compare like with like: r.cfg has the command-line overrides applied.
	r.opts.apply(cfg)

	if lvl, err := logging.ParseLevel(cfg.Log.Level); err == nil {
		r.level.SetLevel(lvl)
	}

	if cfg.Loop != r.cfg.Loop || cfg.Bus != r.cfg.Bus || cfg.Metrics != r.cfg.Metrics {
		r.logger.Info("restart required for loop, bus and metrics settings")
	}

	data := events.ConfigReloadedData{Path: r.opts.ConfigPath}
	if err := r.bus.FirePayload(r, events.ConfigReloaded, data.Payload()); err != nil {
		r.logger.Error("failed to fire config reloaded", zap.Error(err))
	}
}
