package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dshills/tickbus/internal/config"
	"github.com/dshills/tickbus/internal/event"
	"github.com/dshills/tickbus/internal/logging"
	"github.com/dshills/tickbus/internal/loop"
	"github.com/dshills/tickbus/internal/metrics"
	"github.com/dshills/tickbus/internal/script"
)

// Module returns the fx module graph:
//
//	Options → Config → Logger → Collector → Bus → Loop → Host, Demo → runner
func Module(opts Options) fx.Option {
	return fx.Module("tickbus",
		fx.Supply(opts),
		fx.Provide(
			provideConfig,
			provideLogger,
			provideRegistry,
			provideCollector,
			provideBus,
			provideLoop,
			provideHost,
			provideDemo,
			newRunner,
		),
		fx.WithLogger(func(l *zap.Logger) fxevent.Logger {
			fl := &fxevent.ZapLogger{Logger: logging.Component(l, "fx")}
			fl.UseLogLevel(zapcore.DebugLevel)
			return fl
		}),
		fx.Invoke(watchQueue, registerLifecycle),
	)
}

// provideConfig loads the configuration file and applies command line
// overrides.
func provideConfig(opts Options) (*config.Config, error) {
	cfg, err := config.LoadAll(opts.ConfigPath)
	if err != nil {
		return nil, &InitError{Component: "config", Err: err}
	}
	opts.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, &InitError{Component: "config", Err: err}
	}
	return cfg, nil
}

type loggerResult struct {
	fx.Out

	Logger *zap.Logger
	Level  zap.AtomicLevel
}

func provideLogger(cfg *config.Config) (loggerResult, error) {
	logger, atom, err := logging.New(cfg.Log)
	if err != nil {
		return loggerResult{}, &InitError{Component: "logger", Err: err}
	}
	return loggerResult{Logger: logger, Level: atom}, nil
}

// provideRegistry returns a private registry so tests and embedded buses
// never collide on the global one.
func provideRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

func provideCollector(cfg *config.Config, reg *prometheus.Registry) (*metrics.Collector, error) {
	c, err := metrics.New(cfg.Metrics.Namespace, reg)
	if err != nil {
		return nil, &InitError{Component: "metrics", Err: err}
	}
	return c, nil
}

func provideBus(cfg *config.Config, logger *zap.Logger, c *metrics.Collector) *event.Bus {
	return event.NewBus(
		event.WithLogger(logging.Component(logger, "bus")),
		event.WithObserver(c),
		event.WithMaxDrain(cfg.Bus.MaxDrainPerTick),
	)
}

func provideLoop(cfg *config.Config, bus *event.Bus, logger *zap.Logger, c *metrics.Collector) *loop.Loop {
	return loop.New(bus,
		loop.WithTickRate(cfg.Loop.TickRate),
		loop.WithLogger(logging.Component(logger, "loop")),
		loop.WithTickObserver(c),
	)
}

func provideHost(bus *event.Bus, logger *zap.Logger) *script.Host {
	return script.New(bus, script.WithLogger(logging.Component(logger, "script")))
}

// watchQueue exports the bus queue depth. It runs after the bus exists,
// since the collector is also the bus's observer.
func watchQueue(cfg *config.Config, bus *event.Bus, c *metrics.Collector) error {
	return c.WatchQueue(cfg.Metrics.Namespace, bus.Pending)
}

func registerLifecycle(lc fx.Lifecycle, r *runner) {
	lc.Append(fx.Hook{
		OnStart: r.start,
		OnStop:  r.stop,
	})
}
