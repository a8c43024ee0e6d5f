package app

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/tickbus/internal/event"
	"github.com/dshills/tickbus/internal/event/events"
	"github.com/dshills/tickbus/internal/logging"
)

// Demo defaults.
const (
	DefaultDemoInterval = 250 * time.Millisecond

	demoProducers = 4
	demoFiles     = 12
	demoFileSize  = 1 << 20

	// Every demoFailEvery-th file fails to download once.
	demoFailEvery = 5
)

// producer is the sender of one demo download worker.
type producer struct {
	name string
}

// Demo simulates an asset updater: several producer goroutines download a
// batch of files and report progress on the bus while the loop drains it.
type Demo struct {
	bus      *event.Bus
	logger   *zap.Logger
	interval time.Duration

	downloaded atomic.Int64
	bytes      atomic.Int64

	// Written by handlers on the loop goroutine, read from anywhere.
	progressSeen atomic.Int64
	retries      atomic.Int64
	finished     atomic.Bool
}

func provideDemo(opts Options, bus *event.Bus, logger *zap.Logger) *Demo {
	interval := opts.DemoInterval
	if interval <= 0 {
		interval = DefaultDemoInterval
	}
	return &Demo{
		bus:      bus,
		logger:   logging.Component(logger, "demo"),
		interval: interval,
	}
}

// Subscribe installs the demo's console subscribers. All of them are owned by
// the Demo.
func (d *Demo) Subscribe() error {
	subs := []struct {
		id      event.ID
		handler event.Handler
	}{
		{events.FoundUpdateFiles, event.On(events.KindFoundUpdateFiles, d.onFound)},
		{events.DownloadProgressUpdate, event.On(events.KindDownloadProgress, d.onProgress)},
		{events.WebFileDownloadFailed, event.On(events.KindWebFileDownloadFailed, d.onFailed)},
		{events.UpdatePackageCallback, event.On(events.KindUpdatePackageCallback, d.onCallback)},
		{events.UpdaterDone, event.Func(d.onDone)},
		{events.InitializeAssetsFinish, event.On(events.KindInitializeAssetsFinish, d.onAssetsFinish)},
		{events.ScriptError, event.On(events.KindScriptError, d.onScriptError)},
	}
	for _, s := range subs {
		if err := d.bus.Subscribe(s.id, s.handler, event.WithOwner(d)); err != nil {
			return fmt.Errorf("subscribe %s: %w", events.Name(s.id), err)
		}
	}
	return nil
}

// Finished reports whether UpdaterDone has been dispatched.
func (d *Demo) Finished() bool {
	return d.finished.Load()
}

// ProgressSeen returns the number of progress events dispatched.
func (d *Demo) ProgressSeen() int64 {
	return d.progressSeen.Load()
}

// Retries returns the number of retry callbacks dispatched.
func (d *Demo) Retries() int64 {
	return d.retries.Load()
}

// Run downloads the batch. It returns nil when the batch completes or ctx
// ends.
func (d *Demo) Run(ctx context.Context) error {
	found := events.FoundUpdateFilesData{
		TotalCount:     demoFiles,
		TotalSizeBytes: demoFiles * demoFileSize,
	}
	if err := d.bus.FirePayload(d, events.FoundUpdateFiles, found.Payload()); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < demoProducers; i++ {
		i := i
		p :=&producer{name: fmt.Sprintf("producer-%d", i)}
		g.Go(func() error {
			return d.produce(gctx, p, i)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if ctx.Err() != nil {
		return nil
	}

	if err := d.bus.FirePayload(d, events.UpdaterDone, event.NoPayload()); err != nil {
		return err
	}
	assets := events.InitializeAssetsFinishData{Finished: true}
	return d.bus.FirePayload(d, events.InitializeAssetsFinish, assets.Payload())
}

// produce downloads every file assigned to worker.
func (d *Demo) produce(ctx context.Context, p *producer, worker int) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for file := worker; file < demoFiles; file += demoProducers {
		failed := file%demoFailEvery == demoFailEvery-1
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}

			if failed {
				failed = false
				data := events.WebFileDownloadFailedData{
					FileName: fmt.Sprintf("asset-%03d.pak", file),
					Error:    "connection reset",
				}
				if err := d.bus.FirePayload(p, events.WebFileDownloadFailed, data.Payload()); err != nil {
					return err
				}
				continue
			}
			break
		}

		progress := events.DownloadProgress{
			TotalDownloadCount:       demoFiles,
			CurrentDownloadCount:     int(d.downloaded.Add(1)),
			TotalDownloadSizeBytes:   demoFiles * demoFileSize,
			CurrentDownloadSizeBytes: d.bytes.Add(demoFileSize),
		}
		if err := d.bus.FirePayload(p, events.DownloadProgressUpdate, progress.Payload()); err != nil {
			return err
		}
	}
	return nil
}

func (d *Demo) onFound(_ any, _ *event.Envelope, data events.FoundUpdateFilesData) error {
	d.logger.Info("update found",
		zap.Int("files", data.TotalCount),
		zap.Int64("bytes", data.TotalSizeBytes),
	)
	return nil
}

func (d *Demo) onProgress(sender any, _ *event.Envelope, data events.DownloadProgress) error {
	d.progressSeen.Add(1)
	fields := []zap.Field{
		zap.Int("current", data.CurrentDownloadCount),
		zap.Int("total", data.TotalDownloadCount),
		zap.String("percent", fmt.Sprintf("%.0f%%", data.Fraction()*100)),
	}
	if p, ok := sender.(*producer); ok {
		fields = append(fields, zap.String("producer", p.name))
	}
	d.logger.Info("download progress", fields...)
	return nil
}

// onFailed asks for a retry, the way a UI would after a failed download.
func (d *Demo) onFailed(_ any, _ *event.Envelope, data events.WebFileDownloadFailedData) error {
	d.logger.Warn("download failed", zap.String("file", data.FileName), zap.String("error", data.Error))
	retry := events.UpdatePackageCallbackData{Type: events.CallbackRetryDownload}
	return d.bus.FirePayload(d, events.UpdatePackageCallback, retry.Payload())
}

func (d *Demo) onCallback(_ any, _ *event.Envelope, data events.UpdatePackageCallbackData) error {
	d.retries.Add(1)
	d.logger.Info("retry requested", zap.Stringer("type", data.Type))
	return nil
}

func (d *Demo) onDone(any, *event.Envelope) error {
	d.finished.Store(true)
	d.logger.Info("update complete")
	return nil
}

func (d *Demo) onAssetsFinish(_ any, _ *event.Envelope, data events.InitializeAssetsFinishData) error {
	d.logger.Info("assets initialized", zap.Bool("finished", data.Finished))
	return nil
}

func (d *Demo) onScriptError(_ any, _ *event.Envelope, data events.ScriptErrorData) error {
	d.logger.Warn("script error", zap.String("script", data.Script), zap.String("message", data.Message))
	return nil
}
