package app

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dshills/tickbus/internal/event"
	"github.com/dshills/tickbus/internal/event/events"
	"github.com/dshills/tickbus/internal/loop"
	"github.com/dshills/tickbus/internal/script"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestModule_Demo(t *testing.T) {
	dir := t.TempDir()
	counter := writeFile(t, dir, "counter.lua", `
		progress = 0
		bus.on(bus.events.download_progress_update, function(e)
			progress = progress + 1
		end)
	`)

	var (
		bus  *event.Bus
		l    *loop.Loop
		host *script.Host
		demo *Demo
	)
	app := fxtest.New(t,
		Module(Options{
			LogLevel:     "error",
			Scripts:      []string{counter},
			Demo:         true,
			DemoInterval: time.Millisecond,
		}),
		fx.Populate(&bus, &l, &host, &demo),
	)
	app.RequireStart()

	require.Eventually(t, demo.Finished, 10*time.Second, 5*time.Millisecond)
	assert.EqualValues(t, demoFiles, demo.ProgressSeen())
	require.Eventually(t, func() bool {
		return demo.Retries() == demoFiles/demoFailEvery
	}, 5*time.Second, 5*time.Millisecond)

	var scriptSeen lua.LValue
	require.NoError(t, l.Call(context.Background(), func() {
		scriptSeen = host.L.GetGlobal("progress")
	}))
	assert.Equal(t, lua.LNumber(demoFiles), scriptSeen)

	stats := bus.Stats()
	assert.Zero(t, stats.HandlerErrors)
	assert.Zero(t, stats.HandlerPanics)

	app.RequireStop()
	assert.Zero(t, bus.TotalHandlerCount(), "stop tears the bus down")
	assert.False(t, l.Running())
}

func TestModule_ConfigReload(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "tickbus.toml", "[log]\nlevel = \"error\"\n")

	var (
		bus   *event.Bus
		l     *loop.Loop
		level zap.AtomicLevel
	)
	app := fxtest.New(t,
		Module(Options{ConfigPath: path}),
		fx.Populate(&bus, &l, &level),
	)
	app.RequireStart()
	defer app.RequireStop()
	assert.Equal(t, zapcore.ErrorLevel, level.Level())

	var reloads atomic.Int32
	var reloadedPath atomic.Value
	require.NoError(t, l.Call(context.Background(), func() {
		_ = bus.Subscribe(events.ConfigReloaded, event.On(events.KindConfigReloaded,
			func(_ any, _ *event.Envelope, d events.ConfigReloadedData) error {
				reloadedPath.Store(d.Path)
				reloads.Add(1)
				return nil
			}))
	}))

	tmp := writeFile(t, dir, ".tickbus.toml.tmp", "[log]\nlevel = \"debug\"\n")
	require.NoError(t, os.Rename(tmp, path))

	require.Eventually(t, func() bool {
		return reloads.Load() > 0 && level.Level() == zapcore.DebugLevel
	}, 10*time.Second, 10*time.Millisecond)
	assert.Equal(t, path, reloadedPath.Load())
}

func TestModule_InvalidConfig(t *testing.T) {
	_, err := New(Options{LogLevel: "loud"}, fx.NopLogger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "init config")
	assert.Contains(t, err.Error(), "log.level")
}

func TestModule_ScriptLoadFailureIsNotFatal(t *testing.T) {
	var bus *event.Bus
	var host *script.Host
	app := fxtest.New(t,
		Module(Options{
			LogLevel: "error",
			Scripts:  []string{filepath.Join(t.TempDir(), "missing.lua")},
		}),
		fx.Populate(&bus, &host),
	)
	app.RequireStart()
	app.RequireStop()
	assert.Zero(t, host.Subscriptions())
}

func TestApplication_Run(t *testing.T) {
	a, err := New(Options{LogLevel: "error"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	require.Eventually(t, a.IsRunning, 5*time.Second, time.Millisecond)
	assert.ErrorIs(t, a.Run(ctx), ErrAlreadyRunning)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("application did not stop")
	}
}

func TestApplication_ServiceFailure(t *testing.T) {
	// Occupy a port so the metrics server cannot bind it.
	l, err := (&net.ListenConfig{}).Listen(context.Background(), "tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	t.Setenv("TICKBUS_METRICS_ENABLED", "true")
	t.Setenv("TICKBUS_METRICS_ADDR", l.Addr().String())

	a, err := New(Options{LogLevel: "error"})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- a.Run(context.Background()) }()

	select {
	case err := <-done:
		assert.True(t, errors.Is(err, ErrServiceFailed), "got %v", err)
	case <-time.After(10 * time.Second):
		t.Fatal("service failure did not stop the application")
	}
}
