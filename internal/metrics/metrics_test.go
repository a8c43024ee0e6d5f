package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/tickbus/internal/event"
	"github.com/dshills/tickbus/internal/event/events"
)

type sender struct{ name string }

func newCollector(t *testing.T) (*Collector, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	c, err := New("test", reg)
	require.NoError(t, err)
	return c, reg
}

func TestCollector_ObservesBus(t *testing.T) {
	c, _ := newCollector(t)
	bus := event.NewBus(event.WithObserver(c))
	s := &sender{"updater"}

	ok := event.Func(func(any, *event.Envelope) error { return nil })
	bad := event.Func(func(any, *event.Envelope) error { return errors.New("boom") })
	require.NoError(t, bus.Subscribe(events.UpdaterDone, ok))
	require.NoError(t, bus.Subscribe(events.UpdaterDone, bad))

	require.NoError(t, bus.FirePayload(s, events.UpdaterDone, event.NoPayload()))
	require.NoError(t, bus.FirePayload(s, events.InitializeFailed, event.NoPayload()))
	require.NoError(t, bus.FireNowPayload(s, events.UpdaterDone, event.NoPayload()))
	bus.Drain()

	assert.Equal(t, 1.0, testutil.ToFloat64(c.fired.WithLabelValues("updater_done", "deferred")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.fired.WithLabelValues("updater_done", "immediate")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.dispatched.WithLabelValues("updater_done")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.unhandled.WithLabelValues("initialize_failed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.handlers.WithLabelValues("updater_done", "success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.handlers.WithLabelValues("updater_done", "error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.subscriptions))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.eventTypes))
	assert.Equal(t, 1, testutil.CollectAndCount(c.drainSize))
}

func TestCollector_QueueDepthAndTicks(t *testing.T) {
	c, reg := newCollector(t)
	bus := event.NewBus(event.WithObserver(c))
	require.NoError(t, c.WatchQueue("test", bus.Pending))

	s := &sender{"producer"}
	require.NoError(t, bus.FirePayload(s, events.UpdaterDone, event.NoPayload()))
	require.NoError(t, bus.FirePayload(s, events.UpdaterDone, event.NoPayload()))

	expected := `
# HELP test_bus_queue_depth Envelopes waiting for the next drain.
# TYPE test_bus_queue_depth gauge
test_bus_queue_depth 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "test_bus_queue_depth"))

	c.TickCompleted(time.Millisecond, false)
	c.TickCompleted(50*time.Millisecond, true)
	assert.Equal(t, 2.0, testutil.ToFloat64(c.ticks))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.tickOverruns))
}

func TestNew_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New("dup", reg)
	require.NoError(t, err)

	_, err = New("dup", reg)
	assert.Error(t, err)
}

func TestRouter(t *testing.T) {
	c, reg := newCollector(t)
	c.TickCompleted(time.Millisecond, false)

	stats := func() event.Stats { return event.Stats{EventsFired: 7, QueueDepth: 3} }
	srv := httptest.NewServer(Router(reg, stats))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "test_loop_ticks_total 1")

	resp, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/debug/bus/stats")
	require.NoError(t, err)
	var got event.Stats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	resp.Body.Close()
	assert.Equal(t, uint64(7), got.EventsFired)
	assert.Equal(t, 3, got.QueueDepth)
}

func TestRouter_NoStats(t *testing.T) {
	srv := httptest.NewServer(Router(prometheus.NewRegistry(), nil))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/debug/bus/stats")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestServer_ShutdownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := NewServer(ln.Addr().String(), Router(prometheus.NewRegistry(), nil), nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
}
