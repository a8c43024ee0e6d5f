package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/tickbus/internal/event"
)

func TestName(t *testing.T) {
	tests := []struct {
		id   event.ID
		want string
	}{
		{UpdaterDone, "updater_done"},
		{DownloadProgressUpdate, "download_progress_update"},
		{ScriptError, "script_error"},
		{1099, "framework_1099"},
		{UserIDBase + 5, "user_10005"},
		{42, "event_42"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Name(tt.id))
	}
}

func TestKnown_UniqueAndNamed(t *testing.T) {
	seen := make(map[event.ID]bool)
	for _, id := range Known() {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true

		assert.True(t, id.Valid())
		assert.True(t, IsFramework(id), "id %d outside framework block", id)
		assert.Contains(t, names, id)
	}
	assert.Len(t, seen, len(names))
}

func TestPayload_Kinds(t *testing.T) {
	p := FoundUpdateFilesData{TotalCount: 3, TotalSizeBytes: 1024}.Payload()
	assert.Equal(t, KindFoundUpdateFiles, p.Kind())

	got, ok := event.PayloadAs[FoundUpdateFilesData](p, KindFoundUpdateFiles)
	require.True(t, ok)
	assert.Equal(t, 3, got.TotalCount)

	_, ok = event.PayloadAs[DownloadProgress](p, KindDownloadProgress)
	assert.False(t, ok)
}

func TestDownloadProgress_Fraction(t *testing.T) {
	assert.Zero(t, DownloadProgress{}.Fraction())
	assert.InDelta(t, 0.25, DownloadProgress{TotalDownloadSizeBytes: 400, CurrentDownloadSizeBytes: 100}.Fraction(), 1e-9)
	assert.Equal(t, 1.0, DownloadProgress{TotalDownloadSizeBytes: 10, CurrentDownloadSizeBytes: 20}.Fraction())
}

func TestCallbackType_String(t *testing.T) {
	assert.Equal(t, "retry_download", CallbackRetryDownload.String())
	assert.Equal(t, "unknown", CallbackType(99).String())
}

func TestTypedHandler_WithFrameworkPayload(t *testing.T) {
	bus := event.NewBus()
	sender := &struct{ name string }{"updater"}

	var got DownloadProgress
	h := event.On(KindDownloadProgress, func(_ any, _ *event.Envelope, p DownloadProgress) error {
		got = p
		return nil
	})
	require.NoError(t, bus.Subscribe(DownloadProgressUpdate, h))

	want := DownloadProgress{TotalDownloadCount: 10, CurrentDownloadCount: 4}
	require.NoError(t, bus.FireNowPayload(sender, DownloadProgressUpdate, want.Payload()))
	assert.Equal(t, want, got)
}
