package statuslog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mverra/videosource"
)

func newObservedListener() (*Listener, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return New(zap.New(core)), logs
}

func TestListener_MapsSeverityToLogLevel(t *testing.T) {
	t.Parallel()

	l, logs := newObservedListener()

	l.OnStatusUpdate(videosource.StatusUpdate{
		Timestamp: time.Now(),
		Severity:  videosource.SeverityError,
		EventType: videosource.EventSourceError,
		Context:   videosource.ContextVideoSource,
		Payload:   map[string]any{"error_message": "boom"},
	})

	entries := logs.All()
	require := entries[0]
	assert.Equal(t, "error", require.Level.String())
	assert.Equal(t, videosource.EventSourceError, require.Message)
}

func TestListener_IncludesPayloadFields(t *testing.T) {
	t.Parallel()

	l, logs := newObservedListener()

	l.OnStatusUpdate(videosource.StatusUpdate{
		Timestamp: time.Now(),
		Severity:  videosource.SeverityInfo,
		EventType: videosource.EventFrameCaptured,
		Context:   videosource.ContextVideoSourceConsumer,
		Payload:   map[string]any{"frame_id": uint64(7)},
	})

	entry := logs.All()[0]
	fields := entry.ContextMap()
	assert.Equal(t, uint64(7), fields["frame_id"])
	assert.Equal(t, videosource.ContextVideoSourceConsumer, fields["context"])
}

func TestLevel_MapsEverySeverity(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "debug", Level(videosource.SeverityDebug).String())
	assert.Equal(t, "info", Level(videosource.SeverityInfo).String())
	assert.Equal(t, "warn", Level(videosource.SeverityWarn).String())
	assert.Equal(t, "error", Level(videosource.SeverityError).String())
}
