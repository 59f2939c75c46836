package statusmetrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/mverra/videosource"
)

func TestListener_EventsTotal_IncrementsPerEvent(t *testing.T) {
	l := New()
	before := testutil.ToFloat64(eventsTotal.WithLabelValues(videosource.EventFrameCaptured, "INFO", videosource.ContextVideoSourceConsumer))

	l.OnStatusUpdate(videosource.StatusUpdate{
		Timestamp: time.Now(),
		Severity:  videosource.SeverityInfo,
		EventType: videosource.EventFrameCaptured,
		Context:   videosource.ContextVideoSourceConsumer,
		Payload:   map[string]any{},
	})

	after := testutil.ToFloat64(eventsTotal.WithLabelValues(videosource.EventFrameCaptured, "INFO", videosource.ContextVideoSourceConsumer))
	assert.Equal(t, before+1, after)
}

func TestListener_SourceState_SetsOnlyCurrentStateGauge(t *testing.T) {
	l := New()
	session := "01TESTSESSION"

	l.OnStatusUpdate(videosource.StatusUpdate{
		EventType: videosource.EventSourceStateUpdate,
		Context:   videosource.ContextVideoSource,
		Payload: map[string]any{
			"session_id":     session,
			"previous_state": "NOT_STARTED",
			"new_state":      "RUNNING",
		},
	})

	assert.Equal(t, float64(1), testutil.ToFloat64(sourceState.WithLabelValues(session, "RUNNING")))
	assert.Equal(t, float64(0), testutil.ToFloat64(sourceState.WithLabelValues(session, "PAUSED")))
}

func TestListener_FramesDropped_CountsByCause(t *testing.T) {
	l := New()
	session := "01TESTSESSION2"

	l.OnStatusUpdate(videosource.StatusUpdate{
		EventType: videosource.EventFrameDropped,
		Payload: map[string]any{
			"session_id": session,
			"cause":      "adaptive",
		},
	})

	assert.Equal(t, float64(1), testutil.ToFloat64(framesDroppedTotal.WithLabelValues(session, "adaptive")))
}
