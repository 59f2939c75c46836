// Package statusmetrics exposes videosource.StatusUpdate events as
// Prometheus metrics: a counter per event type and severity, plus gauges
// tracking the most recently reported lifecycle state per source.
package statusmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mverra/videosource"
)

var (
	eventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "videosource_events_total",
			Help: "Count of StatusUpdate events emitted by a video source, by event type and severity.",
		},
		[]string{"event_type", "severity", "context"},
	)

	sourceState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "videosource_state",
			Help: "1 on the gauge matching the most recently observed lifecycle state for a session, 0 on every other state gauge for that session.",
		},
		[]string{"session_id", "state"},
	)

	framesDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "videosource_frames_dropped_total",
			Help: "Count of FRAME_DROPPED events, by drop cause.",
		},
		[]string{"session_id", "cause"},
	)
)

var allStates = []string{
	"NOT_STARTED", "INITIALISING", "RESTARTING", "RUNNING",
	"PAUSED", "MUTED", "TERMINATING", "ENDED", "ERROR",
}

// Listener is a videosource.StatusListener that records Prometheus metrics
// from every StatusUpdate it observes.
type Listener struct{}

// New builds a metrics Listener. The underlying collectors are registered
// once with the default Prometheus registry via promauto.
func New() *Listener {
	return &Listener{}
}

// OnStatusUpdate updates the counters and gauges derived from u.
func (l *Listener) OnStatusUpdate(u videosource.StatusUpdate) {
	eventsTotal.WithLabelValues(u.EventType, u.Severity.String(), u.Context).Inc()

	sessionID, _ := u.Payload["session_id"].(string)

	switch u.EventType {
	case videosource.EventSourceStateUpdate:
		newState, _ := u.Payload["new_state"].(string)
		if sessionID == "" || newState == "" {
			return
		}
		for _, s := range allStates {
			value := 0.0
			if s == newState {
				value = 1.0
			}
			sourceState.WithLabelValues(sessionID, s).Set(value)
		}
	case videosource.EventFrameDropped:
		cause, _ := u.Payload["cause"].(string)
		framesDroppedTotal.WithLabelValues(sessionID, cause).Inc()
	}
}
