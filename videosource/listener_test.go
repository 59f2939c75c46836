package videosource

import (
	"testing"
	"time"
)

type panicListener struct{}

func (panicListener) OnStatusUpdate(StatusUpdate) { panic("listener exploded") }

func TestSafeNotify_RecoversListenerPanic(t *testing.T) {
	t.Parallel()

	assertNoPanic := func() {
		safeNotify(panicListener{}, StatusUpdate{Timestamp: time.Now()})
	}
	assertNoPanic()
}

func TestDiscardListener_IgnoresUpdates(t *testing.T) {
	t.Parallel()

	discardListener{}.OnStatusUpdate(StatusUpdate{})
}

func TestStderrListener_DoesNotPanic(t *testing.T) {
	t.Parallel()

	StderrListener().OnStatusUpdate(StatusUpdate{
		Timestamp: time.Now(),
		Severity:  SeverityInfo,
		EventType: "TEST",
		Context:   "test",
		Payload:   map[string]any{"k": "v"},
	})
}
