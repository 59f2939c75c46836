package videosource

import (
	"fmt"
	"os"
	"time"
)

// safeNotify invokes listener, recovering any panic and logging it as a
// warning rather than letting it affect control flow.
func safeNotify(listener StatusListener, update StatusUpdate) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "videosource: status listener panicked: %v\n", r)
		}
	}()
	listener.OnStatusUpdate(update)
}

// discardListener is used when no listener is configured.
type discardListener struct{}

func (discardListener) OnStatusUpdate(StatusUpdate) {}

// stderrListener is a minimal fallback listener for programs and tests that
// have nothing more structured wired in; see statuslog for the zap-backed
// production listener.
type stderrListener struct{}

func (stderrListener) OnStatusUpdate(u StatusUpdate) {
	fmt.Fprintf(os.Stderr, "[%s] %s %s %s %v\n",
		u.Timestamp.Format(time.RFC3339Nano), u.Severity, u.Context, u.EventType, u.Payload)
}

// StderrListener returns a StatusListener that writes one line per event to
// stderr. It is a convenience default for programs that have not wired in
// statuslog or statusmetrics.
func StderrListener() StatusListener {
	return stderrListener{}
}
