package videosource_test

import (
	"sync"

	"github.com/mverra/videosource"
)

// recordingListener collects every StatusUpdate it receives, for
// assertions in tests.
type recordingListener struct {
	mu      sync.Mutex
	updates []videosource.StatusUpdate
}

func (r *recordingListener) OnStatusUpdate(u videosource.StatusUpdate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, u)
}

func (r *recordingListener) all() []videosource.StatusUpdate {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]videosource.StatusUpdate, len(r.updates))
	copy(out, r.updates)
	return out
}

func (r *recordingListener) countByEvent(eventType string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, u := range r.updates {
		if u.EventType == eventType {
			n++
		}
	}
	return n
}
