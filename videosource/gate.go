package videosource

import "sync"

// playbackGate is a manual-reset event: set() makes every waiter proceed,
// clear() makes subsequent waiters block until the next set(). It backs the
// PAUSED/RUNNING distinction for the decoder worker.
type playbackGate struct {
	mu sync.Mutex
	ch chan struct{}
}

func newPlaybackGate(open bool) *playbackGate {
	g := &playbackGate{ch: make(chan struct{})}
	if open {
		close(g.ch)
	}
	return g
}

// set opens the gate, releasing every current and future waiter until the
// next clear().
func (g *playbackGate) set() {
	g.mu.Lock()
	defer g.mu.Unlock()
	select {
	case <-g.ch:
	default:
		close(g.ch)
	}
}

// clear closes the gate, so the next wait() call blocks.
func (g *playbackGate) clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	select {
	case <-g.ch:
		g.ch = make(chan struct{})
	default:
	}
}

// wait blocks until the gate is open.
func (g *playbackGate) wait() {
	g.mu.Lock()
	ch := g.ch
	g.mu.Unlock()
	<-ch
}
