package videosource

import (
	"testing"
	"time"
)

func TestPlaybackGate_WaitBlocksUntilSet(t *testing.T) {
	t.Parallel()

	g := newPlaybackGate(false)
	done := make(chan struct{})
	go func() {
		g.wait()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("wait should block while the gate is clear")
	case <-time.After(30 * time.Millisecond):
	}

	g.set()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("wait did not return after set")
	}
}

func TestPlaybackGate_OpenAtConstruction(t *testing.T) {
	t.Parallel()

	g := newPlaybackGate(true)
	done := make(chan struct{})
	go func() {
		g.wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("wait should return immediately on a gate opened at construction")
	}
}

func TestPlaybackGate_ClearReblocksFutureWaiters(t *testing.T) {
	t.Parallel()

	g := newPlaybackGate(true)
	g.clear()

	done := make(chan struct{})
	go func() {
		g.wait()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("wait should block after clear")
	case <-time.After(30 * time.Millisecond):
	}

	g.set()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("wait did not return after set following clear")
	}
}

func TestPlaybackGate_SetIsIdempotent(t *testing.T) {
	t.Parallel()

	g := newPlaybackGate(false)
	g.set()
	g.set()
	g.wait()
}

func TestPlaybackGate_ClearIsIdempotent(t *testing.T) {
	t.Parallel()

	g := newPlaybackGate(false)
	g.clear()
	g.clear()

	select {
	case <-g.ch:
		t.Fatal("gate should remain closed")
	default:
	}
}
