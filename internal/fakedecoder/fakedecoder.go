// Package fakedecoder provides a deterministic, scripted implementation of
// videosource.Decoder for tests: a fake that emits scripted frames and pace
// patterns without touching a real capture library.
package fakedecoder

import (
	"errors"
	"sync"
	"time"

	"github.com/mverra/videosource"
)

// ErrOpenFailed is returned by Open when configured to fail, simulating an
// unreachable source reference.
var ErrOpenFailed = errors.New("fakedecoder: configured to fail open")

// Frame is one scripted frame body; Delay, if non-zero, is slept before the
// Grab that produces it returns, letting tests shape a decoder pace.
type Frame struct {
	Image any
	Delay time.Duration
}

// Decoder is a scripted videosource.Decoder. Frames are consumed in order by
// successive Grab/Retrieve pairs; once exhausted, Grab returns false,
// signalling end of stream.
type Decoder struct {
	mu sync.Mutex

	Props         videosource.SourceProperties
	Frames        []Frame
	FailOpen      bool
	RetrieveFails bool
	PanicOnGrab   any // if non-nil, Grab panics with this value instead of grabbing

	cursor   int
	opened   bool
	released bool
}

// Open returns a handle (the Decoder itself) unless FailOpen is set. Each
// successful Open rewinds the script to its first frame.
func (d *Decoder) Open(reference any) (any, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.FailOpen {
		return nil, ErrOpenFailed
	}
	d.opened = true
	d.released = false
	d.cursor = 0
	return d, nil
}

// IsOpen reports whether Open has succeeded and Release has not yet run.
func (d *Decoder) IsOpen(handle any) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opened && !d.released
}

// Grab advances the cursor, sleeping Frame.Delay if set. Returns false once
// every scripted frame has been grabbed. Panics with PanicOnGrab if set,
// simulating a decoder that raises inside the worker goroutine.
func (d *Decoder) Grab(handle any) bool {
	d.mu.Lock()
	if d.PanicOnGrab != nil {
		d.mu.Unlock()
		panic(d.PanicOnGrab)
	}
	if d.cursor >= len(d.Frames) {
		d.mu.Unlock()
		return false
	}
	delay := d.Frames[d.cursor].Delay
	d.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	return true
}

// Retrieve returns the image payload for the frame at the current cursor and
// advances it. Returns ok=false if RetrieveFails is set.
func (d *Decoder) Retrieve(handle any) (any, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.RetrieveFails {
		return nil, false
	}
	if d.cursor >= len(d.Frames) {
		return nil, false
	}
	img := d.Frames[d.cursor].Image
	d.cursor++
	return img, true
}

// Release marks the decoder as released.
func (d *Decoder) Release(handle any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.released = true
}

// Properties returns the configured SourceProperties.
func (d *Decoder) Properties(handle any) (videosource.SourceProperties, error) {
	return d.Props, nil
}

// Cursor exposes how many frames have been retrieved so far, for test
// assertions.
func (d *Decoder) Cursor() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cursor
}

// Released reports whether Release has been called.
func (d *Decoder) Released() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.released
}
