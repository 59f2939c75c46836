package videosource

// Decoder is the injected frame-decoding collaborator. A Decoder
// implementation owns the underlying capture/demux library (e.g. a gocv
// VideoCapture, a gstreamer pipeline, or a file reader) and is used
// exclusively by the VideoSource's decoder worker goroutine after Open
// succeeds.
//
// Grab and Retrieve are split so that drop-latest and adaptive policies can
// skip the expensive pixel decode after a cheap grab.
type Decoder interface {
	// Open establishes the source and returns a handle passed to every
	// subsequent call. reference is opaque to the core: a filesystem path,
	// a URL, or a device index.
	Open(reference any) (handle any, err error)

	// IsOpen reports whether handle still refers to a live source.
	IsOpen(handle any) bool

	// Grab advances the decoder cursor to the next frame without decoding
	// pixel data. It returns false when the source is exhausted.
	Grab(handle any) bool

	// Retrieve decodes the most recently grabbed frame.
	Retrieve(handle any) (image any, ok bool)

	// Release frees all resources associated with handle.
	Release(handle any)

	// Properties reports the source's intrinsic properties. It is called
	// once, immediately after a successful Open.
	Properties(handle any) (SourceProperties, error)
}

// StatusListener receives structured StatusUpdate events emitted by the
// core. Implementations must not block for long: callbacks run
// synchronously on whichever goroutine emits them (the decoder worker, the
// consumer, or the caller of a lifecycle method). A panicking or slow
// listener must not be allowed to affect control flow; VideoSource recovers
// panics raised by a listener and writes a warning line about each one to
// stderr.
type StatusListener interface {
	OnStatusUpdate(StatusUpdate)
}

// StatusListenerFunc adapts a plain function to a StatusListener.
type StatusListenerFunc func(StatusUpdate)

func (f StatusListenerFunc) OnStatusUpdate(u StatusUpdate) {
	f(u)
}
