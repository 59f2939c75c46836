package videosource

import "fmt"

// StreamOperationNotAllowedError is raised when a lifecycle method is
// invoked from a state that is not in that operation's eligible set. No
// state change occurs.
type StreamOperationNotAllowedError struct {
	Operation string
	State     StreamState
}

func (e *StreamOperationNotAllowedError) Error() string {
	return fmt.Sprintf("video source: operation %q not allowed from state %s", e.Operation, e.State)
}

// SourceConnectionError is raised when the Decoder fails to open the
// configured source reference. The source transitions to StateError.
type SourceConnectionError struct {
	Reference any
	Err       error
}

func (e *SourceConnectionError) Error() string {
	return fmt.Sprintf("video source: failed to open %v: %v", e.Reference, e.Err)
}

func (e *SourceConnectionError) Unwrap() error {
	return e.Err
}

// EndOfStreamError is raised by ReadFrame once the end-of-stream sentinel
// has been consumed, and on every subsequent call until a successful
// Restart or Start.
type EndOfStreamError struct{}

func (e *EndOfStreamError) Error() string {
	return "video source: end of stream"
}

// InternalDecoderError wraps any error raised by the Decoder inside the
// worker goroutine. It never crosses the worker/caller boundary directly;
// it is only observable via the StateError transition and a SOURCE_ERROR
// event.
type InternalDecoderError struct {
	Err error
}

func (e *InternalDecoderError) Error() string {
	return fmt.Sprintf("video source: internal decoder error: %v", e.Err)
}

func (e *InternalDecoderError) Unwrap() error {
	return e.Err
}
