package videosource

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	defaultBufferSize          = 64
	defaultStreamPaceTolerance = 0.1
	defaultReaderPaceTolerance = 5.0
	defaultMaxDroppedInRow     = 16
)

// VideoSource owns the lifecycle state machine and coordinates the
// decoder worker goroutine with the consumer-facing read API. All
// externally triggered transitions (Start, Pause, Mute, Resume, Terminate,
// Restart) are serialized by stateChangeLock.
type VideoSource struct {
	reference any
	decoder   Decoder

	bufferSize          int
	fillStrategy        BufferFillingStrategy
	consumptionStrategy BufferConsumptionStrategy
	tuning              consumerTuning
	listener            StatusListener

	stateChangeLock sync.Mutex

	handle any
	props  *SourceProperties

	buffer   *BoundedFrameQueue
	consumer *StreamConsumer
	gate     *playbackGate

	workerWG  sync.WaitGroup
	sessionID string

	stateVal               atomic.Int32
	framesBufferingAllowed atomic.Bool
	eofLatched             atomic.Bool
}

// NewVideoSource constructs a VideoSource for reference, using decoder as
// the injected frame-decoding collaborator. The source starts in
// StateNotStarted; call Start to begin decoding.
func NewVideoSource(reference any, decoder Decoder, opts ...VideoSourceOption) *VideoSource {
	s := &VideoSource{
		reference:  reference,
		decoder:    decoder,
		bufferSize: defaultBufferSize,
		listener:   discardListener{},
		tuning: consumerTuning{
			streamPaceTolerance: defaultStreamPaceTolerance,
			readerPaceTolerance: defaultReaderPaceTolerance,
			minimumSamples:      defaultMinimumAdaptiveModeSamples,
			maxDroppedInRow:     defaultMaxDroppedInRow,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.gate = newPlaybackGate(false)
	s.consumer = newStreamConsumer(s.fillStrategy, s.tuning, s.listener)
	s.buffer = NewBoundedFrameQueue(s.bufferSize)
	s.stateVal.Store(int32(StateNotStarted))
	return s
}

func (s *VideoSource) state() StreamState {
	return StreamState(s.stateVal.Load())
}

// setState records a transition and emits SOURCE_STATE_UPDATE. It is a
// no-op (no event) if newState equals the current state.
func (s *VideoSource) setState(newState StreamState) {
	old := StreamState(s.stateVal.Swap(int32(newState)))
	if old == newState {
		return
	}
	s.emitSource(SeverityInfo, EventSourceStateUpdate, map[string]any{
		"previous_state": old.String(),
		"new_state":      newState.String(),
	})
}

func (s *VideoSource) emitSource(severity Severity, eventType string, payload map[string]any) {
	if payload == nil {
		payload = map[string]any{}
	}
	payload["session_id"] = s.sessionID
	safeNotify(s.listener, StatusUpdate{
		Timestamp: time.Now(),
		Severity:  severity,
		EventType: eventType,
		Context:   ContextVideoSource,
		Payload:   payload,
	})
}

// panicToError normalizes a recovered panic value into an error, preserving
// it unchanged if the decoder already panicked with one.
func panicToError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("%v", r)
}

func stateIn(state StreamState, allowed ...StreamState) bool {
	for _, a := range allowed {
		if state == a {
			return true
		}
	}
	return false
}

var (
	startEligible     = []StreamState{StateNotStarted, StateRestarting, StateEnded}
	pauseEligible     = []StreamState{StateRunning}
	muteEligible      = []StreamState{StateRunning}
	resumeEligible    = []StreamState{StatePaused, StateMuted}
	terminateEligible = []StreamState{StateMuted, StateRunning, StatePaused, StateRestarting, StateEnded, StateError}
	restartEligible   = []StreamState{StateMuted, StateRunning, StatePaused, StateEnded, StateError}
)

// Start opens the decoder, probes its SourceProperties, and spawns the
// decoder worker. Eligible from StateNotStarted, StateRestarting, StateEnded.
func (s *VideoSource) Start() error {
	s.stateChangeLock.Lock()
	defer s.stateChangeLock.Unlock()
	return s.startLocked()
}

func (s *VideoSource) startLocked() error {
	prev := s.state()
	if !stateIn(prev, startEligible...) {
		return &StreamOperationNotAllowedError{Operation: "start", State: prev}
	}

	s.setState(StateInitialising)

	handle, err := s.decoder.Open(s.reference)
	if err != nil {
		s.setState(StateError)
		return &SourceConnectionError{Reference: s.reference, Err: err}
	}

	props, err := s.decoder.Properties(handle)
	if err != nil {
		s.decoder.Release(handle)
		s.setState(StateError)
		return &SourceConnectionError{Reference: s.reference, Err: err}
	}

	s.handle = handle
	s.props = &props
	s.sessionID = ulid.Make().String()

	s.consumer.reset(props)
	if s.consumptionStrategy == ConsumptionStrategyUnset {
		if props.IsFile() {
			s.consumptionStrategy = ConsumeLazy
		} else {
			s.consumptionStrategy = ConsumeEager
		}
	}

	s.gate.set()
	s.framesBufferingAllowed.Store(true)
	s.eofLatched.Store(false)
	s.buffer = NewBoundedFrameQueue(s.bufferSize)

	s.workerWG.Add(1)
	go s.runWorker(handle, props)
	return nil
}

// Pause clears the playback gate; the decoder worker blocks at its next
// gate wait. Eligible from StateRunning only.
func (s *VideoSource) Pause() error {
	s.stateChangeLock.Lock()
	defer s.stateChangeLock.Unlock()

	prev := s.state()
	if !stateIn(prev, pauseEligible...) {
		return &StreamOperationNotAllowedError{Operation: "pause", State: prev}
	}
	s.gate.clear()
	s.setState(StatePaused)
	return nil
}

// Mute stops frames from reaching the buffer while keeping the decoder
// worker grabbing (and thus the live stream alive). Eligible from
// StateRunning only.
func (s *VideoSource) Mute() error {
	s.stateChangeLock.Lock()
	defer s.stateChangeLock.Unlock()

	prev := s.state()
	if !stateIn(prev, muteEligible...) {
		return &StreamOperationNotAllowedError{Operation: "mute", State: prev}
	}
	s.framesBufferingAllowed.Store(false)
	s.setState(StateMuted)
	return nil
}

// Resume returns to StateRunning from StatePaused or StateMuted.
func (s *VideoSource) Resume() error {
	s.stateChangeLock.Lock()
	defer s.stateChangeLock.Unlock()

	prev := s.state()
	if !stateIn(prev, resumeEligible...) {
		return &StreamOperationNotAllowedError{Operation: "resume", State: prev}
	}
	s.resumeInternal(prev)
	return nil
}

// resumeInternal performs the state-specific unlock actions of resume
// without checking eligibility; it is reused by Resume and by the
// termination path's "resume before terminating" step.
func (s *VideoSource) resumeInternal(prev StreamState) {
	switch prev {
	case StatePaused:
		s.consumer.resetStreamPaceOnly()
		s.gate.set()
	case StateMuted:
		s.framesBufferingAllowed.Store(true)
	}
	s.setState(StateRunning)
}

// shutdownWorker ensures no decoder worker remains alive for prev, resuming
// first if necessary so the worker can observe StateTerminating, then joins
// it. If drain is true it additionally blocks until the buffer is fully
// drained.
func (s *VideoSource) shutdownWorker(prev StreamState, drain bool) {
	workerAlive := stateIn(prev, StateInitialising, StateRunning, StatePaused, StateMuted, StateRestarting)
	if workerAlive {
		if prev == StatePaused || prev == StateMuted {
			s.resumeInternal(prev)
		}
		s.setState(StateTerminating)
		s.gate.set()
		s.workerWG.Wait()
	}
	if drain {
		s.buffer.Join()
	}
}

// Terminate stops the decoder worker and joins it. If drain is true,
// Terminate additionally blocks until the buffer reports empty (I5);
// otherwise the buffer may still hold frames (I6). The resulting state is
// StateEnded, unless the source was already StateError, which is preserved.
func (s *VideoSource) Terminate(drain bool) error {
	s.stateChangeLock.Lock()
	defer s.stateChangeLock.Unlock()
	return s.terminateLocked(drain)
}

func (s *VideoSource) terminateLocked(drain bool) error {
	prev := s.state()
	if !stateIn(prev, terminateEligible...) {
		return &StreamOperationNotAllowedError{Operation: "terminate", State: prev}
	}

	s.shutdownWorker(prev, drain)

	final := StateEnded
	if prev == StateError {
		final = StateError
	}
	s.setState(final)
	return nil
}

// Restart is a fresh decode from the beginning: it tears down any live
// worker (without the Terminate error-preservation rule) and runs Start
// again.
func (s *VideoSource) Restart(drain bool) error {
	s.stateChangeLock.Lock()
	defer s.stateChangeLock.Unlock()

	prev := s.state()
	if !stateIn(prev, restartEligible...) {
		return &StreamOperationNotAllowedError{Operation: "restart", State: prev}
	}

	s.setState(StateRestarting)
	s.shutdownWorker(prev, drain)

	s.gate = newPlaybackGate(false)
	s.framesBufferingAllowed.Store(false)
	s.handle = nil
	s.props = nil

	return s.startLocked()
}

// runWorker is the decoder worker's main loop. It owns handle
// exclusively until it releases it on exit.
func (s *VideoSource) runWorker(handle any, props SourceProperties) {
	defer s.workerWG.Done()
	defer func() {
		if r := recover(); r != nil {
			decErr := &InternalDecoderError{Err: panicToError(r)}
			s.decoder.Release(handle)
			s.setState(StateError)
			s.emitSource(SeverityError, EventSourceError, map[string]any{
				"error_type":    fmt.Sprintf("%T", decErr),
				"error_message": decErr.Error(),
				"error_context": ContextVideoSource,
			})
		}
	}()

	s.setState(StateRunning)
	s.emitSource(SeverityInfo, EventVideoConsumptionStarted, nil)

	declaredFPS := props.FPS
	for {
		if s.state() == StateTerminating {
			break
		}
		s.gate.wait()
		if !s.consumer.consumeFrame(s.decoder, handle, declaredFPS, s.buffer, s.framesBufferingAllowed.Load()) {
			break
		}
	}

	// The sentinel is appended even to a full buffer (which then holds
	// bufferSize frames plus the sentinel), so the worker can always exit
	// and be joined, with or without a reader.
	s.buffer.mu.Lock()
	s.buffer.items = append(s.buffer.items, endOfStreamSentinel)
	s.buffer.notEmpty.Signal()
	s.buffer.mu.Unlock()
	s.decoder.Release(handle)
	s.setState(StateEnded)
	s.emitSource(SeverityInfo, EventVideoConsumptionFinished, nil)
}

// FrameReady reports, without blocking, whether the buffer holds at least
// one item.
func (s *VideoSource) FrameReady() bool {
	return !s.buffer.IsEmpty()
}

// ReadFrame retrieves the next frame according to the configured
// BufferConsumptionStrategy. It returns EndOfStreamError once the
// end-of-stream sentinel has been consumed, and on every subsequent call
// until a successful Restart or Start.
func (s *VideoSource) ReadFrame() (VideoFrame, error) {
	if s.eofLatched.Load() {
		return VideoFrame{}, &EndOfStreamError{}
	}

	var item any
	if s.consumptionStrategy == ConsumeEager {
		latest, drained := s.buffer.DrainLatest()
		for i := 0; i < drained-1; i++ {
			s.buffer.TaskDone()
			s.consumer.notifyFrameConsumed()
		}
		item = latest
	} else {
		item = s.buffer.Get()
	}
	s.buffer.TaskDone()
	s.consumer.notifyFrameConsumed()

	if isEndOfStream(item) {
		s.eofLatched.Store(true)
		return VideoFrame{}, &EndOfStreamError{}
	}

	frame := item.(VideoFrame)
	s.emitSource(SeverityDebug, EventFrameConsumed, map[string]any{
		"frame_timestamp": frame.FrameTimestamp,
		"frame_id":        frame.FrameID,
	})
	return frame, nil
}

// Frames returns an iterator over ReadFrame, stopping when EndOfStreamError
// is returned. Errors other than EndOfStreamError are not expected from
// ReadFrame and, if encountered, also stop iteration.
func (s *VideoSource) Frames() func(yield func(VideoFrame) bool) {
	return func(yield func(VideoFrame) bool) {
		for {
			frame, err := s.ReadFrame()
			if err != nil {
				return
			}
			if !yield(frame) {
				return
			}
		}
	}
}

// DescribeSource returns a point-in-time snapshot of the source's
// configuration and state.
func (s *VideoSource) DescribeSource() SourceMetadata {
	return SourceMetadata{
		SourceProperties:          s.props,
		SourceReference:           s.reference,
		BufferSize:                s.bufferSize,
		State:                     s.state(),
		BufferFillingStrategy:     s.consumer.fillStrategy,
		BufferConsumptionStrategy: s.consumptionStrategy,
	}
}

// Metrics is an additive, non-normative view of the source's live pace and
// buffer occupancy, useful for dashboards; it does not affect any
// invariant.
type Metrics struct {
	FramesCaptured        uint64
	AdaptiveFramesDropped int
	BufferLength          int
	BufferCapacity        int
	StreamConsumptionFPS  float64
	DecodingFPS           float64
	ReaderFPS             float64
}

// Metrics returns a live snapshot of frame counters and pace estimates.
func (s *VideoSource) Metrics() Metrics {
	return Metrics{
		FramesCaptured:        s.consumer.frameCounter,
		AdaptiveFramesDropped: s.consumer.adaptiveDroppedInRow,
		BufferLength:          s.buffer.Len(),
		BufferCapacity:        s.bufferSize,
		StreamConsumptionFPS:  s.consumer.streamConsumptionPace.fps(),
		DecodingFPS:           s.consumer.decodingPace.fps(),
		ReaderFPS:             s.consumer.readerPace.fps(),
	}
}
