package videosource

import "time"

// consumerTuning bundles the adaptive-mode knobs a StreamConsumer needs;
// populated from VideoSource's options.
type consumerTuning struct {
	streamPaceTolerance float64
	readerPaceTolerance float64
	minimumSamples      int
	maxDroppedInRow     int
}

// StreamConsumer encapsulates the per-frame buffering policy: it decides,
// for every grabbed frame, whether to drop it, enqueue it, or adaptively
// skip it, based on the configured fill strategy and three independent
// PaceMonitors.
type StreamConsumer struct {
	fillStrategy BufferFillingStrategy
	tuning       consumerTuning
	listener     StatusListener

	frameCounter         uint64
	adaptiveDroppedInRow int

	streamConsumptionPace *PaceMonitor
	decodingPace          *PaceMonitor
	readerPace            *PaceMonitor
}

// newStreamConsumer builds a StreamConsumer. fillStrategy may be
// FillingStrategyUnset; it is resolved on reset.
func newStreamConsumer(fillStrategy BufferFillingStrategy, tuning consumerTuning, listener StatusListener) *StreamConsumer {
	return &StreamConsumer{
		fillStrategy:          fillStrategy,
		tuning:                tuning,
		listener:              listener,
		streamConsumptionPace: newPaceMonitor(tuning.minimumSamples),
		decodingPace:          newPaceMonitor(tuning.minimumSamples),
		readerPace:            newPaceMonitor(tuning.minimumSamples),
	}
}

// reset resolves an unset fill strategy based on source kind and clears all
// pace state.
func (c *StreamConsumer) reset(props SourceProperties) {
	if c.fillStrategy == FillingStrategyUnset {
		if props.IsFile() {
			c.fillStrategy = FillWait
		} else {
			c.fillStrategy = FillAdaptiveDropOldest
		}
	}
	c.streamConsumptionPace.reset()
	c.decodingPace.reset()
	c.readerPace.reset()
	c.adaptiveDroppedInRow = 0
}

// resetStreamPaceOnly is used by VideoSource.resume when returning from
// PAUSED.
func (c *StreamConsumer) resetStreamPaceOnly() {
	c.streamConsumptionPace.reset()
}

func (c *StreamConsumer) emit(eventType string, severity Severity, payload map[string]any) {
	if c.listener == nil {
		return
	}
	safeNotify(c.listener, StatusUpdate{
		Timestamp: time.Now(),
		Severity:  severity,
		EventType: eventType,
		Context:   ContextVideoSourceConsumer,
		Payload:   payload,
	})
}

// consumeFrame executes one iteration of the decoder worker's frame policy.
// It returns false when the source is exhausted (end of stream).
func (c *StreamConsumer) consumeFrame(decoder Decoder, handle any, declaredFPS float64, buffer *BoundedFrameQueue, framesBufferingAllowed bool) bool {
	frameTimestamp := time.Now()

	grabbed := decoder.Grab(handle)
	c.streamConsumptionPace.tick()
	if !grabbed {
		return false
	}

	c.frameCounter++
	frameID := c.frameCounter
	c.emit(EventFrameCaptured, SeverityDebug, map[string]any{
		"frame_timestamp": frameTimestamp,
		"frame_id":        frameID,
	})

	if !framesBufferingAllowed {
		c.emit(EventFrameDropped, SeverityDebug, map[string]any{
			"frame_timestamp": frameTimestamp,
			"frame_id":        frameID,
			"cause":           "muted",
		})
		return true
	}

	if c.shouldAdaptivelyDrop(declaredFPS) {
		c.adaptiveDroppedInRow++
		c.emit(EventFrameDropped, SeverityDebug, map[string]any{
			"frame_timestamp": frameTimestamp,
			"frame_id":        frameID,
			"cause":           "adaptive",
		})
		return true
	}
	c.adaptiveDroppedInRow = 0

	if !buffer.IsFull() || c.fillStrategy == FillWait {
		return c.decodeAndEnqueue(decoder, handle, buffer, frameID, frameTimestamp)
	}

	if c.fillStrategy.isDropOldest() {
		if _, err := buffer.TryGet(); err == nil {
			buffer.TaskDone()
		}
		c.emit(EventFrameDropped, SeverityDebug, map[string]any{
			"frame_timestamp": frameTimestamp,
			"frame_id":        frameID,
			"cause":           "drop_oldest",
		})
		return c.decodeAndEnqueue(decoder, handle, buffer, frameID, frameTimestamp)
	}

	// DROP_LATEST family: the frame was grabbed but never retrieved.
	c.emit(EventFrameDropped, SeverityDebug, map[string]any{
		"frame_timestamp": frameTimestamp,
		"frame_id":        frameID,
		"cause":           "drop_latest",
	})
	return true
}

// decodeAndEnqueue retrieves the pixel data for the already-grabbed frame
// and appends it to the buffer.
func (c *StreamConsumer) decodeAndEnqueue(decoder Decoder, handle any, buffer *BoundedFrameQueue, frameID uint64, frameTimestamp time.Time) bool {
	image, ok := decoder.Retrieve(handle)
	if !ok {
		return false
	}
	c.decodingPace.tick()
	buffer.Put(VideoFrame{
		Image:          image,
		FrameID:        frameID,
		FrameTimestamp: frameTimestamp,
	})
	return true
}

// shouldAdaptivelyDrop implements the dual-condition adaptive predicate:
// input pressure (source outruns grab) is checked independently from
// output pressure (decode outruns consumer).
func (c *StreamConsumer) shouldAdaptivelyDrop(declaredFPS float64) bool {
	if !c.fillStrategy.isAdaptive() {
		return false
	}
	if c.adaptiveDroppedInRow >= c.tuning.maxDroppedInRow {
		return false
	}
	if c.streamConsumptionPace.sampleCount() <= c.tuning.minimumSamples {
		return false
	}

	announced := declaredFPS
	measured := c.streamConsumptionPace.fps()
	if declaredFPS <= 0 {
		announced = measured
	}
	if announced-measured > c.tuning.streamPaceTolerance {
		return true
	}

	if c.readerPace.sampleCount() <= c.tuning.minimumSamples || c.decodingPace.sampleCount() <= c.tuning.minimumSamples {
		return false
	}

	projectedReader := projectedFPSIfTickNow(c.readerPace)
	decoding := c.decodingPace.fps()
	if decoding-projectedReader > c.tuning.readerPaceTolerance {
		return true
	}
	return false
}

// notifyFrameConsumed ticks the reader pace monitor; it is the only state
// this call touches.
func (c *StreamConsumer) notifyFrameConsumed() {
	c.readerPace.tick()
}
