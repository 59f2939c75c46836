package videosource

// VideoSourceOption configures a VideoSource.
type VideoSourceOption func(*VideoSource)

// WithBufferSize sets the capacity of the underlying BoundedFrameQueue.
// Default 64.
func WithBufferSize(n int) VideoSourceOption {
	return func(s *VideoSource) {
		if n > 0 {
			s.bufferSize = n
		}
	}
}

// WithBufferFillingStrategy pins the fill strategy instead of letting it be
// chosen by source kind on start.
func WithBufferFillingStrategy(strategy BufferFillingStrategy) VideoSourceOption {
	return func(s *VideoSource) {
		s.fillStrategy = strategy
	}
}

// WithBufferConsumptionStrategy pins the consumption strategy instead of
// letting it be chosen by source kind on start.
func WithBufferConsumptionStrategy(strategy BufferConsumptionStrategy) VideoSourceOption {
	return func(s *VideoSource) {
		s.consumptionStrategy = strategy
	}
}

// WithAdaptiveStreamPaceTolerance sets the fps gap that triggers an
// input-pressure adaptive drop. Default 0.1.
func WithAdaptiveStreamPaceTolerance(tolerance float64) VideoSourceOption {
	return func(s *VideoSource) {
		s.tuning.streamPaceTolerance = tolerance
	}
}

// WithAdaptiveReaderPaceTolerance sets the fps gap that triggers an
// output-pressure adaptive drop. Default 5.0.
func WithAdaptiveReaderPaceTolerance(tolerance float64) VideoSourceOption {
	return func(s *VideoSource) {
		s.tuning.readerPaceTolerance = tolerance
	}
}

// WithMinimumAdaptiveModeSamples sets the warm-up sample count before
// adaptive drops may fire. Floored at 2. Default 10.
func WithMinimumAdaptiveModeSamples(n int) VideoSourceOption {
	return func(s *VideoSource) {
		if n < minAdaptiveModeSamples {
			n = minAdaptiveModeSamples
		}
		s.tuning.minimumSamples = n
	}
}

// WithMaximumAdaptiveFramesDroppedInRow sets how many consecutive adaptive
// drops are allowed before a frame is forced through. Default 16.
func WithMaximumAdaptiveFramesDroppedInRow(n int) VideoSourceOption {
	return func(s *VideoSource) {
		if n > 0 {
			s.tuning.maxDroppedInRow = n
		}
	}
}

// WithStatusListener attaches the StatusListener that receives every
// StatusUpdate emitted by this source.
func WithStatusListener(listener StatusListener) VideoSourceOption {
	return func(s *VideoSource) {
		if listener != nil {
			s.listener = listener
		}
	}
}
