package videosource

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedDecoder is a minimal in-package Decoder fake for StreamConsumer
// tests, which need access to StreamConsumer's unexported methods and so
// cannot live in an external test package alongside internal/fakedecoder.
type scriptedDecoder struct {
	mu            sync.Mutex
	frames        []any
	cursor        int
	retrieveFails bool
}

func (d *scriptedDecoder) Open(reference any) (any, error) { return d, nil }
func (d *scriptedDecoder) IsOpen(handle any) bool           { return true }

func (d *scriptedDecoder) Grab(handle any) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cursor < len(d.frames)
}

func (d *scriptedDecoder) Retrieve(handle any) (any, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.retrieveFails || d.cursor >= len(d.frames) {
		return nil, false
	}
	img := d.frames[d.cursor]
	d.cursor++
	return img, true
}

func (d *scriptedDecoder) Release(handle any) {}

func (d *scriptedDecoder) Properties(handle any) (SourceProperties, error) {
	return SourceProperties{}, nil
}

func newConsumerForTest(fillStrategy BufferFillingStrategy) *StreamConsumer {
	c := newStreamConsumer(fillStrategy, consumerTuning{
		streamPaceTolerance: defaultStreamPaceTolerance,
		readerPaceTolerance: defaultReaderPaceTolerance,
		minimumSamples:      minAdaptiveModeSamples,
		maxDroppedInRow:     defaultMaxDroppedInRow,
	}, discardListener{})
	c.reset(SourceProperties{})
	return c
}

func TestStreamConsumer_ConsumeFrame_EnqueuesUntilExhausted(t *testing.T) {
	t.Parallel()

	dec := &scriptedDecoder{frames: []any{"a", "b", "c"}}
	c := newConsumerForTest(FillWait)
	buf := NewBoundedFrameQueue(8)

	for i := 0; i < 3; i++ {
		ok := c.consumeFrame(dec, dec, 0, buf, true)
		require.True(t, ok)
	}
	ok := c.consumeFrame(dec, dec, 0, buf, true)
	assert.False(t, ok, "consumeFrame should report end of stream once Grab is exhausted")

	assert.Equal(t, 3, buf.Len())
}

func TestStreamConsumer_ConsumeFrame_MutedDropsWithoutEnqueue(t *testing.T) {
	t.Parallel()

	dec := &scriptedDecoder{frames: []any{"a"}}
	c := newConsumerForTest(FillWait)
	buf := NewBoundedFrameQueue(8)

	ok := c.consumeFrame(dec, dec, 0, buf, false)
	require.True(t, ok)
	assert.Equal(t, 0, buf.Len())
}

func TestStreamConsumer_ConsumeFrame_RetrieveFailureEndsStream(t *testing.T) {
	t.Parallel()

	dec := &scriptedDecoder{frames: []any{"a"}, retrieveFails: true}
	c := newConsumerForTest(FillWait)
	buf := NewBoundedFrameQueue(8)

	ok := c.consumeFrame(dec, dec, 0, buf, true)
	assert.False(t, ok)
}

func TestStreamConsumer_FillDropOldest_EvictsHeadWhenFull(t *testing.T) {
	t.Parallel()

	dec := &scriptedDecoder{frames: []any{"a", "b", "c"}}
	c := newConsumerForTest(FillDropOldest)
	buf := NewBoundedFrameQueue(2)

	for i := 0; i < 3; i++ {
		ok := c.consumeFrame(dec, dec, 0, buf, true)
		require.True(t, ok)
	}

	assert.Equal(t, 2, buf.Len())
	v, err := buf.TryGet()
	require.NoError(t, err)
	frame := v.(VideoFrame)
	assert.Equal(t, "b", frame.Image, "oldest frame 'a' should have been evicted")
}

func TestStreamConsumer_FillDropLatest_KeepsBufferAtCapacity(t *testing.T) {
	t.Parallel()

	dec := &scriptedDecoder{frames: []any{"a", "b", "c"}}
	c := newConsumerForTest(FillDropLatest)
	buf := NewBoundedFrameQueue(2)

	for i := 0; i < 3; i++ {
		ok := c.consumeFrame(dec, dec, 0, buf, true)
		require.True(t, ok)
	}

	assert.Equal(t, 2, buf.Len())
	v, err := buf.TryGet()
	require.NoError(t, err)
	frame := v.(VideoFrame)
	assert.Equal(t, "a", frame.Image, "FillDropLatest should keep the frames already enqueued")
}

func TestStreamConsumer_ShouldAdaptivelyDrop_RequiresWarmup(t *testing.T) {
	t.Parallel()

	c := newConsumerForTest(FillAdaptiveDropOldest)
	assert.False(t, c.shouldAdaptivelyDrop(30))
}

func TestStreamConsumer_ShouldAdaptivelyDrop_RespectsMaxDroppedInRow(t *testing.T) {
	t.Parallel()

	c := newConsumerForTest(FillAdaptiveDropOldest)
	c.adaptiveDroppedInRow = c.tuning.maxDroppedInRow
	assert.False(t, c.shouldAdaptivelyDrop(30))
}

func TestStreamConsumer_ShouldAdaptivelyDrop_NonAdaptiveStrategyNeverDrops(t *testing.T) {
	t.Parallel()

	c := newConsumerForTest(FillDropOldest)
	for i := 0; i < 100; i++ {
		c.streamConsumptionPace.tick()
	}
	assert.False(t, c.shouldAdaptivelyDrop(30))
}

func TestStreamConsumer_NotifyFrameConsumed_TicksReaderPace(t *testing.T) {
	t.Parallel()

	c := newConsumerForTest(FillWait)
	require.Equal(t, 0, c.readerPace.sampleCount())
	c.notifyFrameConsumed()
	assert.Equal(t, 1, c.readerPace.sampleCount())
}

func TestStreamConsumer_Reset_ResolvesUnsetStrategyBySourceKind(t *testing.T) {
	t.Parallel()

	c := newStreamConsumer(FillingStrategyUnset, consumerTuning{minimumSamples: minAdaptiveModeSamples, maxDroppedInRow: 16}, discardListener{})
	c.reset(SourceProperties{TotalFrames: 100})
	assert.Equal(t, FillWait, c.fillStrategy)

	c2 := newStreamConsumer(FillingStrategyUnset, consumerTuning{minimumSamples: minAdaptiveModeSamples, maxDroppedInRow: 16}, discardListener{})
	c2.reset(SourceProperties{TotalFrames: 0})
	assert.Equal(t, FillAdaptiveDropOldest, c2.fillStrategy)
}

func TestStreamConsumer_ResetStreamPaceOnly_LeavesOtherMonitorsIntact(t *testing.T) {
	t.Parallel()

	c := newConsumerForTest(FillWait)
	c.streamConsumptionPace.tick()
	c.decodingPace.tick()
	c.decodingPace.tick()

	c.resetStreamPaceOnly()

	assert.Equal(t, 0, c.streamConsumptionPace.sampleCount())
	assert.Equal(t, 2, c.decodingPace.sampleCount())
}

func TestStreamConsumer_EmitsStructuredEvents(t *testing.T) {
	t.Parallel()

	listener := &recordingListenerInternal{}
	c := newStreamConsumer(FillWait, consumerTuning{minimumSamples: minAdaptiveModeSamples, maxDroppedInRow: 16}, listener)
	c.reset(SourceProperties{})

	dec := &scriptedDecoder{frames: []any{"a"}}
	buf := NewBoundedFrameQueue(8)
	c.consumeFrame(dec, dec, 0, buf, true)

	assert.GreaterOrEqual(t, listener.countByEvent(EventFrameCaptured), 1)
}

// recordingListenerInternal mirrors the external recordingListener test
// helper but lives in-package since it is used by tests that need
// unexported access elsewhere in this file.
type recordingListenerInternal struct {
	mu      sync.Mutex
	updates []StatusUpdate
}

func (r *recordingListenerInternal) OnStatusUpdate(u StatusUpdate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, u)
}

func (r *recordingListenerInternal) countByEvent(eventType string) int {
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
