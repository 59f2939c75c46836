package videosource

import (
	"errors"
	"sync"
)

// ErrQueueFull is returned by TryPut when the queue has no free slot.
var ErrQueueFull = errors.New("video source: queue is full")

// ErrQueueEmpty is returned by TryGet when the queue holds no item.
var ErrQueueEmpty = errors.New("video source: queue is empty")

// endOfStream is the distinguished sentinel value placed on the queue when
// the decoder worker exits.
type endOfStream struct{}

// endOfStreamSentinel is the sentinel value appended to the queue by the decoder
// worker on exit. Items retrieved from the queue are compared against this
// value with isEndOfStream.
var endOfStreamSentinel = endOfStream{}

func isEndOfStream(v any) bool {
	_, ok := v.(endOfStream)
	return ok
}

// BoundedFrameQueue is a bounded FIFO carrying VideoFrame values or the
// end-of-stream sentinel, with Python queue.Queue-style task-counting join
// semantics: every item retrieved via Get/TryGet increments an unfinished
// task counter, decremented by TaskDone; Join blocks until the counter
// reaches zero.
type BoundedFrameQueue struct {
	mu       sync.Mutex
	notFull  *sync.Cond
	notEmpty *sync.Cond
	allDone  *sync.Cond

	items    []any
	capacity int

	unfinished int
}

// NewBoundedFrameQueue creates a queue with the given capacity. capacity
// must be at least 1.
func NewBoundedFrameQueue(capacity int) *BoundedFrameQueue {
	if capacity < 1 {
		capacity = 1
	}
	q := &BoundedFrameQueue{
		items:    make([]any, 0, capacity),
		capacity: capacity,
	}
	q.notFull = sync.NewCond(&q.mu)
	q.notEmpty = sync.NewCond(&q.mu)
	q.allDone = sync.NewCond(&q.mu)
	return q
}

// Put appends item, blocking the caller while the queue is full.
func (q *BoundedFrameQueue) Put(item any) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) >= q.capacity {
		q.notFull.Wait()
	}
	q.items = append(q.items, item)
	q.notEmpty.Signal()
	q.allDone.Broadcast()
}

// TryPut appends item without blocking, failing with ErrQueueFull if the
// queue has no free slot.
func (q *BoundedFrameQueue) TryPut(item any) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) >= q.capacity {
		return ErrQueueFull
	}
	q.items = append(q.items, item)
	q.notEmpty.Signal()
	q.allDone.Broadcast()
	return nil
}

// Get removes and returns the head item, blocking while the queue is empty.
// It increments the unfinished-task counter; the caller must eventually call
// TaskDone.
func (q *BoundedFrameQueue) Get() any {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 {
		q.notEmpty.Wait()
	}
	item := q.items[0]
	q.items = q.items[1:]
	q.unfinished++
	q.notFull.Signal()
	q.allDone.Broadcast()
	return item
}

// TryGet removes and returns the head item without blocking, failing with
// ErrQueueEmpty if the queue holds no item.
func (q *BoundedFrameQueue) TryGet() (any, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil, ErrQueueEmpty
	}
	item := q.items[0]
	q.items = q.items[1:]
	q.unfinished++
	q.notFull.Signal()
	q.allDone.Broadcast()
	return item, nil
}

// DrainLatest removes every currently queued item and returns the last one,
// blocking until at least one item is present. Every removed item (including
// the discarded ones) is counted as an unfinished task, so the caller owes
// one TaskDone call per drained item, matching the EAGER consumption
// strategy: one task_done per item pulled.
func (q *BoundedFrameQueue) DrainLatest() (latest any, drained int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 {
		q.notEmpty.Wait()
	}
	drained = len(q.items)
	latest = q.items[drained-1]
	q.items = q.items[:0]
	q.unfinished += drained
	q.notFull.Broadcast()
	return latest, drained
}

// TaskDone marks one previously retrieved item as processed.
func (q *BoundedFrameQueue) TaskDone() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.unfinished == 0 {
		return
	}
	q.unfinished--
	if q.unfinished == 0 {
		q.allDone.Broadcast()
	}
}

// Join blocks until the queue is empty and every retrieved item has been
// marked done via TaskDone. A concurrent consumer must keep draining the
// queue for Join to return; Join itself never removes items.
func (q *BoundedFrameQueue) Join() {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.unfinished > 0 || len(q.items) > 0 {
		q.allDone.Wait()
	}
}

// IsFull reports whether the queue is at capacity.
func (q *BoundedFrameQueue) IsFull() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) >= q.capacity
}

// IsEmpty reports whether the queue holds no item.
func (q *BoundedFrameQueue) IsEmpty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) == 0
}

// Len reports the current number of queued items.
func (q *BoundedFrameQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
