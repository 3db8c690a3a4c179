package graph

import (
	"context"
	"sync"

	"github.com/corvid-labs/chatgraph/graph/emit"
)

// defaultEventBufferCapacity bounds how many events a boundedEventSink
// queues ahead of the real sink before it starts dropping the oldest
// queued event, per DESIGN.md's drop-oldest backpressure decision.
const defaultEventBufferCapacity = 1024

// dropOldestBuffer is a bounded FIFO of emit.Event that evicts its oldest
// element once full rather than growing unbounded or blocking the
// producer. It is not safe for concurrent use; boundedEventSink owns the
// locking.
type dropOldestBuffer struct {
	capacity int
	items    []emit.Event
	dropped  uint64
}

func newDropOldestBuffer(capacity int) *dropOldestBuffer {
	if capacity <= 0 {
		capacity = defaultEventBufferCapacity
	}
	return &dropOldestBuffer{capacity: capacity}
}

// push appends event, evicting the oldest queued event and counting the
// eviction if the buffer is already at capacity.
func (b *dropOldestBuffer) push(event emit.Event) {
	if len(b.items) >= b.capacity {
		b.items = b.items[1:]
		b.dropped++
	}
	b.items = append(b.items, event)
}

// drain removes and returns every currently queued event, in FIFO order.
func (b *dropOldestBuffer) drain() []emit.Event {
	if len(b.items) == 0 {
		return nil
	}
	out := b.items
	b.items = nil
	return out
}

// boundedEventSink wraps a real emit.Emitter with a bounded, drop-oldest
// queue and a background goroutine that drains it asynchronously, so a
// slow or stalled downstream sink can never block a scheduler step.
// EmitBatch and Flush pass straight through to the wrapped sink, since
// both already carry their own context and are called synchronously by
// callers who want to observe their outcome.
type boundedEventSink struct {
	next emit.Emitter

	mu      sync.Mutex
	cond    *sync.Cond
	buf     *dropOldestBuffer
	closed  bool
	metrics *Metrics

	done chan struct{}
}

// newBoundedEventSink wraps next, queuing up to capacity events before
// dropping the oldest queued one. If metrics is non-nil, every drop
// increments its eventsDropped counter.
func newBoundedEventSink(next emit.Emitter, capacity int, metrics *Metrics) *boundedEventSink {
	s := &boundedEventSink{
		next:    next,
		buf:     newDropOldestBuffer(capacity),
		metrics: metrics,
		done:    make(chan struct{}),
	}
	s.cond = sync.NewCond(&s.mu)
	go s.drainLoop()
	return s
}

// Emit queues event for asynchronous delivery, dropping the oldest queued
// event if the buffer is full.
func (s *boundedEventSink) Emit(event emit.Event) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	before := s.buf.dropped
	s.buf.push(event)
	if s.buf.dropped > before && s.metrics != nil {
		s.metrics.IncEventsDropped()
	}
	s.cond.Signal()
	s.mu.Unlock()
}

// EmitBatch passes through to the wrapped sink unbuffered: a caller using
// EmitBatch already controls batching and wants its error back.
func (s *boundedEventSink) EmitBatch(ctx context.Context, events []emit.Event) error {
	return s.next.EmitBatch(ctx, events)
}

// Flush drains the queue into the wrapped sink and then flushes it.
func (s *boundedEventSink) Flush(ctx context.Context) error {
	s.mu.Lock()
	pending := s.buf.drain()
	s.mu.Unlock()
	for _, e := range pending {
		s.next.Emit(e)
	}
	return s.next.Flush(ctx)
}

// Dropped returns the number of events evicted by the drop-oldest policy
// so far.
func (s *boundedEventSink) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.dropped
}

// Close stops the drain goroutine after delivering any events still
// queued. It is safe to call once per sink; further Emit calls after
// Close are silently discarded.
func (s *boundedEventSink) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.cond.Signal()
	s.mu.Unlock()
	<-s.done
}

func (s *boundedEventSink) drainLoop() {
	defer close(s.done)
	for {
		s.mu.Lock()
		for len(s.buf.items) == 0 && !s.closed {
			s.cond.Wait()
		}
		pending := s.buf.drain()
		closed := s.closed
		s.mu.Unlock()

		for _, e := range pending {
			s.next.Emit(e)
		}
		if closed && len(pending) == 0 {
			return
		}
	}
}
