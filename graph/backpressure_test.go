package graph

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/corvid-labs/chatgraph/graph/emit"
	"github.com/prometheus/client_golang/prometheus"
)

func TestDropOldestBufferEvictsOldest(t *testing.T) {
	buf := newDropOldestBuffer(2)
	buf.push(emit.Event{Kind: "a"})
	buf.push(emit.Event{Kind: "b"})
	buf.push(emit.Event{Kind: "c"})

	if buf.dropped != 1 {
		t.Fatalf("dropped = %d, want 1", buf.dropped)
	}
	items := buf.drain()
	if len(items) != 2 || items[0].Kind != "b" || items[1].Kind != "c" {
		t.Fatalf("unexpected items after eviction: %+v", items)
	}
}

func TestDropOldestBufferDrainEmptiesQueue(t *testing.T) {
	buf := newDropOldestBuffer(4)
	buf.push(emit.Event{Kind: "a"})
	first := buf.drain()
	if len(first) != 1 {
		t.Fatalf("expected 1 item, got %d", len(first))
	}
	if second := buf.drain(); second != nil {
		t.Fatalf("expected nil after drain, got %+v", second)
	}
}

// recordingEmitter signals a channel on every Emit so tests can wait for
// boundedEventSink's background drain without sleeping arbitrarily.
type recordingEmitter struct {
	mu     sync.Mutex
	events []emit.Event
	notify chan struct{}
}

func newRecordingEmitter() *recordingEmitter {
	return &recordingEmitter{notify: make(chan struct{}, 256)}
}

func (r *recordingEmitter) Emit(event emit.Event) {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
	r.notify <- struct{}{}
}

func (r *recordingEmitter) EmitBatch(ctx context.Context, events []emit.Event) error {
	for _, e := range events {
		r.Emit(e)
	}
	return nil
}

func (r *recordingEmitter) Flush(ctx context.Context) error { return nil }

func (r *recordingEmitter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestBoundedEventSinkDeliversAsynchronously(t *testing.T) {
	rec := newRecordingEmitter()
	sink := newBoundedEventSink(rec, 16, nil)
	defer sink.Close()

	sink.Emit(emit.Event{Kind: "runStarted"})
	sink.Emit(emit.Event{Kind: "runFinished"})

	for i := 0; i < 2; i++ {
		select {
		case <-rec.notify:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for event %d to drain", i)
		}
	}
	if rec.count() != 2 {
		t.Fatalf("count = %d, want 2", rec.count())
	}
}

func TestBoundedEventSinkDropsOldestUnderPressureAndCountsIt(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	sink := newBoundedEventSink(&blockingEmitter{}, 1, metrics)
	// Deliberately not Close()d: the drain goroutine is permanently stuck
	// inside blockingEmitter.Emit by design, so Close would block forever
	// waiting for it to exit. The leaked goroutine does not keep the test
	// binary alive past this test.

	// Every event after the first queued one competes for the single
	// buffer slot while the drain goroutine is stuck delivering that one.
	for i := 0; i < 5; i++ {
		sink.Emit(emit.Event{Kind: "modelToken"})
	}

	deadline := time.Now().Add(2 * time.Second)
	for sink.Dropped() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if sink.Dropped() == 0 {
		t.Fatalf("expected at least one dropped event")
	}
}

// blockingEmitter never returns from Emit, simulating a stalled downstream
// sink so events queue up and trigger the drop-oldest path.
type blockingEmitter struct{}

func (blockingEmitter) Emit(emit.Event) { select {} }

func (blockingEmitter) EmitBatch(context.Context, []emit.Event) error { return nil }

func (blockingEmitter) Flush(context.Context) error { return nil }
