package emit

import (
	"context"
	"sync"
)

// BufferedEmitter implements Emitter by storing events in memory, indexed
// by runID, with filtering for post-execution analysis and tests.
type BufferedEmitter struct {
	mu     sync.RWMutex
	events map[string][]Event
}

// HistoryFilter selects a subset of a run's history. Zero-valued fields
// impose no constraint; non-zero fields combine with AND.
type HistoryFilter struct {
	Kind          Kind
	AttemptID     string
	MetadataMatch func(map[string]interface{}) bool
}

// NewBufferedEmitter returns an empty BufferedEmitter, safe for concurrent
// use.
func NewBufferedEmitter() *BufferedEmitter {
	return &BufferedEmitter{events: make(map[string][]Event)}
}

// Emit stores an event under its RunID.
func (b *BufferedEmitter) Emit(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events[event.RunID] = append(b.events[event.RunID], event)
}

// EmitBatch stores multiple events in order.
func (b *BufferedEmitter) EmitBatch(_ context.Context, events []Event) error {
	for _, event := range events {
		b.Emit(event)
	}
	return nil
}

// Flush is a no-op: BufferedEmitter has nothing external to flush to.
func (b *BufferedEmitter) Flush(_ context.Context) error { return nil }

// GetHistory returns every event recorded for runID, in emission order.
func (b *BufferedEmitter) GetHistory(runID string) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	events := b.events[runID]
	result := make([]Event, len(events))
	copy(result, events)
	return result
}

// GetHistoryWithFilter returns the subset of runID's history matching
// filter, in emission order.
func (b *BufferedEmitter) GetHistoryWithFilter(runID string, filter HistoryFilter) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var result []Event
	for _, event := range b.events[runID] {
		if filter.Kind != "" && event.Kind != filter.Kind {
			continue
		}
		if filter.AttemptID != "" && event.AttemptID != filter.AttemptID {
			continue
		}
		if filter.MetadataMatch != nil && !filter.MetadataMatch(event.Metadata) {
			continue
		}
		result = append(result, event)
	}
	if result == nil {
		return []Event{}
	}
	return result
}

// Clear removes events for runID, or every run if runID is empty.
func (b *BufferedEmitter) Clear(runID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if runID == "" {
		b.events = make(map[string][]Event)
		return
	}
	delete(b.events, runID)
}
