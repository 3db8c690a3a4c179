package store

import (
	"context"
	"sync"

	"github.com/corvid-labs/chatgraph/graph"
)

// MemoryStore is an in-memory graph.CheckpointStore. It keeps every
// checkpoint ever saved, per thread, and is intended for tests and
// single-process development — state is lost on process exit.
type MemoryStore struct {
	mu          sync.RWMutex
	checkpoints map[string][]record // threadID -> checkpoints, append-only
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{checkpoints: make(map[string][]record)}
}

func (m *MemoryStore) Save(_ context.Context, cp graph.Checkpoint) error {
	r, err := toRecord(cp)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkpoints[cp.ThreadID] = append(m.checkpoints[cp.ThreadID], r)
	return nil
}

func (m *MemoryStore) LoadLatest(_ context.Context, threadID string) (graph.Checkpoint, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	best, ok := latestOf(m.checkpoints[threadID])
	if !ok {
		return graph.Checkpoint{}, false, nil
	}
	cp, err := fromRecord(best)
	if err != nil {
		return graph.Checkpoint{}, false, err
	}
	return cp, true, nil
}
