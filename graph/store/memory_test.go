package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/corvid-labs/chatgraph/graph"
)

func TestMemoryStoreSaveAndLoadLatest(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if _, ok, err := s.LoadLatest(ctx, "thread-1"); err != nil || ok {
		t.Fatalf("expected no checkpoint yet, got ok=%v err=%v", ok, err)
	}

	cp := graph.Checkpoint{
		ID:            "cp-001",
		ThreadID:      "thread-1",
		RunID:         "run-1",
		StepIndex:     1,
		Frontier:      []string{"model"},
		StoreSnapshot: map[string]json.RawMessage{
			"messages": json.RawMessage(`[{"id":"m1","role":"user","content":"hello"}]`),
		},
	}
	if err := s.Save(ctx, cp); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, ok, err := s.LoadLatest(ctx, "thread-1")
	if err != nil || !ok {
		t.Fatalf("LoadLatest: ok=%v err=%v", ok, err)
	}
	if got.ID != cp.ID || got.StepIndex != cp.StepIndex {
		t.Fatalf("unexpected checkpoint: %+v", got)
	}
}

func TestMemoryStoreLoadLatestPicksHighestStep(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for _, step := range []uint32{1, 3, 2} {
		if err := s.Save(ctx, graph.Checkpoint{ID: "cp", ThreadID: "t", StepIndex: step}); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	got, ok, err := s.LoadLatest(ctx, "t")
	if err != nil || !ok {
		t.Fatalf("LoadLatest: ok=%v err=%v", ok, err)
	}
	if got.StepIndex != 3 {
		t.Fatalf("expected step 3, got %d", got.StepIndex)
	}
}

func TestMemoryStoreRoundTripsPendingInterrupt(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	cp := graph.Checkpoint{
		ID:               "cp-interrupt",
		ThreadID:         "thread-2",
		StepIndex:        1,
		PendingInterrupt: &graph.Interrupt{ID: "int-1", NodeID: "toolGate", Payload: map[string]any{"tool": "search"}},
	}
	if err := s.Save(ctx, cp); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, ok, err := s.LoadLatest(ctx, "thread-2")
	if err != nil || !ok {
		t.Fatalf("LoadLatest: ok=%v err=%v", ok, err)
	}
	if got.PendingInterrupt == nil || got.PendingInterrupt.ID != "int-1" || got.PendingInterrupt.NodeID != "toolGate" {
		t.Fatalf("unexpected pending interrupt: %+v", got.PendingInterrupt)
	}
}

func TestMemoryStoreIsolatesThreads(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Save(ctx, graph.Checkpoint{ID: "cp", ThreadID: "thread-a", StepIndex: 9}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, ok, err := s.LoadLatest(ctx, "thread-b"); err != nil || ok {
		t.Fatalf("expected thread-b to have no checkpoints, got ok=%v err=%v", ok, err)
	}
}
