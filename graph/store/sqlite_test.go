package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/corvid-labs/chatgraph/graph"
)

func openTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStoreSaveAndLoadLatest(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()

	cp := graph.Checkpoint{
		ID:            "cp-001",
		ThreadID:      "thread-1",
		RunID:         "run-1",
		StepIndex:     1,
		Frontier:      []string{"model", "toolGate"},
		StoreSnapshot: map[string]json.RawMessage{
			"messages": json.RawMessage(`[{"id":"m1","role":"user","content":"hi"}]`),
		},
	}
	if err := s.Save(ctx, cp); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, ok, err := s.LoadLatest(ctx, "thread-1")
	if err != nil || !ok {
		t.Fatalf("LoadLatest: ok=%v err=%v", ok, err)
	}
	if got.ID != cp.ID || len(got.Frontier) != 2 || got.Frontier[1] != "toolGate" {
		t.Fatalf("unexpected checkpoint: %+v", got)
	}
}

func TestSQLiteStoreLoadLatestTieBreaksByID(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()

	for _, id := range []string{"cp-a", "cp-z", "cp-m"} {
		if err := s.Save(ctx, graph.Checkpoint{ID: id, ThreadID: "t", StepIndex: 4}); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	got, ok, err := s.LoadLatest(ctx, "t")
	if err != nil || !ok {
		t.Fatalf("LoadLatest: ok=%v err=%v", ok, err)
	}
	if got.ID != "cp-z" {
		t.Fatalf("expected cp-z, got %s", got.ID)
	}
}

func TestSQLiteStoreLoadLatestNoCheckpoints(t *testing.T) {
	s := openTestSQLite(t)
	_, ok, err := s.LoadLatest(context.Background(), "nonexistent")
	if err != nil || ok {
		t.Fatalf("expected ok=false err=nil, got ok=%v err=%v", ok, err)
	}
}
