package emit

import (
	"context"
	"testing"
	"time"
)

func sampleEvent(kind Kind) Event {
	return Event{
		RunID:     "run-1",
		AttemptID: "attempt-1",
		Timestamp: time.Unix(0, 0),
		Kind:      kind,
		Metadata:  map[string]interface{}{"nodeID": "model"},
	}
}

func TestEmittersSatisfyInterface(t *testing.T) {
	var _ Emitter = (*LogEmitter)(nil)
	var _ Emitter = (*BufferedEmitter)(nil)
	var _ Emitter = (*NullEmitter)(nil)
}

func TestNullEmitterDiscards(t *testing.T) {
	e := NewNullEmitter()
	e.Emit(sampleEvent(RunStarted))
	if err := e.EmitBatch(context.Background(), []Event{sampleEvent(RunFinished)}); err != nil {
		t.Fatalf("EmitBatch: %v", err)
	}
	if err := e.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
}
