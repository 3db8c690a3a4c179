package emit

import "testing"

func TestBufferedEmitterHistory(t *testing.T) {
	e := NewBufferedEmitter()
	e.Emit(sampleEvent(RunStarted))
	e.Emit(sampleEvent(StepStarted))

	history := e.GetHistory("run-1")
	if len(history) != 2 {
		t.Fatalf("expected 2 events, got %d", len(history))
	}
	if history[0].Kind != RunStarted || history[1].Kind != StepStarted {
		t.Fatalf("events out of order: %+v", history)
	}
}

func TestBufferedEmitterGetHistoryUnknownRun(t *testing.T) {
	e := NewBufferedEmitter()
	history := e.GetHistory("missing")
	if len(history) != 0 {
		t.Fatalf("expected empty history, got %v", history)
	}
}

func TestBufferedEmitterFilter(t *testing.T) {
	e := NewBufferedEmitter()
	e.Emit(sampleEvent(RunStarted))
	e.Emit(sampleEvent(StepStarted))
	e.Emit(sampleEvent(StepFinished))

	filtered := e.GetHistoryWithFilter("run-1", HistoryFilter{Kind: StepStarted})
	if len(filtered) != 1 || filtered[0].Kind != StepStarted {
		t.Fatalf("expected 1 stepStarted event, got %+v", filtered)
	}
}

func TestBufferedEmitterClear(t *testing.T) {
	e := NewBufferedEmitter()
	e.Emit(sampleEvent(RunStarted))
	e.Clear("run-1")
	if len(e.GetHistory("run-1")) != 0 {
		t.Fatalf("expected history cleared")
	}
}
