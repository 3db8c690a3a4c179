package emit

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLogEmitterText(t *testing.T) {
	var buf bytes.Buffer
	e := NewLogEmitter(&buf, false)
	e.Emit(sampleEvent(StepStarted))

	out := buf.String()
	if !strings.Contains(out, "[stepStarted]") {
		t.Fatalf("expected kind in output, got %q", out)
	}
	if !strings.Contains(out, "runID=run-1") {
		t.Fatalf("expected runID in output, got %q", out)
	}
}

func TestLogEmitterJSON(t *testing.T) {
	var buf bytes.Buffer
	e := NewLogEmitter(&buf, true)
	e.Emit(sampleEvent(TaskStarted))

	var decoded map[string]interface{}
	line := strings.TrimSpace(buf.String())
	if err := json.Unmarshal([]byte(line), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["kind"] != string(TaskStarted) {
		t.Fatalf("expected kind taskStarted, got %v", decoded["kind"])
	}
}

func TestLogEmitterEmitBatchPreservesOrder(t *testing.T) {
	var buf bytes.Buffer
	e := NewLogEmitter(&buf, true)
	events := []Event{sampleEvent(StepStarted), sampleEvent(StepFinished)}
	if err := e.EmitBatch(nil, events); err != nil {
		t.Fatalf("EmitBatch: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], string(StepStarted)) || !strings.Contains(lines[1], string(StepFinished)) {
		t.Fatalf("events out of order: %v", lines)
	}
}

func TestLogEmitterFlushNoop(t *testing.T) {
	e := NewLogEmitter(&bytes.Buffer{}, false)
	if err := e.Flush(nil); err != nil {
		t.Fatalf("Flush: %v", err)
	}
}
