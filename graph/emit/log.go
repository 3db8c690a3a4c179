// Package emit provides event emission and observability for graph execution.
package emit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// LogEmitter implements Emitter by writing structured log output to a
// writer.
//
// Supports two output modes:
//   - Text mode (default): human-readable, one line per event.
//   - JSON mode: one JSON object per line (JSONL).
type LogEmitter struct {
	writer   io.Writer
	jsonMode bool
}

// NewLogEmitter creates a new LogEmitter.
//
//   - writer: where to write output (e.g. os.Stdout, a file)
//   - jsonMode: JSON lines if true, text if false
func NewLogEmitter(writer io.Writer, jsonMode bool) *LogEmitter {
	if writer == nil {
		writer = os.Stdout
	}
	return &LogEmitter{writer: writer, jsonMode: jsonMode}
}

// Emit writes an event to the configured writer.
func (l *LogEmitter) Emit(event Event) {
	if l.jsonMode {
		l.emitJSON(event)
	} else {
		l.emitText(event)
	}
}

func (l *LogEmitter) emitJSON(event Event) {
	data, err := json.Marshal(struct {
		RunID     string                 `json:"runID"`
		AttemptID string                 `json:"attemptID"`
		Timestamp string                 `json:"timestamp"`
		Kind      Kind                   `json:"kind"`
		Metadata  map[string]interface{} `json:"metadata"`
	}{
		RunID:     event.RunID,
		AttemptID: event.AttemptID,
		Timestamp: event.Timestamp.Format("2006-01-02T15:04:05.000000000Z07:00"),
		Kind:      event.Kind,
		Metadata:  event.Metadata,
	})
	if err != nil {
		_, _ = fmt.Fprintf(l.writer, "{\"error\":\"failed to marshal event: %v\"}\n", err)
		return
	}
	_, _ = fmt.Fprintf(l.writer, "%s\n", data)
}

func (l *LogEmitter) emitText(event Event) {
	_, _ = fmt.Fprintf(l.writer, "[%s] runID=%s attemptID=%s", event.Kind, event.RunID, event.AttemptID)
	if len(event.Metadata) > 0 {
		metaJSON, err := json.Marshal(event.Metadata)
		if err == nil {
			_, _ = fmt.Fprintf(l.writer, " meta=%s", metaJSON)
		} else {
			_, _ = fmt.Fprintf(l.writer, " meta=%v", event.Metadata)
		}
	}
	_, _ = fmt.Fprint(l.writer, "\n")
}

// EmitBatch writes multiple events in order.
func (l *LogEmitter) EmitBatch(_ context.Context, events []Event) error {
	for _, event := range events {
		l.Emit(event)
	}
	return nil
}

// Flush is a no-op: LogEmitter writes directly without buffering.
func (l *LogEmitter) Flush(_ context.Context) error {
	return nil
}
