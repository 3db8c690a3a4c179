// Package store provides checkpoint store backends for graph.Runtime.
//
// Each backend implements graph.CheckpointStore: save a checkpoint, and
// load the latest one for a thread (largest stepIndex, ties broken by
// lexicographically largest id, per the runtime's resume contract).
package store

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/corvid-labs/chatgraph/graph"
)

// ErrNotFound is not returned by the backends in this package: LoadLatest
// reports a thread with no checkpoint as (false, nil), since
// graph.CheckpointStore has no error case for "missing".
var ErrNotFound = errors.New("store: not found")

// record is the wire shape persisted by every backend. It mirrors
// graph.Checkpoint field-for-field; the indirection exists so backends
// serialize/deserialize through a single type rather than each rolling
// their own.
type record struct {
	ID               string          `json:"id"`
	ThreadID         string          `json:"thread_id"`
	RunID            string          `json:"run_id"`
	StepIndex        uint32          `json:"step_index"`
	Frontier         []string        `json:"frontier"`
	StoreSnapshot    json.RawMessage `json:"store_snapshot"`
	PendingInterrupt json.RawMessage `json:"pending_interrupt,omitempty"`
}

func toRecord(cp graph.Checkpoint) (record, error) {
	snapshot, err := canonicalMarshal(cp.StoreSnapshot)
	if err != nil {
		return record{}, err
	}
	var interruptJSON json.RawMessage
	if cp.PendingInterrupt != nil {
		interruptJSON, err = canonicalMarshal(cp.PendingInterrupt)
		if err != nil {
			return record{}, err
		}
	}
	return record{
		ID:               cp.ID,
		ThreadID:         cp.ThreadID,
		RunID:            cp.RunID,
		StepIndex:        cp.StepIndex,
		Frontier:         cp.Frontier,
		StoreSnapshot:    snapshot,
		PendingInterrupt: interruptJSON,
	}, nil
}

func fromRecord(r record) (graph.Checkpoint, error) {
	cp := graph.Checkpoint{
		ID:        r.ID,
		ThreadID:  r.ThreadID,
		RunID:     r.RunID,
		StepIndex: r.StepIndex,
		Frontier:  r.Frontier,
	}
	if len(r.StoreSnapshot) > 0 {
		if err := json.Unmarshal(r.StoreSnapshot, &cp.StoreSnapshot); err != nil {
			return graph.Checkpoint{}, err
		}
	}
	if len(r.PendingInterrupt) > 0 {
		cp.PendingInterrupt = &graph.Interrupt{}
		if err := json.Unmarshal(r.PendingInterrupt, cp.PendingInterrupt); err != nil {
			return graph.Checkpoint{}, err
		}
	}
	return cp, nil
}

// canonicalMarshal serializes v with map keys sorted (encoding/json's
// native behavior for map[string]any) and without HTML-escaping, so a
// tool ArgumentsJSON blob containing "</script>" or a bare "/" round
// trips byte-for-byte.
func canonicalMarshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// latestOf picks the checkpoint to return from LoadLatest's candidate
// set: largest StepIndex, ties broken by lexicographically largest ID.
func latestOf(candidates []record) (record, bool) {
	if len(candidates) == 0 {
		return record{}, false
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.StepIndex > best.StepIndex || (c.StepIndex == best.StepIndex && c.ID > best.ID) {
			best = c
		}
	}
	return best, true
}

// jsonUnmarshalString is a thin wrapper so SQL-backed stores can decode a
// TEXT column without importing encoding/json directly in every file.
func jsonUnmarshalString(s string, v any) error {
	return json.Unmarshal([]byte(s), v)
}
