package graph

import (
	"context"
	"encoding/json"
)

// Checkpoint is a durable snapshot of a thread's run state: the channel
// store values as of the end of a step, plus any pending interrupt that
// means the run is suspended rather than finished.
//
// StoreSnapshot holds each checkpointed channel's value already encoded
// through that channel's own Spec.Codec (see Store.CheckpointedValues),
// not a single bulk-marshaled blob. A store backend may serialize the map
// as a whole for storage, but must hand the per-channel bytes back
// unchanged on load so Store.Restore can decode each one through its
// registered codec into its concrete type.
type Checkpoint struct {
	ID               string
	ThreadID         string
	RunID            string
	StepIndex        uint32
	Frontier         []string
	StoreSnapshot    map[string]json.RawMessage
	PendingInterrupt *Interrupt
}

// CheckpointStore persists and retrieves checkpoints by thread. LoadLatest
// must return the checkpoint with the largest StepIndex for threadID,
// breaking ties by the lexicographically largest ID. Checkpoint ids are
// random UUIDs, so the tie-break picks an arbitrary but stable winner
// rather than the most recent save.
type CheckpointStore interface {
	Save(ctx context.Context, cp Checkpoint) error
	LoadLatest(ctx context.Context, threadID string) (Checkpoint, bool, error)
}
