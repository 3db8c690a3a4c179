// Package graph implements a deterministic graph runtime for tool-using
// chat agents: a stateful execution engine that drives a fixed directed
// graph of nodes over a typed, channel-based store, with suspend/resume
// interrupts, retries, history compaction, and deterministic message ids.
package graph

// UpdatePolicy governs how many writers a channel may accept within a
// single step.
type UpdatePolicy int

const (
	// SinglePolicy channels accept at most one write per step. A second
	// write in the same step is a fatal violation (invariant I1).
	SinglePolicy UpdatePolicy = iota

	// MultiPolicy channels accept any number of writes per step; they are
	// folded through Spec.Reducer in canonical order.
	MultiPolicy
)

// Persistence marks whether a channel's value is included in checkpoints.
type Persistence int

const (
	// Checkpointed channels are snapshotted into every Checkpoint.
	Checkpointed Persistence = iota

	// Ephemeral channels are never persisted; they do not survive resume
	// and are reset to Spec.Initial() when a run restarts from a
	// checkpoint.
	Ephemeral
)

// ChannelKey names a channel in the store. Keys are compared by Name; the
// type parameter exists only at the call site to give typed accessors.
type ChannelKey[T any] struct {
	Name string
}

// Key returns the underlying untyped key used by the store's internal map.
func (k ChannelKey[T]) Key() string { return k.Name }

// Reducer folds a staged update into a channel's current value. Reducers
// must be pure and deterministic: given the same current value and the
// same sequence of updates in the same order, they must always produce the
// same result. A reducer may return an error to abort the whole step
// (invariant I2): no partial writes are ever visible.
type Reducer func(current any, update any) (any, error)

// Spec describes one channel's contract: its reducer, its update policy,
// how to produce its zero value, how to encode it for checkpointing, and
// whether it is checkpointed at all.
type Spec struct {
	Scope        string
	Reducer      Reducer
	UpdatePolicy UpdatePolicy
	Initial      func() any
	Codec        Codec
	Persistence  Persistence
}

// LastWriteWins is the reducer used by single-policy channels: the staged
// update simply replaces the current value. Because single-policy channels
// reject more than one writer per step (I1), "last" and "only" coincide.
func LastWriteWins(_ any, update any) (any, error) {
	return update, nil
}
