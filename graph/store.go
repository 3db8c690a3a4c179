package graph

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
)

// StagedWrite is one write queued against a channel during a step, tagged
// with enough provenance to fold multiple writes in canonical order.
type StagedWrite struct {
	ChannelKey   string
	SourceNodeID string
	WriteIndex   int
	Value        any
}

// ChannelUpdate describes one channel whose value changed as the result of
// a commit. It is the payload behind the channelUpdated event kind.
type ChannelUpdate struct {
	ChannelKey string
	Value      any
}

// Store is the typed, channel-based state container a run operates on. It
// is intentionally type-erased internally (a tagged registry of Specs plus
// a map[string]any of current values) so that a single store can hold
// channels of unrelated Go types; typed accessors (GetChannel and
// SnapshotGet, built on top of ChannelKey[T]) assert the concrete type at
// the boundary.
//
// Store enforces three invariants on every Commit:
//
//	I1: a single-update-policy channel may receive at most one write per
//	    step; a second write is a fatal error, not a silent overwrite.
//	I2: if any channel's reducer fails, the whole commit aborts and no
//	    channel's value changes.
//	I3: a partially-reduced value is never visible to a concurrent reader;
//	    Commit computes every channel's next value before replacing any of
//	    them.
type Store struct {
	specs  map[string]Spec
	values map[string]any
}

// NewStore creates a Store from a channel registry, initializing every
// channel to its Spec.Initial() value.
func NewStore(specs map[string]Spec) *Store {
	values := make(map[string]any, len(specs))
	for key, spec := range specs {
		values[key] = spec.Initial()
	}
	return &Store{specs: specs, values: values}
}

// Get returns the current value of a channel by its untyped key name.
func (s *Store) Get(key string) (any, error) {
	v, ok := s.values[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrChannelNotFound, key)
	}
	return v, nil
}

// Spec returns the registered Spec for a channel.
func (s *Store) Spec(key string) (Spec, bool) {
	spec, ok := s.specs[key]
	return spec, ok
}

// Snapshot returns a shallow copy of every channel's current value, keyed
// by channel name. Channel values themselves (e.g. []ChatMessage) are not
// deep-copied; nodes must treat the snapshot as read-only, matching the
// "read-only store snapshot" contract nodes are handed each step.
func (s *Store) Snapshot() map[string]any {
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Restore replaces every channel's current value wholesale, used when
// resuming from a checkpoint. Each checkpointed channel's raw bytes are
// decoded through that channel's own Spec.Codec into a freshly allocated
// value of the concrete type its Spec.Initial() produces, so a resumed
// store holds real []ChatMessage/[]PendingToolCall/*string values rather
// than the generic map[string]any/[]any shapes encoding/json would
// produce from an untyped unmarshal. Ephemeral channels are reset to
// their Spec.Initial() rather than taking the checkpointed value, since
// ephemeral channels are never persisted.
func (s *Store) Restore(values map[string]json.RawMessage) error {
	for key, spec := range s.specs {
		if spec.Persistence == Ephemeral {
			s.values[key] = spec.Initial()
			continue
		}
		raw, ok := values[key]
		if !ok || len(raw) == 0 {
			s.values[key] = spec.Initial()
			continue
		}
		decoded, err := decodeChannelValue(spec, raw)
		if err != nil {
			return fmt.Errorf("restoring channel %s: %w", key, err)
		}
		s.values[key] = decoded
	}
	return nil
}

// decodeChannelValue decodes raw through spec.Codec into a new value of
// the same concrete type spec.Initial() returns, using reflection since
// Spec erases that type to any. Every built-in channel's Initial always
// returns a typed value (e.g. []ChatMessage(nil) or (*string)(nil)), so
// reflect.TypeOf(initial) is never nil in practice.
func decodeChannelValue(spec Spec, raw json.RawMessage) (any, error) {
	initial := spec.Initial()
	t := reflect.TypeOf(initial)
	if t == nil {
		return nil, fmt.Errorf("channel has an untyped nil Initial value, cannot decode into it")
	}
	ptr := reflect.New(t)
	if err := spec.Codec.Decode(raw, ptr.Interface()); err != nil {
		return nil, err
	}
	return ptr.Elem().Interface(), nil
}

// CheckpointedValues returns the subset of the current snapshot that
// belongs to Checkpointed channels, each value encoded through its own
// Spec.Codec, suitable for embedding in a Checkpoint's StoreSnapshot.
func (s *Store) CheckpointedValues() (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage)
	for key, spec := range s.specs {
		if spec.Persistence != Checkpointed {
			continue
		}
		encoded, err := spec.Codec.Encode(s.values[key])
		if err != nil {
			return nil, fmt.Errorf("encoding channel %s: %w", key, err)
		}
		out[key] = encoded
	}
	return out, nil
}

// Commit groups staged writes by channel, rejects concurrent writers on
// single-policy channels, folds each channel's writes through its reducer
// in canonical (SourceNodeID, WriteIndex) order, and only then replaces
// the store's values. It returns the set of channel updates in
// lexicographic key order (the chosen resolution of the spec's otherwise
// unspecified cross-key ordering, see DESIGN.md).
func (s *Store) Commit(writes []StagedWrite) ([]ChannelUpdate, error) {
	byChannel := make(map[string][]StagedWrite)
	for _, w := range writes {
		byChannel[w.ChannelKey] = append(byChannel[w.ChannelKey], w)
	}

	next := make(map[string]any, len(byChannel))
	for key, group := range byChannel {
		spec, ok := s.specs[key]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrChannelNotFound, key)
		}
		if spec.UpdatePolicy == SinglePolicy && len(group) > 1 {
			return nil, fmt.Errorf("%w: channel %s", ErrSinglePolicyConflict, key)
		}

		sort.SliceStable(group, func(i, j int) bool {
			if group[i].SourceNodeID != group[j].SourceNodeID {
				return group[i].SourceNodeID < group[j].SourceNodeID
			}
			return group[i].WriteIndex < group[j].WriteIndex
		})

		current, err := s.Get(key)
		if err != nil {
			return nil, err
		}
		for _, w := range group {
			current, err = spec.Reducer(current, w.Value)
			if err != nil {
				return nil, fmt.Errorf("reducing channel %s: %w", key, err)
			}
		}
		next[key] = current
	}

	keys := make([]string, 0, len(next))
	for k := range next {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	updates := make([]ChannelUpdate, 0, len(keys))
	for _, k := range keys {
		s.values[k] = next[k]
		updates = append(updates, ChannelUpdate{ChannelKey: k, Value: next[k]})
	}
	return updates, nil
}

// GetChannel reads a typed channel's current value out of the store,
// asserting the stored value's type at the boundary.
func GetChannel[T any](s *Store, key ChannelKey[T]) (T, error) {
	var zero T
	raw, err := s.Get(key.Key())
	if err != nil {
		return zero, err
	}
	v, ok := raw.(T)
	if !ok {
		return zero, fmt.Errorf("%w: channel %s", ErrChannelTypeMismatch, key.Key())
	}
	return v, nil
}

// StageValue builds a StagedWrite for a typed channel.
func StageValue[T any](key ChannelKey[T], sourceNodeID string, writeIndex int, value T) StagedWrite {
	return StagedWrite{
		ChannelKey:   key.Key(),
		SourceNodeID: sourceNodeID,
		WriteIndex:   writeIndex,
		Value:        value,
	}
}
