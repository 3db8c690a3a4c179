package graph

import (
	"errors"
	"reflect"
	"testing"
)

// TestMessagesReducerTwoRemoveAllMarkers is spec.md's S1: only the updates
// after the last removeAll survive, and the current history is discarded
// along with everything before that marker.
func TestMessagesReducerTwoRemoveAllMarkers(t *testing.T) {
	current := []ChatMessage{
		{ID: "a", Role: RoleUser, Content: "A"},
		{ID: "b", Role: RoleAssistant, Content: "B"},
	}
	update := []ChatMessage{
		{ID: "c", Role: RoleUser, Content: "C"},
		{ID: RemoveAllSentinel, Op: OpRemoveAll},
		{ID: "d", Role: RoleAssistant, Content: "D"},
		{ID: RemoveAllSentinel, Op: OpRemoveAll},
		{ID: "e", Role: RoleUser, Content: "E"},
	}

	got, err := MessagesReducer(current, update)
	if err != nil {
		t.Fatalf("MessagesReducer: %v", err)
	}
	want := []ChatMessage{{ID: "e", Role: RoleUser, Content: "E"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

// TestMessagesReducerOpNoneAppendsNewID covers P1: an OpNone update with an
// unseen id is appended, preserving the existing order.
func TestMessagesReducerOpNoneAppendsNewID(t *testing.T) {
	current := []ChatMessage{{ID: "a", Role: RoleUser, Content: "A"}}
	update := []ChatMessage{{ID: "b", Role: RoleAssistant, Content: "B"}}

	got, err := MessagesReducer(current, update)
	if err != nil {
		t.Fatalf("MessagesReducer: %v", err)
	}
	want := []ChatMessage{
		{ID: "a", Role: RoleUser, Content: "A"},
		{ID: "b", Role: RoleAssistant, Content: "B"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

// TestMessagesReducerOpNoneOverwritesInPlace covers P2: an OpNone update
// whose id already exists overwrites that entry without moving its
// position.
func TestMessagesReducerOpNoneOverwritesInPlace(t *testing.T) {
	current := []ChatMessage{
		{ID: "a", Role: RoleUser, Content: "A"},
		{ID: "b", Role: RoleAssistant, Content: "B"},
	}
	update := []ChatMessage{{ID: "a", Role: RoleUser, Content: "A2"}}

	got, err := MessagesReducer(current, update)
	if err != nil {
		t.Fatalf("MessagesReducer: %v", err)
	}
	want := []ChatMessage{
		{ID: "a", Role: RoleUser, Content: "A2"},
		{ID: "b", Role: RoleAssistant, Content: "B"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

// TestMessagesReducerOpRemoveDeletesExisting covers P3: an OpRemove update
// tombstones the named id, and it does not appear in the result.
func TestMessagesReducerOpRemoveDeletesExisting(t *testing.T) {
	current := []ChatMessage{
		{ID: "a", Role: RoleUser, Content: "A"},
		{ID: "b", Role: RoleAssistant, Content: "B"},
	}
	update := []ChatMessage{{ID: "a", Op: OpRemove}}

	got, err := MessagesReducer(current, update)
	if err != nil {
		t.Fatalf("MessagesReducer: %v", err)
	}
	want := []ChatMessage{{ID: "b", Role: RoleAssistant, Content: "B"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

// TestMessagesReducerOpRemoveUnknownIDFails covers P4: removing an id that
// isn't present aborts the whole step with no partial result.
func TestMessagesReducerOpRemoveUnknownIDFails(t *testing.T) {
	current := []ChatMessage{{ID: "a", Role: RoleUser, Content: "A"}}
	update := []ChatMessage{{ID: "missing", Op: OpRemove}}

	_, err := MessagesReducer(current, update)
	if !errors.Is(err, ErrInvalidMessagesUpdate) {
		t.Fatalf("err = %v, want ErrInvalidMessagesUpdate", err)
	}
}

func TestMessagesReducerOpRemoveAllWithNonSentinelIDFails(t *testing.T) {
	current := []ChatMessage{{ID: "a", Role: RoleUser, Content: "A"}}
	update := []ChatMessage{{ID: "not-the-sentinel", Op: OpRemoveAll}}

	_, err := MessagesReducer(current, update)
	if !errors.Is(err, ErrInvalidMessagesUpdate) {
		t.Fatalf("err = %v, want ErrInvalidMessagesUpdate", err)
	}
}

// TestMessagesReducerSameIDUpdatesLastWriteWins covers the left-to-right,
// last-write-wins rule for two updates targeting the same id in one batch.
func TestMessagesReducerSameIDUpdatesLastWriteWins(t *testing.T) {
	current := []ChatMessage{{ID: "a", Role: RoleUser, Content: "A"}}
	update := []ChatMessage{
		{ID: "a", Role: RoleUser, Content: "A-first"},
		{ID: "a", Role: RoleUser, Content: "A-second"},
	}

	got, err := MessagesReducer(current, update)
	if err != nil {
		t.Fatalf("MessagesReducer: %v", err)
	}
	want := []ChatMessage{{ID: "a", Role: RoleUser, Content: "A-second"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

// TestMessagesReducerRemoveThenReAddSameID exercises an OpRemove followed
// by an OpNone on the same id within one batch: the tombstone is cleared
// and the message survives with its new content.
func TestMessagesReducerRemoveThenReAddSameID(t *testing.T) {
	current := []ChatMessage{{ID: "a", Role: RoleUser, Content: "A"}}
	update := []ChatMessage{
		{ID: "a", Op: OpRemove},
		{ID: "a", Role: RoleUser, Content: "A-revived"},
	}

	got, err := MessagesReducer(current, update)
	if err != nil {
		t.Fatalf("MessagesReducer: %v", err)
	}
	want := []ChatMessage{{ID: "a", Role: RoleUser, Content: "A-revived"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

// TestMessagesReducerRejectsNonMessagesUpdateType covers the reducer's type
// guard: an update that isn't []ChatMessage is rejected rather than
// silently coerced.
func TestMessagesReducerRejectsNonMessagesUpdateType(t *testing.T) {
	_, err := MessagesReducer([]ChatMessage{}, "not a message batch")
	if !errors.Is(err, ErrInvalidMessagesUpdate) {
		t.Fatalf("err = %v, want ErrInvalidMessagesUpdate", err)
	}
}

// TestMessagesReducerIsPure confirms the reducer does not mutate the
// caller's current slice.
func TestMessagesReducerIsPure(t *testing.T) {
	current := []ChatMessage{{ID: "a", Role: RoleUser, Content: "A"}}
	snapshot := append([]ChatMessage(nil), current...)
	update := []ChatMessage{{ID: "a", Role: RoleUser, Content: "A2"}}

	if _, err := MessagesReducer(current, update); err != nil {
		t.Fatalf("MessagesReducer: %v", err)
	}
	if !reflect.DeepEqual(current, snapshot) {
		t.Fatalf("MessagesReducer mutated its current argument: %+v", current)
	}
}
