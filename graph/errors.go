package graph

import "errors"

// Sentinel errors for the preflight and runtime error taxonomy.
//
// Callers should use errors.Is to check for these rather than comparing
// strings, since wrapped context is routinely added with fmt.Errorf.
var (
	// ErrModelClientMissing is returned by preflight when neither a model
	// client nor a model router is configured.
	ErrModelClientMissing = errors.New("model client missing")

	// ErrToolRegistryMissing is returned by preflight when no tool
	// registry is configured.
	ErrToolRegistryMissing = errors.New("tool registry missing")

	// ErrCheckpointStoreMissing is returned by preflight when the
	// approval policy requires a checkpoint store and none is configured.
	ErrCheckpointStoreMissing = errors.New("checkpoint store missing")

	// ErrInvalidRunOptions wraps a reason describing why the supplied
	// Options were rejected at preflight.
	ErrInvalidRunOptions = errors.New("invalid run options")

	// ErrModelStreamInvalid is returned when a model stream violates the
	// token*/final protocol (chunk after final, multiple finals, or a
	// stream that ends without a final).
	ErrModelStreamInvalid = errors.New("model stream invalid")

	// ErrInvalidMessagesUpdate is returned by the messages reducer when a
	// staged update cannot be folded: a removeAll with a non-sentinel id,
	// or a remove targeting an id not present in the channel.
	ErrInvalidMessagesUpdate = errors.New("invalid messages update")

	// ErrSinglePolicyConflict is the fatal error raised when more than one
	// write targets a single-update-policy channel within one step.
	ErrSinglePolicyConflict = errors.New("single-policy channel received concurrent writes")

	// ErrInterruptMismatch is returned on resume when the checkpoint's
	// pending interrupt id does not match the resume's target interrupt.
	ErrInterruptMismatch = errors.New("resume interrupt id does not match pending interrupt")

	// ErrNoCheckpoint is returned on resume when no checkpoint exists for
	// the given thread.
	ErrNoCheckpoint = errors.New("no checkpoint for thread")

	// ErrChannelNotFound is returned by typed channel accessors when a key
	// is not registered in the store.
	ErrChannelNotFound = errors.New("channel not found")

	// ErrChannelTypeMismatch is returned when a typed accessor is used
	// against a channel holding a value of a different type.
	ErrChannelTypeMismatch = errors.New("channel value type mismatch")
)

// NodeError decorates an error with the node and task that produced it,
// matching the shape of errors the scheduler surfaces for failed steps.
type NodeError struct {
	NodeID string
	TaskID string
	Cause  error
}

func (e *NodeError) Error() string {
	if e.TaskID != "" {
		return "node " + e.NodeID + " (task " + e.TaskID + "): " + e.Cause.Error()
	}
	return "node " + e.NodeID + ": " + e.Cause.Error()
}

func (e *NodeError) Unwrap() error { return e.Cause }
