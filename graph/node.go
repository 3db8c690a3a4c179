package graph

import (
	"context"

	"github.com/google/uuid"
)

// RunContext identifies the run, thread, attempt, and step a node
// invocation belongs to, plus the deterministic task id assigned to this
// particular invocation.
type RunContext struct {
	RunID      uuid.UUID
	ThreadID   string
	AttemptID  uuid.UUID
	TaskID     string
	StepIndex  uint32
	NodeID     string
}

// EmitFunc lets a node emit stream events (modelToken, toolInvocationStarted,
// and so on) while it runs, independent of the channelUpdated events the
// scheduler emits automatically after commit.
type EmitFunc func(kind EventKind, metadata map[string]any)

// NodeInput is everything a node needs to run one invocation: a read-only
// snapshot of the store as of the start of the step, the run/task
// identity, an environment bag for out-of-band collaborators (model
// clients, tool registries, tokenizer, clock), a way to emit stream
// events, and the resume value if this invocation is re-entering after an
// interrupt.
type NodeInput struct {
	Snapshot    map[string]any
	Run         RunContext
	Environment *Environment
	Emit        EmitFunc
	Resume      *Resume
}

// NodeOutput bundles everything a node invocation can produce: staged
// channel writes, an optional routing override, an optional interrupt
// request, and is otherwise silent about side effects (those are reported
// via Emit as they happen, not batched here).
type NodeOutput struct {
	Writes    []StagedWrite
	Routing   *RoutingDecision
	Interrupt *InterruptRequest
}

// NodeFunc is the signature every graph node implements.
type NodeFunc func(ctx context.Context, in NodeInput) (NodeOutput, error)

// InterruptRequest is returned by a node to suspend the run instead of
// committing this step's writes. See Interrupt and the scheduler's
// handling of it.
type InterruptRequest struct {
	Payload any
}
