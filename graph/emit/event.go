package emit

import "time"

// Kind tags an Event with what happened. This is the taxonomy spec.md's
// event stream contracts on; every run's events are drawn from exactly
// this set.
type Kind string

const (
	RunStarted              Kind = "runStarted"
	RunFinished             Kind = "runFinished"
	RunInterrupted          Kind = "runInterrupted"
	StepStarted             Kind = "stepStarted"
	StepFinished            Kind = "stepFinished"
	TaskStarted             Kind = "taskStarted"
	TaskFinished            Kind = "taskFinished"
	ChannelUpdated          Kind = "channelUpdated"
	ModelInvocationStarted  Kind = "modelInvocationStarted"
	ModelToken              Kind = "modelToken"
	ModelInvocationFinished Kind = "modelInvocationFinished"
	ToolInvocationStarted   Kind = "toolInvocationStarted"
	ToolInvocationFinished  Kind = "toolInvocationFinished"
)

// Event is one observation emitted during a run.
//
// Metadata holds kind-specific fields, e.g. {"nodeID":..., "taskID":...}
// for taskStarted/taskFinished, {"success":...} added on taskFinished and
// toolInvocationFinished, {"channelKey":...} for channelUpdated.
type Event struct {
	RunID     string
	AttemptID string
	Timestamp time.Time
	Kind      Kind
	Metadata  map[string]interface{}
}
