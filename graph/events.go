package graph

import "github.com/corvid-labs/chatgraph/graph/emit"

// EventKind is the closed taxonomy of event kinds a run can emit. It is an
// alias of emit.Kind so that node code and scheduler code can both speak of
// "kinds" without importing graph/emit directly.
type EventKind = emit.Kind

const (
	RunStarted              = emit.RunStarted
	RunFinished             = emit.RunFinished
	RunInterrupted          = emit.RunInterrupted
	StepStarted             = emit.StepStarted
	StepFinished            = emit.StepFinished
	TaskStarted             = emit.TaskStarted
	TaskFinished            = emit.TaskFinished
	ChannelUpdated          = emit.ChannelUpdated
	ModelInvocationStarted  = emit.ModelInvocationStarted
	ModelToken              = emit.ModelToken
	ModelInvocationFinished = emit.ModelInvocationFinished
	ToolInvocationStarted   = emit.ToolInvocationStarted
	ToolInvocationFinished  = emit.ToolInvocationFinished
)
