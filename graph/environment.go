package graph

import "context"

// ModelMessage is the wire shape a model node exchanges with a ModelClient.
// It mirrors ChatMessage but drops the ID and Op fields, which are
// meaningless outside the messages channel.
type ModelMessage struct {
	Role          Role
	Content       string
	Name          string
	ToolCallID    string
	ToolCalls     []ToolCallRequest
}

// ToolSpec describes one callable tool to a model, in provider-neutral form.
type ToolSpec struct {
	Name        string
	Description string
	ParametersJSON string
}

// ModelChunk is one unit of a streaming model response. A stream yields
// zero or more Kind == ChunkToken chunks followed by exactly one
// Kind == ChunkFinal chunk.
type ModelChunk struct {
	Kind      ChunkKind
	Token     string
	Content   string
	ToolCalls []ToolCallRequest
}

// ChunkKind distinguishes a partial token chunk from the terminal chunk of
// a model stream.
type ChunkKind int

const (
	ChunkToken ChunkKind = iota
	ChunkFinal
)

// ModelClient is the streaming chat-completion collaborator a model node
// invokes. Implementations must close the returned channel after sending
// exactly one ChunkFinal (or an error), never before.
type ModelClient interface {
	Stream(ctx context.Context, messages []ModelMessage, tools []ToolSpec) (<-chan ModelChunk, <-chan error)
}

// ModelRouter selects which ModelClient should serve a single model call,
// given the messages it will be asked to answer and any routing hints the
// caller attached. A router takes precedence over Environment.Model when
// both are configured, per spec.md's "select the model client via router
// if available, else the direct client; else fail" rule.
type ModelRouter interface {
	Route(ctx context.Context, messages []ModelMessage, hints map[string]any) (ModelClient, error)
}

// ToolRegistry resolves a tool call by name and invokes it.
type ToolRegistry interface {
	Invoke(ctx context.Context, name string, argumentsJSON string) (string, error)
	Has(name string) bool
	List() []ToolSpec
}

// Tokenizer estimates token counts for compaction. Preflight only checks
// that one is configured when compaction is enabled. Estimates need not be
// exact, only monotonic and stable.
type Tokenizer interface {
	CountMessages(messages []ChatMessage) int
}

// Logger is the structured logging collaborator ambient code writes
// through instead of calling a package-level logger directly.
type Logger interface {
	Infow(msg string, keyvals ...any)
	Errorw(msg string, keyvals ...any)
}

// Environment bundles every external collaborator a node may need. A nil
// field means that collaborator is unavailable to nodes that don't need
// it; nodes that do need one and find it nil must fail with the relevant
// sentinel error (ErrModelClientMissing, ErrToolRegistryMissing).
type Environment struct {
	Model       ModelClient
	ModelRouter ModelRouter
	Tools       ToolRegistry
	Tokenizer   Tokenizer
	Clock       Clock
	Logger      Logger
}
