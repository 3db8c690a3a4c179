package graph

import (
	"context"

	"github.com/corvid-labs/chatgraph/graph/model"
)

// modelClientAdapter adapts a model.ChatModel (the provider-neutral
// streaming interface under graph/model) to the ModelClient interface
// nodes consume, converting between the two packages' message shapes at
// the boundary so graph/model stays free of any dependency on graph.
type modelClientAdapter struct {
	chat model.ChatModel
}

// NewModelClient wraps a graph/model ChatModel (or one of its provider
// adapters) as a ModelClient suitable for Environment.Model.
func NewModelClient(chat model.ChatModel) ModelClient {
	return &modelClientAdapter{chat: chat}
}

func (a *modelClientAdapter) Stream(ctx context.Context, messages []ModelMessage, tools []ToolSpec) (<-chan ModelChunk, <-chan error) {
	inMessages := make([]model.Message, len(messages))
	for i, m := range messages {
		inMessages[i] = model.Message{
			Role:       string(m.Role),
			Content:    m.Content,
			Name:       m.Name,
			ToolCallID: m.ToolCallID,
			ToolCalls:  toModelToolCalls(m.ToolCalls),
		}
	}
	inTools := make([]model.ToolSpec, len(tools))
	for i, t := range tools {
		inTools[i] = model.ToolSpec{Name: t.Name, Description: t.Description}
	}

	src, srcErrs := a.chat.Stream(ctx, inMessages, inTools)
	out := make(chan ModelChunk)
	errs := make(chan error, 1)

	go func() {
		defer close(out)
		for c := range src {
			out <- ModelChunk{
				Kind:      graphChunkKind(c.Kind),
				Token:     c.Token,
				Content:   c.Content,
				ToolCalls: fromModelToolCalls(c.ToolCalls),
			}
		}
		errs <- <-srcErrs
	}()

	return out, errs
}

// modelRouterAdapter adapts a model.Router to the ModelRouter interface
// nodes consume, wrapping whatever model.ChatModel it resolves in the
// same modelClientAdapter NewModelClient uses.
type modelRouterAdapter struct {
	router model.Router
}

// NewModelRouter wraps a graph/model Router as a ModelRouter suitable for
// Environment.ModelRouter.
func NewModelRouter(router model.Router) ModelRouter {
	return &modelRouterAdapter{router: router}
}

func (a *modelRouterAdapter) Route(ctx context.Context, messages []ModelMessage, hints map[string]any) (ModelClient, error) {
	inMessages := make([]model.Message, len(messages))
	for i, m := range messages {
		inMessages[i] = model.Message{
			Role:       string(m.Role),
			Content:    m.Content,
			Name:       m.Name,
			ToolCallID: m.ToolCallID,
			ToolCalls:  toModelToolCalls(m.ToolCalls),
		}
	}
	chat, err := a.router.Route(ctx, inMessages, hints)
	if err != nil {
		return nil, err
	}
	return NewModelClient(chat), nil
}

func graphChunkKind(k model.ChunkKind) ChunkKind {
	if k == model.ChunkFinal {
		return ChunkFinal
	}
	return ChunkToken
}

func toModelToolCalls(calls []ToolCallRequest) []model.ToolCall {
	out := make([]model.ToolCall, len(calls))
	for i, c := range calls {
		out[i] = model.ToolCall{ID: c.ID, Name: c.Name, ArgumentsJSON: c.ArgumentsJSON}
	}
	return out
}

func fromModelToolCalls(calls []model.ToolCall) []ToolCallRequest {
	out := make([]ToolCallRequest, len(calls))
	for i, c := range calls {
		out[i] = ToolCallRequest{ID: c.ID, Name: c.Name, ArgumentsJSON: c.ArgumentsJSON}
	}
	return out
}
