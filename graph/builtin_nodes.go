package graph

import (
	"context"
	"fmt"
	"sort"
)

// Builtin node ids. A caller assembling a GraphBuilder for the standard
// preprocess -> model -> tool-gate -> tool-execute shape wires these
// constructors under these names; nothing requires using these exact ids
// for a custom graph.
const (
	NodePreModel    = "preModel"
	NodeModel       = "model"
	NodeToolGate    = "toolGate"
	NodeToolExecute = "toolExecute"
)

// PreModelNode returns a node that derives a compacted view of history
// into llmInputMessages, leaving messages untouched. With a nil
// compaction policy it always clears llmInputMessages to "use history
// verbatim".
func PreModelNode(cfg RunConfig) NodeFunc {
	return func(ctx context.Context, in NodeInput) (NodeOutput, error) {
		history, err := SnapshotGet(in.Snapshot, MessagesChannel)
		if err != nil {
			return NodeOutput{}, err
		}

		var compacted *[]ChatMessage
		if cfg.Compaction != nil {
			if in.Environment.Tokenizer == nil {
				return NodeOutput{}, fmt.Errorf("%w: preModel requires a tokenizer", ErrInvalidRunOptions)
			}
			result := Compact(history, *cfg.Compaction, in.Environment.Tokenizer)
			if result != nil {
				compacted = &result
			}
		}

		return NodeOutput{
			Writes: []StagedWrite{
				StageValue(LLMInputMessagesChannel, NodePreModel, 0, compacted),
			},
			Routing: routingTo(UseGraphEdges()),
		}, nil
	}
}

func routingTo(d RoutingDecision) *RoutingDecision { return &d }

func toModelMessages(messages []ChatMessage) []ModelMessage {
	out := make([]ModelMessage, len(messages))
	for i, m := range messages {
		out[i] = ModelMessage{
			Role:       m.Role,
			Content:    m.Content,
			Name:       m.Name,
			ToolCallID: m.ToolCallID,
			ToolCalls:  m.ToolCalls,
		}
	}
	return out
}

func toolSpecs(registry ToolRegistry) []ToolSpec {
	specs := registry.List()
	sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })
	return specs
}

// ModelNode returns a node implementing the strict stream-consumption
// protocol: zero or more token chunks then exactly one final chunk,
// wrapped in the configured retry policy, emitting
// modelInvocationStarted/modelToken/modelInvocationFinished along the way.
func ModelNode(cfg RunConfig) NodeFunc {
	return func(ctx context.Context, in NodeInput) (NodeOutput, error) {
		if in.Environment.Model == nil && in.Environment.ModelRouter == nil {
			return NodeOutput{}, ErrModelClientMissing
		}

		history, err := SnapshotGet(in.Snapshot, MessagesChannel)
		if err != nil {
			return NodeOutput{}, err
		}
		override, err := SnapshotGet(in.Snapshot, LLMInputMessagesChannel)
		if err != nil {
			return NodeOutput{}, err
		}
		input := history
		if override != nil {
			input = *override
		}

		var tools []ToolSpec
		if in.Environment.Tools != nil {
			tools = toolSpecs(in.Environment.Tools)
		}

		var final ModelChunk
		gotFinal := false

		invoke := func() error {
			gotFinal = false
			in.Emit(ModelInvocationStarted, map[string]any{"nodeID": in.Run.NodeID})

			client := in.Environment.Model
			if in.Environment.ModelRouter != nil {
				routed, err := in.Environment.ModelRouter.Route(ctx, toModelMessages(input), nil)
				if err != nil {
					return fmt.Errorf("routing model call: %w", err)
				}
				client = routed
			}
			if client == nil {
				return ErrModelClientMissing
			}

			chunks, errs := client.Stream(ctx, toModelMessages(input), tools)
			for chunk := range chunks {
				if gotFinal {
					return fmt.Errorf("%w: chunk received after final", ErrModelStreamInvalid)
				}
				switch chunk.Kind {
				case ChunkToken:
					in.Emit(ModelToken, map[string]any{"text": chunk.Token})
				case ChunkFinal:
					final = chunk
					gotFinal = true
				}
			}
			if err := <-errs; err != nil {
				return err
			}
			if !gotFinal {
				return fmt.Errorf("%w: stream ended without a final chunk", ErrModelStreamInvalid)
			}
			in.Emit(ModelInvocationFinished, map[string]any{"nodeID": in.Run.NodeID})
			return nil
		}

		onRetry := func(attempt int) {
			if cfg.Metrics != nil {
				cfg.Metrics.IncRetry(NodeModel)
			}
		}
		if err := Do(in.Environment.Clock, cfg.Retry, invoke, onRetry); err != nil {
			return NodeOutput{}, err
		}

		assistant := ChatMessage{
			ID:        DeriveRoleMessageID(in.Run.TaskID, RoleAssistant),
			Role:      RoleAssistant,
			Content:   final.Content,
			ToolCalls: final.ToolCalls,
			Op:        OpNone,
		}

		pending := make([]PendingToolCall, len(final.ToolCalls))
		for i, tc := range final.ToolCalls {
			pending[i] = PendingToolCall{ID: tc.ID, Name: tc.Name, ArgumentsJSON: tc.ArgumentsJSON}
		}
		pending = SortPendingToolCalls(pending)

		writes := []StagedWrite{
			StageValue(MessagesChannel, NodeModel, 0, []ChatMessage{assistant}),
			StageValue(PendingToolCallsChannel, NodeModel, 1, pending),
			StageValue(LLMInputMessagesChannel, NodeModel, 2, (*[]ChatMessage)(nil)),
		}
		if len(pending) == 0 {
			content := assistant.Content
			writes = append(writes, StageValue(FinalAnswerChannel, NodeModel, 3, &content))
		}

		return NodeOutput{Writes: writes, Routing: routingTo(UseGraphEdges())}, nil
	}
}

// ToolGateNode returns a node implementing the approval policy in front
// of tool execution (spec.md 4.5).
func ToolGateNode(cfg RunConfig) NodeFunc {
	return func(ctx context.Context, in NodeInput) (NodeOutput, error) {
		pending, err := SnapshotGet(in.Snapshot, PendingToolCallsChannel)
		if err != nil {
			return NodeOutput{}, err
		}

		if !cfg.ApprovalPolicy.requiresApproval(pending) {
			if len(pending) == 0 {
				return NodeOutput{Routing: routingTo(End())}, nil
			}
			return NodeOutput{Routing: routingTo(ToNodes(NodeToolExecute))}, nil
		}

		if in.Resume == nil || in.Resume.ToolApproval == nil {
			return NodeOutput{
				Interrupt: &InterruptRequest{Payload: ToolApprovalRequiredPayload{PendingToolCalls: pending}},
			}, nil
		}

		decision := in.Resume.ToolApproval
		switch decision.Verdict {
		case ToolApprovalApproved:
			return NodeOutput{Routing: routingTo(UseGraphEdges())}, nil
		case ToolApprovalRejected:
			writes := []StagedWrite{
				StageValue(MessagesChannel, NodeToolGate, 0, []ChatMessage{{
					ID:      DeriveRoleMessageID(in.Run.TaskID, RoleSystem),
					Role:    RoleSystem,
					Content: "Tool execution rejected by user.",
					Op:      OpNone,
				}}),
				StageValue(PendingToolCallsChannel, NodeToolGate, 1, []PendingToolCall{}),
			}
			return NodeOutput{Writes: writes, Routing: routingTo(ToNodes(NodeModel))}, nil
		case ToolApprovalCancelled:
			messages := []ChatMessage{{
				ID:      DeriveRoleMessageID(in.Run.TaskID, RoleSystem),
				Role:    RoleSystem,
				Content: "Tool execution cancelled by user.",
				Op:      OpNone,
			}}
			for _, call := range pending {
				messages = append(messages, ChatMessage{
					ID:         DeriveToolCancelledMessageID(call.ID),
					Role:       RoleTool,
					Content:    "Tool call cancelled by user.",
					ToolCallID: call.ID,
					Op:         OpNone,
				})
			}
			writes := []StagedWrite{
				StageValue(MessagesChannel, NodeToolGate, 0, messages),
				StageValue(PendingToolCallsChannel, NodeToolGate, 1, []PendingToolCall{}),
			}
			return NodeOutput{Writes: writes, Routing: routingTo(ToNodes(NodeModel))}, nil
		default:
			return NodeOutput{}, fmt.Errorf("%w: unrecognized tool approval verdict", ErrInvalidRunOptions)
		}
	}
}

// ToolApprovalRequiredPayload is the interrupt payload the tool gate
// raises when a pending tool call needs a human decision.
type ToolApprovalRequiredPayload struct {
	PendingToolCalls []PendingToolCall
}

// ToolExecuteNode returns a node that invokes pending tool calls in
// canonical order, one at a time, under the configured retry policy.
func ToolExecuteNode(cfg RunConfig) NodeFunc {
	return func(ctx context.Context, in NodeInput) (NodeOutput, error) {
		if in.Environment.Tools == nil {
			return NodeOutput{}, ErrToolRegistryMissing
		}
		pending, err := SnapshotGet(in.Snapshot, PendingToolCallsChannel)
		if err != nil {
			return NodeOutput{}, err
		}
		pending = SortPendingToolCalls(pending)

		results := make([]ChatMessage, 0, len(pending))
		for _, call := range pending {
			in.Emit(ToolInvocationStarted, map[string]any{"name": call.Name, "toolCallID": call.ID})

			var output string
			invoke := func() error {
				out, err := in.Environment.Tools.Invoke(ctx, call.Name, call.ArgumentsJSON)
				if err != nil {
					return err
				}
				output = out
				return nil
			}
			onRetry := func(attempt int) {
				if cfg.Metrics != nil {
					cfg.Metrics.IncRetry(NodeToolExecute)
				}
			}
			err := Do(in.Environment.Clock, cfg.Retry, invoke, onRetry)
			success := err == nil
			in.Emit(ToolInvocationFinished, map[string]any{"name": call.Name, "toolCallID": call.ID, "success": success})
			if cfg.Metrics != nil {
				cfg.Metrics.IncToolInvocation(call.Name, success)
			}
			if err != nil {
				return NodeOutput{}, &NodeError{NodeID: NodeToolExecute, TaskID: in.Run.TaskID, Cause: err}
			}

			results = append(results, ChatMessage{
				ID:         DeriveToolMessageID(call.ID),
				Role:       RoleTool,
				Content:    output,
				ToolCallID: call.ID,
				Op:         OpNone,
			})
		}

		writes := []StagedWrite{
			StageValue(PendingToolCallsChannel, NodeToolExecute, 1, []PendingToolCall{}),
		}
		if len(results) > 0 {
			writes = append([]StagedWrite{StageValue(MessagesChannel, NodeToolExecute, 0, results)}, writes...)
		}

		return NodeOutput{Writes: writes, Routing: routingTo(ToNodes(NodeModel))}, nil
	}
}
