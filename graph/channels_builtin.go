package graph

import "sort"

// PendingToolCall is one tool call the model has requested and that has not
// yet been executed.
type PendingToolCall struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	ArgumentsJSON string `json:"argumentsJson"`
}

// SortPendingToolCalls orders calls canonically by (Name, ID), the order
// spec.md requires both for the pending-calls channel's stored value and
// for tool execution order.
func SortPendingToolCalls(calls []PendingToolCall) []PendingToolCall {
	sorted := append([]PendingToolCall(nil), calls...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Name != sorted[j].Name {
			return sorted[i].Name < sorted[j].Name
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}

// Built-in channel keys every graph compiled by this package carries.
var (
	MessagesChannel = ChannelKey[[]ChatMessage]{Name: "messages"}

	PendingToolCallsChannel = ChannelKey[[]PendingToolCall]{Name: "pendingToolCalls"}

	FinalAnswerChannel = ChannelKey[*string]{Name: "finalAnswer"}

	LLMInputMessagesChannel = ChannelKey[*[]ChatMessage]{Name: "llmInputMessages"}
)

// pendingToolCallsReducer implements last-write-wins for the pending tool
// calls channel, normalizing to canonical (name, id) order on every write
// so readers never have to re-sort.
func pendingToolCallsReducer(_ any, update any) (any, error) {
	calls, _ := update.([]PendingToolCall)
	return SortPendingToolCalls(calls), nil
}

// BuiltinChannelSpecs returns the Spec registry for the four channels every
// compiled Graph carries: messages, pendingToolCalls, finalAnswer, and
// llmInputMessages.
func BuiltinChannelSpecs() map[string]Spec {
	codec := NewJSONCodec()
	return map[string]Spec{
		MessagesChannel.Key(): {
			Scope:        "thread",
			Reducer:      MessagesReducer,
			UpdatePolicy: MultiPolicy,
			Initial:      func() any { return []ChatMessage{} },
			Codec:        codec,
			Persistence:  Checkpointed,
		},
		PendingToolCallsChannel.Key(): {
			Scope:        "thread",
			Reducer:      pendingToolCallsReducer,
			UpdatePolicy: SinglePolicy,
			Initial:      func() any { return []PendingToolCall{} },
			Codec:        codec,
			Persistence:  Checkpointed,
		},
		FinalAnswerChannel.Key(): {
			Scope:        "thread",
			Reducer:      LastWriteWins,
			UpdatePolicy: SinglePolicy,
			Initial:      func() any { var p *string; return p },
			Codec:        codec,
			Persistence:  Checkpointed,
		},
		LLMInputMessagesChannel.Key(): {
			Scope:        "thread",
			Reducer:      LastWriteWins,
			UpdatePolicy: SinglePolicy,
			Initial:      func() any { var p *[]ChatMessage; return p },
			Codec:        codec,
			Persistence:  Ephemeral,
		},
	}
}
