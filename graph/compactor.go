package graph

// CompactionPolicy bounds how much history the model node is shown.
// MaxTokens is the budget; PreserveLastMessages is the minimum tail kept
// regardless of budget pressure.
type CompactionPolicy struct {
	MaxTokens            int
	PreserveLastMessages int
}

// Compact derives an optionally-shortened view of history for the model
// node without mutating history itself. A nil return means "use history
// verbatim" (the caller should clear llmInputMessages to none).
//
// It never mutates history; every slice it returns is a fresh copy.
func Compact(history []ChatMessage, policy CompactionPolicy, tokenizer Tokenizer) []ChatMessage {
	if tokenizer.CountMessages(history) <= policy.MaxTokens {
		return nil
	}

	keepTailCount := policy.PreserveLastMessages
	if keepTailCount > len(history) {
		keepTailCount = len(history)
	}
	head := append([]ChatMessage{}, history[:len(history)-keepTailCount]...)
	kept := append([]ChatMessage{}, history[len(history)-keepTailCount:]...)

	for len(kept) > 1 && tokenizer.CountMessages(kept) > policy.MaxTokens {
		kept = kept[1:]
	}

	if tokenizer.CountMessages(kept) <= policy.MaxTokens {
		for i := len(head) - 1; i >= 0; i-- {
			candidate := append([]ChatMessage{head[i]}, kept...)
			if tokenizer.CountMessages(candidate) > policy.MaxTokens {
				break
			}
			kept = candidate
		}
	}

	if len(history) > 0 && history[0].Role == RoleSystem && len(history) > len(kept) {
		alreadyPresent := len(kept) > 0 && kept[0].ID == history[0].ID
		if !alreadyPresent {
			candidate := append([]ChatMessage{history[0]}, kept...)
			if tokenizer.CountMessages(candidate) <= policy.MaxTokens {
				kept = candidate
			}
		}
	}

	return kept
}
