package graph

import "fmt"

// ApprovalPolicyKind selects how the tool gate decides whether a pending
// tool call needs human approval.
type ApprovalPolicyKind int

const (
	ApprovalNever ApprovalPolicyKind = iota
	ApprovalAlways
	ApprovalAllowList
)

// ApprovalPolicy configures the tool approval gate. AllowedTools only
// applies when Kind == ApprovalAllowList.
type ApprovalPolicy struct {
	Kind         ApprovalPolicyKind
	AllowedTools map[string]struct{}
}

// requiresApproval reports whether the given pending tool calls need a
// human decision under this policy.
func (p ApprovalPolicy) requiresApproval(calls []PendingToolCall) bool {
	switch p.Kind {
	case ApprovalNever:
		return false
	case ApprovalAlways:
		return len(calls) > 0
	case ApprovalAllowList:
		for _, c := range calls {
			if _, ok := p.AllowedTools[c.Name]; !ok {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// RunConfig bundles everything a run needs beyond the graph itself: the
// collaborators in Environment, the tool approval policy, and an optional
// compaction policy (nil disables compaction entirely).
type RunConfig struct {
	Environment     Environment
	ApprovalPolicy  ApprovalPolicy
	Compaction      *CompactionPolicy
	CheckpointStore CheckpointStore
	Retry           RetryPolicy
	Metrics         *Metrics
}

// Preflight validates a RunConfig before a run starts or resumes, per the
// checklist: a model client must exist, a tool registry must exist, a
// non-never approval policy requires a checkpoint store, and a configured
// compaction policy requires a tokenizer and sane bounds.
func Preflight(cfg RunConfig) error {
	if cfg.Environment.Model == nil && cfg.Environment.ModelRouter == nil {
		return ErrModelClientMissing
	}
	if cfg.Environment.Tools == nil {
		return ErrToolRegistryMissing
	}
	if cfg.ApprovalPolicy.Kind != ApprovalNever && cfg.CheckpointStore == nil {
		return ErrCheckpointStoreMissing
	}
	if cfg.Compaction != nil {
		if cfg.Environment.Tokenizer == nil {
			return fmt.Errorf("%w: compaction policy set without a tokenizer", ErrInvalidRunOptions)
		}
		if cfg.Compaction.MaxTokens < 1 {
			return fmt.Errorf("%w: compaction maxTokens must be >= 1", ErrInvalidRunOptions)
		}
		if cfg.Compaction.PreserveLastMessages < 0 {
			return fmt.Errorf("%w: compaction preserveLastMessages must be >= 0", ErrInvalidRunOptions)
		}
	}
	return nil
}
