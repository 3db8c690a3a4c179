package model

import (
	"context"
	"fmt"
)

// FallbackRouter selects a ChatModel by looking up hints["model"] in
// Models; when the hint is absent or unrecognized it falls back to
// Default (or the first entry added, if Default was never set).
//
// It is the simplest possible Router: no cost-based or load-based
// selection, just a named-client lookup with a fallback. Hosts wanting
// smarter routing (cost, latency, capability) implement their own Router
// against the same interface.
type FallbackRouter struct {
	Models  map[string]ChatModel
	Default ChatModel
}

// NewFallbackRouter returns a FallbackRouter with an empty model set and
// def as the fallback used when a hint names no registered model.
func NewFallbackRouter(def ChatModel) *FallbackRouter {
	return &FallbackRouter{Models: make(map[string]ChatModel), Default: def}
}

// Register adds name as a selectable target for the "model" hint.
func (r *FallbackRouter) Register(name string, chat ChatModel) {
	if r.Models == nil {
		r.Models = make(map[string]ChatModel)
	}
	r.Models[name] = chat
}

// Route implements Router. hints["model"] is looked up as a string key
// into Models; any other hint key is ignored, since FallbackRouter only
// understands named selection.
func (r *FallbackRouter) Route(ctx context.Context, messages []Message, hints map[string]any) (ChatModel, error) {
	if name, ok := hints["model"].(string); ok && name != "" {
		if chat, ok := r.Models[name]; ok {
			return chat, nil
		}
		if r.Default == nil {
			return nil, fmt.Errorf("model: no model registered for hint %q and no default configured", name)
		}
	}
	if r.Default != nil {
		return r.Default, nil
	}
	return nil, fmt.Errorf("model: router has no default model and no matching hint")
}
