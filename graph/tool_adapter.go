package graph

import (
	"context"

	"github.com/corvid-labs/chatgraph/graph/tool"
)

// toolRegistryAdapter adapts a *tool.Registry to the ToolRegistry
// interface nodes consume, converting tool.Spec to the graph package's
// own ToolSpec at the boundary.
type toolRegistryAdapter struct {
	registry *tool.Registry
}

// NewToolRegistry wraps a graph/tool Registry as a ToolRegistry suitable
// for Environment.Tools.
func NewToolRegistry(registry *tool.Registry) ToolRegistry {
	return &toolRegistryAdapter{registry: registry}
}

func (a *toolRegistryAdapter) Invoke(ctx context.Context, name string, argumentsJSON string) (string, error) {
	return a.registry.Invoke(ctx, name, argumentsJSON)
}

func (a *toolRegistryAdapter) Has(name string) bool {
	return a.registry.Has(name)
}

func (a *toolRegistryAdapter) List() []ToolSpec {
	specs := a.registry.List()
	out := make([]ToolSpec, len(specs))
	for i, s := range specs {
		out[i] = ToolSpec{Name: s.Name, Description: s.Description}
	}
	return out
}
