package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// Spec mirrors the provider-neutral tool description the model node hands
// to a model client; Registry derives it from the registered Tool's Name
// plus caller-supplied metadata, since Tool itself carries no schema.
type Spec struct {
	Name        string
	Description string
}

// Registry is a thread-safe, in-process collection of Tools keyed by
// name, with descriptions kept alongside for listing. It implements the
// core runtime's ToolRegistry contract: Invoke unmarshals the JSON
// arguments string into the map[string]interface{} a Tool expects, and
// marshals its result back to a JSON string.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	descs map[string]string
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool), descs: make(map[string]string)}
}

// Register adds a tool under its own Name(), with a human-readable
// description surfaced to the model via List.
func (r *Registry) Register(t Tool, description string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name()] = t
	r.descs[t.Name()] = description
}

// Has reports whether a tool with the given name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// List returns every registered tool's spec, sorted by name.
func (r *Registry) List() []Spec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	specs := make([]Spec, 0, len(r.tools))
	for name := range r.tools {
		specs = append(specs, Spec{Name: name, Description: r.descs[name]})
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })
	return specs
}

// Invoke resolves name and calls it with argumentsJSON decoded into a
// map, returning the JSON encoding of its result.
func (r *Registry) Invoke(ctx context.Context, name string, argumentsJSON string) (string, error) {
	r.mu.RLock()
	t, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("tool %q is not registered", name)
	}

	var input map[string]interface{}
	if argumentsJSON != "" {
		if err := json.Unmarshal([]byte(argumentsJSON), &input); err != nil {
			return "", fmt.Errorf("decoding arguments for tool %q: %w", name, err)
		}
	}

	output, err := t.Call(ctx, input)
	if err != nil {
		return "", err
	}

	encoded, err := json.Marshal(output)
	if err != nil {
		return "", fmt.Errorf("encoding result for tool %q: %w", name, err)
	}
	return string(encoded), nil
}
