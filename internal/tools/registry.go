// Package tools provides the tool registry for tool-augmented generation.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// ExecutorFunc runs a tool with JSON-encoded arguments and returns a
// JSON-encoded result.
type ExecutorFunc func(ctx context.Context, args json.RawMessage) (json.RawMessage, error)

// Definition describes a tool to the model: name, description and a JSON
// Schema for its input.
type Definition struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

// Tool pairs a definition with its executor.
type Tool struct {
	Definition
	Execute ExecutorFunc
}

// Registry stores tools keyed by name.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// DefaultRegistry is the shared registry used by the service.
var DefaultRegistry = NewRegistry()

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register adds a tool.
func (r *Registry) Register(t Tool) error {
	if t.Name == "" {
		return fmt.Errorf("tool name is required")
	}
	if t.Execute == nil {
		return fmt.Errorf("executor is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.Name]; exists {
		return fmt.Errorf("tool already registered for %s", t.Name)
	}
	r.tools[t.Name] = t
	return nil
}

// MustRegister adds a tool or panics.
func (r *Registry) MustRegister(t Tool) {
	if err := r.Register(t); err != nil {
		panic(err)
	}
}

// List returns all tool definitions sorted by name.
func (r *Registry) List() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]Definition, 0, len(r.tools))
	for _, t := range r.tools {
		defs = append(defs, t.Definition)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Execute runs the tool with the given name.
func (r *Registry) Execute(ctx context.Context, name string, args json.RawMessage) (json.RawMessage, error) {
	if name == "" {
		return nil, fmt.Errorf("tool name is required")
	}
	r.mu.RLock()
	t, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no tool registered for %s", name)
	}
	return t.Execute(ctx, args)
}
