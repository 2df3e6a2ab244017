package tool

import (
	"context"
	"fmt"
	"sync"

	"github.com/ticketd-io/ticketd/internal/client"
	"github.com/ticketd-io/ticketd/pkg/protocol"
)

// Registry holds registered tools and dispatches execution.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool to the registry.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name()] = t
}

// Has returns true if a tool with the given name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// List returns the names of all registered tools.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	return names
}

// Definitions returns all tools in OpenAI function-calling format.
func (r *Registry) Definitions() []protocol.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]protocol.ToolDefinition, 0, len(r.tools))
	for _, t := range r.tools {
		defs = append(defs, protocol.NewToolDefinition(
			t.Name(),
			t.Description(),
			t.Parameters(),
		))
	}
	return defs
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Dispatch runs the named tool and always returns a result string. An
// unrecognized name or a tool error becomes a synthetic failure result so
// the model can self-correct on its next turn; nothing escapes as an error.
func (r *Registry) Dispatch(ctx context.Context, name string, params map[string]any) string {
	t, ok := r.Get(name)
	if !ok {
		return client.Fail(nil, fmt.Sprintf("Unknown tool: %s", name)).String()
	}
	out, err := t.Execute(ctx, params)
	if err != nil {
		return client.Fail(nil, err.Error()).String()
	}
	return out
}
