// Package tools provides the assistant's tool functions and their registry.
//
// Tools operate on the session state carried in the request context. Each
// specialist agent is handed the subset of tools relevant to its job.
package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sundial-ai/sundial/assistant"
)

// Registry manages available tools for an agent.
type Registry struct {
	tools map[string]assistant.Tool
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]assistant.Tool),
	}
}

// Register adds a tool to the registry.
func (r *Registry) Register(tool assistant.Tool) error {
	if tool == nil {
		return fmt.Errorf("tool cannot be nil")
	}
	if tool.Name() == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if _, exists := r.tools[tool.Name()]; exists {
		return fmt.Errorf("tool '%s' is already registered", tool.Name())
	}
	r.tools[tool.Name()] = tool
	return nil
}

// MustRegister registers tools and panics on conflict. Intended for
// assembly at startup where a duplicate name is a programming error.
func (r *Registry) MustRegister(tools ...assistant.Tool) *Registry {
	for _, tool := range tools {
		if err := r.Register(tool); err != nil {
			panic(err)
		}
	}
	return r
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (assistant.Tool, bool) {
	tool, exists := r.tools[name]
	return tool, exists
}

// List returns all registered tool names, sorted.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns the registered tools in name order.
func (r *Registry) All() []assistant.Tool {
	names := r.List()
	out := make([]assistant.Tool, 0, len(names))
	for _, name := range names {
		out = append(out, r.tools[name])
	}
	return out
}

// Describe returns a formatted description of all available tools.
func (r *Registry) Describe() string {
	if len(r.tools) == 0 {
		return "No tools available."
	}

	var sb strings.Builder
	sb.WriteString("Available tools:\n")
	for _, name := range r.List() {
		sb.WriteString(fmt.Sprintf("- %s: %s\n", name, r.tools[name].Description()))
	}
	return sb.String()
}

// Func adapts a plain function into an assistant.Tool.
type Func struct {
	name        string
	description string
	parameters  *assistant.Schema
	fn          func(ctx context.Context, params map[string]interface{}) (*assistant.ToolResult, error)
}

// Verify that Func implements the Tool interface.
var _ assistant.Tool = (*Func)(nil)

// NewFunc creates a function-backed tool.
func NewFunc(name, description string, parameters *assistant.Schema, fn func(ctx context.Context, params map[string]interface{}) (*assistant.ToolResult, error)) *Func {
	return &Func{
		name:        name,
		description: description,
		parameters:  parameters,
		fn:          fn,
	}
}

// Name returns the tool name.
func (f *Func) Name() string { return f.name }

// Description returns the tool description shown to the model.
func (f *Func) Description() string { return f.description }

// Parameters returns the tool's parameter schema.
func (f *Func) Parameters() *assistant.Schema { return f.parameters }

// Execute runs the tool function.
func (f *Func) Execute(ctx context.Context, params map[string]interface{}) (*assistant.ToolResult, error) {
	return f.fn(ctx, params)
}

// stringParam extracts a string parameter, with ok reporting presence.
func stringParam(params map[string]interface{}, key string) (string, bool) {
	value, ok := params[key].(string)
	return value, ok
}

// requireString extracts a required non-empty string parameter.
func requireString(params map[string]interface{}, key string) (string, error) {
	value, ok := stringParam(params, key)
	if !ok || strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("parameter '%s' is required", key)
	}
	return value, nil
}

// intParam extracts an integer parameter. JSON decoding yields float64,
// so both representations are accepted.
func intParam(params map[string]interface{}, key string) (int, bool) {
	switch v := params[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
