// Package llm provides the minimal LLM contract the assistant's agents
// talk to, plus provider adapters.
//
// The interface is intentionally small: Complete, Stream, Model, Unwrap.
// Provider-specific features stay behind Unwrap so agents can swap between
// Gemini and OpenAI without code changes.
package llm

import (
	"context"
	"encoding/json"

	"github.com/sundial-ai/sundial/assistant"
)

// Metadata keys used by adapters to carry tool calling information on
// messages.
//
//   - MetaToolCalls: []ToolCall on an agent message requesting execution
//   - MetaToolName / MetaToolCallID / MetaToolResponse: set on a "tool"
//     role message that feeds a result back to the model
const (
	MetaToolCalls    = "tool_calls"
	MetaToolName     = "tool_name"
	MetaToolCallID   = "tool_call_id"
	MetaToolResponse = "tool_response"
)

// ToolCall is a model request to execute one tool. ID is set by providers
// that correlate calls and responses; Gemini leaves it empty.
type ToolCall struct {
	ID   string                 `json:"id,omitempty"`
	Name string                 `json:"name"`
	Args map[string]interface{} `json:"args"`
}

// ToolCallsFrom extracts tool calls from a response message, if any.
func ToolCallsFrom(msg *assistant.Message) []ToolCall {
	if msg == nil || msg.Metadata == nil {
		return nil
	}
	calls, _ := msg.Metadata[MetaToolCalls].([]ToolCall)
	return calls
}

// NewToolResponse builds a "tool" role message carrying a tool result back
// to the model. Content holds the JSON form for providers that expect text.
func NewToolResponse(call ToolCall, response map[string]interface{}) *assistant.Message {
	body, _ := json.Marshal(response)
	msg := assistant.NewMessage("tool", string(body))
	msg.Metadata[MetaToolName] = call.Name
	msg.Metadata[MetaToolResponse] = response
	if call.ID != "" {
		msg.Metadata[MetaToolCallID] = call.ID
	}
	return msg
}

// LLM is the minimal interface for agent-model interaction.
type LLM interface {
	// Complete generates a single response for the conversation. The
	// response role is "agent"; when the model requests tool execution the
	// calls are attached under MetaToolCalls and Content may be empty.
	Complete(ctx context.Context, messages []*assistant.Message, opts ...CallOption) (*assistant.Message, error)

	// Stream generates response chunks. The channel closes when the stream
	// completes. Adapters that cannot stream return an error immediately.
	Stream(ctx context.Context, messages []*assistant.Message, opts ...CallOption) (<-chan *assistant.Message, error)

	// Model returns the model identifier for this instance.
	Model() string

	// Unwrap returns the native provider client for advanced use.
	Unwrap() interface{}
}

// CallOptions holds per-call configuration.
type CallOptions struct {
	Temperature *float64
	MaxTokens   *int
	TopP        *float64

	// Tools the model may call during this completion.
	Tools []assistant.Tool

	// Extra carries provider-specific options.
	Extra map[string]interface{}
}

// CallOption configures a single LLM call.
type CallOption func(*CallOptions)

// WithTemperature sets the sampling temperature.
func WithTemperature(temperature float64) CallOption {
	return func(opts *CallOptions) {
		opts.Temperature = &temperature
	}
}

// WithMaxTokens sets the maximum number of tokens to generate.
func WithMaxTokens(maxTokens int) CallOption {
	return func(opts *CallOptions) {
		opts.MaxTokens = &maxTokens
	}
}

// WithTopP sets the nucleus sampling parameter.
func WithTopP(topP float64) CallOption {
	return func(opts *CallOptions) {
		opts.TopP = &topP
	}
}

// WithTools makes the given tools callable during the completion.
func WithTools(tools []assistant.Tool) CallOption {
	return func(opts *CallOptions) {
		opts.Tools = tools
	}
}

// WithExtra adds a provider-specific option.
func WithExtra(key string, value interface{}) CallOption {
	return func(opts *CallOptions) {
		if opts.Extra == nil {
			opts.Extra = make(map[string]interface{})
		}
		opts.Extra[key] = value
	}
}

// BuildCallOptions creates CallOptions from functional options.
func BuildCallOptions(opts ...CallOption) *CallOptions {
	options := &CallOptions{
		Extra: make(map[string]interface{}),
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}
