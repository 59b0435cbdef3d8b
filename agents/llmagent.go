// Package agents contains the assistant's agents: the model-backed
// specialist agents, the router that dispatches between them, and the
// sequential journal pipeline.
package agents

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sundial-ai/sundial/assistant"
	"github.com/sundial-ai/sundial/llm"
	"github.com/sundial-ai/sundial/session"
	"github.com/sundial-ai/sundial/tools"
)

// DefaultMaxToolRounds bounds the tool-calling loop per turn.
const DefaultMaxToolRounds = 8

// LLMAgent is a model-backed agent with an instruction, an optional tool
// registry, and optional access to session conversation history.
//
// When the model requests tool calls, the agent executes them and feeds
// the results back until the model produces a plain response or the round
// limit is hit.
type LLMAgent struct {
	name          string
	description   string
	llm           llm.LLM
	instruction   string
	registry      *tools.Registry
	capabilities  []string
	outputKey     string
	temperature   *float64
	useHistory    bool
	maxToolRounds int
	logger        *slog.Logger
}

// LLMAgentConfig configures an LLMAgent.
type LLMAgentConfig struct {
	// Name identifies the agent in routing metadata and logs.
	Name string

	// Description is a one-line summary of what the agent handles.
	Description string

	// LLM is the model backend. Required.
	LLM llm.LLM

	// Instruction is the system prompt.
	Instruction string

	// Registry holds the tools this agent may call. Optional.
	Registry *tools.Registry

	// Capabilities advertised by the agent.
	Capabilities []string

	// OutputKey, when set, stores the final response content into the
	// session's value store under this key. Used by pipeline stages.
	OutputKey string

	// Temperature overrides the model default when non-nil.
	Temperature *float64

	// UseHistory includes the session's conversation history in the
	// prompt. Pipeline stages leave this off.
	UseHistory bool

	// MaxToolRounds bounds the tool loop. Zero means the default.
	MaxToolRounds int
}

// Verify that LLMAgent implements the Agent interfaces.
var (
	_ assistant.Agent          = (*LLMAgent)(nil)
	_ assistant.StreamingAgent = (*LLMAgent)(nil)
)

// NewLLMAgent creates a model-backed agent.
func NewLLMAgent(config LLMAgentConfig) (*LLMAgent, error) {
	if config.Name == "" {
		return nil, fmt.Errorf("agent name is required")
	}
	if config.LLM == nil {
		return nil, fmt.Errorf("agent '%s': llm is required", config.Name)
	}
	maxRounds := config.MaxToolRounds
	if maxRounds <= 0 {
		maxRounds = DefaultMaxToolRounds
	}

	return &LLMAgent{
		name:          config.Name,
		description:   config.Description,
		llm:           config.LLM,
		instruction:   config.Instruction,
		registry:      config.Registry,
		capabilities:  config.Capabilities,
		outputKey:     config.OutputKey,
		temperature:   config.Temperature,
		useHistory:    config.UseHistory,
		maxToolRounds: maxRounds,
		logger:        slog.Default().With("agent", config.Name),
	}, nil
}

// Name returns the agent's identifier.
func (a *LLMAgent) Name() string {
	return a.name
}

// Description returns the agent's one-line summary.
func (a *LLMAgent) Description() string {
	return a.description
}

// Capabilities returns the agent's advertised capabilities.
func (a *LLMAgent) Capabilities() []string {
	caps := append([]string{}, a.capabilities...)
	if a.registry != nil && len(a.registry.List()) > 0 {
		caps = append(caps, "tool_calling")
	}
	return caps
}

// Process runs one turn: prompt the model, execute any requested tools,
// and return the final response.
func (a *LLMAgent) Process(ctx context.Context, message *assistant.Message) (*assistant.Message, error) {
	if message == nil {
		return nil, fmt.Errorf("message cannot be nil")
	}
	if err := message.Validate(); err != nil {
		return nil, fmt.Errorf("invalid message: %w", err)
	}

	tc, _ := session.ToolContextFrom(ctx)
	messages := a.buildPrompt(tc, message)

	opts := a.callOptions()

	for round := 0; round < a.maxToolRounds; round++ {
		response, err := a.llm.Complete(ctx, messages, opts...)
		if err != nil {
			return nil, fmt.Errorf("agent '%s': %w", a.name, err)
		}

		calls := llm.ToolCallsFrom(response)
		if len(calls) == 0 {
			return a.finish(tc, response), nil
		}

		messages = append(messages, response)
		for _, call := range calls {
			result := a.executeTool(ctx, call)
			messages = append(messages, llm.NewToolResponse(call, result))
		}
	}

	return nil, fmt.Errorf("agent '%s': tool loop exceeded %d rounds", a.name, a.maxToolRounds)
}

// Stream runs one turn and delivers the response incrementally. Turns
// that need tools run through Process first; the model's stream is only
// used when no tool calls are involved.
func (a *LLMAgent) Stream(ctx context.Context, message *assistant.Message) (<-chan *assistant.Message, <-chan error) {
	out := make(chan *assistant.Message)
	errs := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errs)

		if a.registry != nil && len(a.registry.List()) > 0 {
			response, err := a.Process(ctx, message)
			if err != nil {
				errs <- err
				return
			}
			select {
			case out <- response:
			case <-ctx.Done():
			}
			return
		}

		if message == nil {
			errs <- fmt.Errorf("message cannot be nil")
			return
		}
		if err := message.Validate(); err != nil {
			errs <- fmt.Errorf("invalid message: %w", err)
			return
		}

		tc, _ := session.ToolContextFrom(ctx)
		messages := a.buildPrompt(tc, message)

		stream, err := a.llm.Stream(ctx, messages, a.callOptions()...)
		if err != nil {
			errs <- fmt.Errorf("agent '%s': %w", a.name, err)
			return
		}

		var last *assistant.Message
		for chunk := range stream {
			last = chunk
			select {
			case out <- chunk:
			case <-ctx.Done():
				return
			}
		}
		if last != nil {
			a.finish(tc, last)
		}
	}()

	return out, errs
}

// buildPrompt assembles the message list for one model call.
func (a *LLMAgent) buildPrompt(tc *session.ToolContext, message *assistant.Message) []*assistant.Message {
	var messages []*assistant.Message
	if a.instruction != "" {
		messages = append(messages, assistant.NewMessage("system", a.instruction))
	}
	if a.useHistory && tc != nil {
		for _, past := range tc.State().History() {
			if past.Role == "system" {
				continue
			}
			messages = append(messages, past)
		}
	}
	return append(messages, message)
}

// callOptions builds the per-call options for this agent.
func (a *LLMAgent) callOptions() []llm.CallOption {
	var opts []llm.CallOption
	if a.temperature != nil {
		opts = append(opts, llm.WithTemperature(*a.temperature))
	}
	if a.registry != nil {
		if all := a.registry.All(); len(all) > 0 {
			opts = append(opts, llm.WithTools(all))
		}
	}
	return opts
}

// executeTool runs one requested tool call. Failures are reported back to
// the model rather than aborting the turn, so it can recover or rephrase.
func (a *LLMAgent) executeTool(ctx context.Context, call llm.ToolCall) map[string]interface{} {
	if a.registry == nil {
		return map[string]interface{}{"error": fmt.Sprintf("tool '%s' not available", call.Name)}
	}
	tool, ok := a.registry.Get(call.Name)
	if !ok {
		a.logger.Warn("model requested unknown tool", "tool", call.Name)
		return map[string]interface{}{"error": fmt.Sprintf("tool '%s' not found", call.Name)}
	}

	result, err := tool.Execute(ctx, call.Args)
	if err != nil {
		a.logger.Error("tool execution failed", "tool", call.Name, "error", err)
		return map[string]interface{}{"error": err.Error()}
	}
	if !result.Success {
		return map[string]interface{}{"error": result.Error}
	}
	if data, ok := result.Data.(map[string]interface{}); ok {
		return data
	}
	return map[string]interface{}{"output": result.Data}
}

// finish stamps the response and stores the output key, if configured.
func (a *LLMAgent) finish(tc *session.ToolContext, response *assistant.Message) *assistant.Message {
	response.Metadata["agent"] = a.name
	if a.outputKey != "" && tc != nil {
		tc.State().SetValue(a.outputKey, response.Content)
	}
	return response
}
