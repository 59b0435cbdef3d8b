package assistant

import "context"

// Agent is the core interface all assistant agents implement.
type Agent interface {
	// Name returns the unique identifier for this agent.
	Name() string

	// Process handles a message and returns a response.
	Process(ctx context.Context, message *Message) (*Message, error)

	// Capabilities returns capability identifiers this agent supports.
	// May be empty.
	Capabilities() []string
}

// StreamingAgent extends Agent with incremental responses. The message
// channel is closed when the stream completes; errors are delivered on the
// error channel and end the stream.
type StreamingAgent interface {
	Agent

	Stream(ctx context.Context, message *Message) (<-chan *Message, <-chan error)
}

// Tool is an executable capability an agent can invoke during a turn.
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description tells the model what the tool does and when to use it.
	Description() string

	// Parameters declares the tool's argument schema.
	Parameters() *Schema

	// Execute runs the tool with arguments supplied by the model.
	Execute(ctx context.Context, params map[string]interface{}) (*ToolResult, error)
}
