package agents

import (
	"context"
	"strings"

	"github.com/sundial-ai/sundial/assistant"
	"github.com/sundial-ai/sundial/llm"
	"github.com/sundial-ai/sundial/session"
)

// mockLLM answers each Complete call with the given function. A nil
// respond function echoes the last message.
type mockLLM struct {
	respond func(messages []*assistant.Message, options *llm.CallOptions) (*assistant.Message, error)
	calls   int
}

func (m *mockLLM) Complete(ctx context.Context, messages []*assistant.Message, opts ...llm.CallOption) (*assistant.Message, error) {
	m.calls++
	if m.respond == nil {
		return assistant.NewMessage("agent", messages[len(messages)-1].Content), nil
	}
	return m.respond(messages, llm.BuildCallOptions(opts...))
}

func (m *mockLLM) Stream(ctx context.Context, messages []*assistant.Message, opts ...llm.CallOption) (<-chan *assistant.Message, error) {
	response, err := m.Complete(ctx, messages, opts...)
	if err != nil {
		return nil, err
	}
	ch := make(chan *assistant.Message, 1)
	ch <- response
	close(ch)
	return ch, nil
}

func (m *mockLLM) Model() string       { return "mock-model" }
func (m *mockLLM) Unwrap() interface{} { return nil }

// replyWith builds a mockLLM that always answers with the same text.
func replyWith(text string) *mockLLM {
	return &mockLLM{respond: func(messages []*assistant.Message, options *llm.CallOptions) (*assistant.Message, error) {
		return assistant.NewMessage("agent", text), nil
	}}
}

// stubAgent returns a fixed response and records the last message it saw.
type stubAgent struct {
	name     string
	response string
	err      error
	last     *assistant.Message
}

func (s *stubAgent) Name() string           { return s.name }
func (s *stubAgent) Capabilities() []string { return []string{s.name + "_capability"} }

func (s *stubAgent) Process(ctx context.Context, message *assistant.Message) (*assistant.Message, error) {
	s.last = message
	if s.err != nil {
		return nil, s.err
	}
	return assistant.NewMessage("agent", s.response), nil
}

// stubClassifier returns a fixed category or error.
type stubClassifier struct {
	category string
	err      error
}

func (s *stubClassifier) Classify(ctx context.Context, message *assistant.Message) (string, error) {
	return s.category, s.err
}

// sessionCtx builds a request context carrying a fresh session.
func sessionCtx(userID string) (context.Context, *session.Session) {
	sess := &session.Session{ID: "test-session", UserID: userID, State: session.NewState()}
	ctx := session.WithToolContext(context.Background(), &session.ToolContext{
		UserID:  userID,
		Session: sess,
	})
	return ctx, sess
}

// lastContent returns the content of the final message in a prompt.
func lastContent(messages []*assistant.Message) string {
	if len(messages) == 0 {
		return ""
	}
	return messages[len(messages)-1].Content
}

// isClassification reports whether a prompt is a classifier call.
func isClassification(messages []*assistant.Message) bool {
	return len(messages) > 0 && strings.HasPrefix(messages[len(messages)-1].Content, "Classify the following message")
}
