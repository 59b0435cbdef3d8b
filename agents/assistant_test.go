package agents

import (
	"context"
	"strings"
	"testing"

	"github.com/sundial-ai/sundial/assistant"
	"github.com/sundial-ai/sundial/llm"
	"github.com/sundial-ai/sundial/session"
)

func TestNewValidation(t *testing.T) {
	if _, err := New(Config{Sessions: session.NewInMemoryService()}); err == nil {
		t.Error("expected error without llm")
	}
	if _, err := New(Config{LLM: &mockLLM{}}); err == nil {
		t.Error("expected error without session service")
	}
}

func TestChatRoutesToCompanion(t *testing.T) {
	model := &mockLLM{respond: func(messages []*assistant.Message, options *llm.CallOptions) (*assistant.Message, error) {
		if isClassification(messages) {
			return assistant.NewMessage("agent", "companion"), nil
		}
		return assistant.NewMessage("agent", "Hi! I'm Sundial. What's your name?"), nil
	}}

	a, err := New(Config{LLM: model, Sessions: session.NewInMemoryService()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reply, err := a.Chat(context.Background(), "alice", "", "hello there")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.SessionID == "" {
		t.Error("expected a session id")
	}
	if reply.Category != CategoryCompanion || reply.Agent != "companion" {
		t.Errorf("unexpected routing: %+v", reply)
	}
	if !strings.Contains(reply.Content, "Sundial") {
		t.Errorf("unexpected reply: %q", reply.Content)
	}
}

func TestChatReusesSession(t *testing.T) {
	model := &mockLLM{respond: func(messages []*assistant.Message, options *llm.CallOptions) (*assistant.Message, error) {
		if isClassification(messages) {
			return assistant.NewMessage("agent", "companion"), nil
		}
		return assistant.NewMessage("agent", "ok"), nil
	}}
	sessions := session.NewInMemoryService()
	a, _ := New(Config{LLM: model, Sessions: sessions})

	first, err := a.Chat(context.Background(), "alice", "", "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := a.Chat(context.Background(), "alice", first.SessionID, "hello again")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.SessionID != first.SessionID {
		t.Error("expected session reuse")
	}

	sess, err := sessions.Get(context.Background(), first.SessionID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// two turns recorded: user + response each
	if sess.State.HistoryLen() != 4 {
		t.Errorf("expected 4 history messages, got %d", sess.State.HistoryLen())
	}
}

func TestChatToolRoundTrip(t *testing.T) {
	model := &mockLLM{}
	model.respond = func(messages []*assistant.Message, options *llm.CallOptions) (*assistant.Message, error) {
		if isClassification(messages) {
			return assistant.NewMessage("agent", "tasks"), nil
		}
		last := messages[len(messages)-1]
		if last.Role == "tool" {
			return assistant.NewMessage("agent", "Task added to your list."), nil
		}
		response := assistant.NewMessage("agent", "")
		response.Metadata[llm.MetaToolCalls] = []llm.ToolCall{
			{Name: "create_task", Args: map[string]interface{}{"title": "buy milk"}},
		}
		return response, nil
	}

	sessions := session.NewInMemoryService()
	a, _ := New(Config{LLM: model, Sessions: sessions})

	reply, err := a.Chat(context.Background(), "alice", "", "add buy milk to my todos")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.Category != CategoryTasks || reply.Agent != "task_manager" {
		t.Errorf("unexpected routing: %+v", reply)
	}

	sess, _ := sessions.Get(context.Background(), reply.SessionID)
	tasks := sess.State.TasksFor("alice")
	if len(tasks) != 1 || tasks[0].Title != "buy milk" {
		t.Errorf("unexpected tasks: %+v", tasks)
	}
}

func TestChatKeywordFallbackRouting(t *testing.T) {
	// the classifier model answers garbage, keywords take over
	model := &mockLLM{respond: func(messages []*assistant.Message, options *llm.CallOptions) (*assistant.Message, error) {
		if isClassification(messages) {
			return assistant.NewMessage("agent", "no idea"), nil
		}
		return assistant.NewMessage("agent", "That sounds hard. I'm here."), nil
	}}
	a, _ := New(Config{LLM: model, Sessions: session.NewInMemoryService()})

	reply, err := a.Chat(context.Background(), "alice", "", "I'm feeling really stressed and anxious")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.Category != CategorySupport {
		t.Errorf("expected keyword fallback to support, got %+v", reply)
	}
}

func TestChatRequiresUser(t *testing.T) {
	a, _ := New(Config{LLM: &mockLLM{}, Sessions: session.NewInMemoryService()})
	_, err := a.Chat(context.Background(), "", "", "hi")
	if err == nil || !strings.Contains(err.Error(), "user_id is required") {
		t.Errorf("expected user_id error, got %v", err)
	}
}

func TestChatJournalPipeline(t *testing.T) {
	model := &mockLLM{}
	model.respond = func(messages []*assistant.Message, options *llm.CallOptions) (*assistant.Message, error) {
		if isClassification(messages) {
			return assistant.NewMessage("agent", "journal"), nil
		}
		system := ""
		if len(messages) > 0 && messages[0].Role == "system" {
			system = messages[0].Content
		}
		switch {
		case strings.Contains(system, "Extract emotional data"):
			return assistant.NewMessage("agent", `{"primary_emotions":["calm"]}`), nil
		case strings.Contains(system, "identify patterns"):
			return assistant.NewMessage("agent", `{"patterns":["evening walks help"]}`), nil
		default:
			return assistant.NewMessage("agent", "It sounds like walks are grounding you."), nil
		}
	}

	sessions := session.NewInMemoryService()
	a, _ := New(Config{LLM: model, Sessions: sessions})

	reply, err := a.Chat(context.Background(), "alice", "", "dear diary, I walked tonight and felt calm")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.Category != CategoryJournal || reply.Agent != "journal_analyzer" {
		t.Errorf("unexpected routing: %+v", reply)
	}
	if !strings.Contains(reply.Content, "grounding") {
		t.Errorf("expected only the final stage to speak, got %q", reply.Content)
	}

	sess, _ := sessions.Get(context.Background(), reply.SessionID)
	if v, ok := sess.State.Value("emotion_data"); !ok || !strings.Contains(v, "calm") {
		t.Errorf("expected emotion_data stored, got %q, %v", v, ok)
	}
	if _, ok := sess.State.Value("final_insight"); !ok {
		t.Error("expected final_insight stored")
	}
}

func TestChatWrapDecorator(t *testing.T) {
	wrapped := false
	model := &mockLLM{respond: func(messages []*assistant.Message, options *llm.CallOptions) (*assistant.Message, error) {
		if isClassification(messages) {
			return assistant.NewMessage("agent", "companion"), nil
		}
		return assistant.NewMessage("agent", "hi"), nil
	}}

	a, _ := New(Config{
		LLM:      model,
		Sessions: session.NewInMemoryService(),
		Wrap: func(inner assistant.Agent) assistant.Agent {
			return &markingAgent{inner: inner, hit: &wrapped}
		},
	})

	if _, err := a.Chat(context.Background(), "alice", "", "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !wrapped {
		t.Error("expected wrap decorator to be invoked")
	}
}

type markingAgent struct {
	inner assistant.Agent
	hit   *bool
}

func (m *markingAgent) Name() string           { return m.inner.Name() }
func (m *markingAgent) Capabilities() []string { return m.inner.Capabilities() }

func (m *markingAgent) Process(ctx context.Context, message *assistant.Message) (*assistant.Message, error) {
	*m.hit = true
	return m.inner.Process(ctx, message)
}
