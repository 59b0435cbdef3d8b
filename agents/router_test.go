package agents

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sundial-ai/sundial/assistant"
)

func TestNewRouterValidation(t *testing.T) {
	if _, err := NewRouter(RouterConfig{Agents: map[string]assistant.Agent{"a": &stubAgent{name: "a"}}}); err == nil {
		t.Error("expected error without classifier")
	}
	if _, err := NewRouter(RouterConfig{Classifier: &stubClassifier{}}); err == nil {
		t.Error("expected error without agents")
	}
	_, err := NewRouter(RouterConfig{
		Classifier: &stubClassifier{},
		Agents:     map[string]assistant.Agent{"a": &stubAgent{name: "a"}},
		DefaultKey: "missing",
	})
	if err == nil || !strings.Contains(err.Error(), "default key") {
		t.Errorf("expected default key error, got %v", err)
	}
}

func TestRouterRoutesByCategory(t *testing.T) {
	tasks := &stubAgent{name: "task_manager", response: "task done"}
	support := &stubAgent{name: "support", response: "here for you"}
	router, err := NewRouter(RouterConfig{
		Name:       "test_router",
		Classifier: &stubClassifier{category: "tasks"},
		Agents:     map[string]assistant.Agent{"tasks": tasks, "support": support},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msg := assistant.NewMessage("user", "remind me")
	result, err := router.Process(context.Background(), msg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Content != "task done" {
		t.Errorf("unexpected response: %q", result.Content)
	}
	if result.Metadata["routed_category"] != "tasks" || result.Metadata["routed_agent"] != "task_manager" {
		t.Errorf("unexpected routing metadata: %+v", result.Metadata)
	}
	if tasks.last != msg {
		t.Error("expected the routed agent to receive the original message")
	}
	if support.last != nil {
		t.Error("expected the other agent to stay idle")
	}
}

func TestRouterClassificationFailureUsesDefault(t *testing.T) {
	fallback := &stubAgent{name: "companion", response: "hello"}
	router, _ := NewRouter(RouterConfig{
		Classifier: &stubClassifier{err: errors.New("no match")},
		Agents:     map[string]assistant.Agent{"companion": fallback},
		DefaultKey: "companion",
	})

	result, err := router.Process(context.Background(), assistant.NewMessage("user", "hi"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Metadata["routed_category"] != "companion" {
		t.Errorf("expected default route, got %v", result.Metadata["routed_category"])
	}
}

func TestRouterClassificationFailureNoDefault(t *testing.T) {
	router, _ := NewRouter(RouterConfig{
		Classifier: &stubClassifier{err: errors.New("no match")},
		Agents:     map[string]assistant.Agent{"tasks": &stubAgent{name: "tasks"}},
	})

	_, err := router.Process(context.Background(), assistant.NewMessage("user", "hi"))
	if err == nil || !strings.Contains(err.Error(), "classification failed") {
		t.Errorf("expected classification error, got %v", err)
	}
}

func TestRouterUnknownCategoryUsesDefault(t *testing.T) {
	fallback := &stubAgent{name: "companion", response: "hello"}
	router, _ := NewRouter(RouterConfig{
		Classifier: &stubClassifier{category: "sports"},
		Agents:     map[string]assistant.Agent{"companion": fallback},
		DefaultKey: "companion",
	})

	result, err := router.Process(context.Background(), assistant.NewMessage("user", "hi"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Metadata["routed_agent"] != "companion" {
		t.Errorf("expected default agent, got %v", result.Metadata["routed_agent"])
	}
}

func TestRouterAgentError(t *testing.T) {
	router, _ := NewRouter(RouterConfig{
		Classifier: &stubClassifier{category: "tasks"},
		Agents:     map[string]assistant.Agent{"tasks": &stubAgent{name: "task_manager", err: errors.New("boom")}},
	})

	_, err := router.Process(context.Background(), assistant.NewMessage("user", "hi"))
	if err == nil || !strings.Contains(err.Error(), "task_manager") {
		t.Errorf("expected agent failure with name, got %v", err)
	}
}

func TestRouterNilMessage(t *testing.T) {
	router, _ := NewRouter(RouterConfig{
		Classifier: &stubClassifier{category: "tasks"},
		Agents:     map[string]assistant.Agent{"tasks": &stubAgent{name: "tasks"}},
	})
	if _, err := router.Process(context.Background(), nil); err == nil {
		t.Error("expected error for nil message")
	}
}

func TestRouterRoutesAndCapabilities(t *testing.T) {
	router, _ := NewRouter(RouterConfig{
		Classifier: &stubClassifier{category: "b"},
		Agents: map[string]assistant.Agent{
			"b": &stubAgent{name: "b"},
			"a": &stubAgent{name: "a"},
		},
	})

	routes := router.Routes()
	if len(routes) != 2 || routes[0] != "a" || routes[1] != "b" {
		t.Errorf("expected sorted routes, got %v", routes)
	}

	capabilities := router.Capabilities()
	joined := strings.Join(capabilities, ",")
	for _, want := range []string{"a_capability", "b_capability", "routing", "classification"} {
		if !strings.Contains(joined, want) {
			t.Errorf("expected capability %q in %v", want, capabilities)
		}
	}
}
