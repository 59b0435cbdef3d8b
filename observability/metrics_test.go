package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/sundial-ai/sundial/assistant"
)

func TestMetricsMiddlewarePassesThrough(t *testing.T) {
	if _, err := InitMetrics("sundial-test"); err != nil {
		t.Fatalf("metrics init failed: %v", err)
	}
	defer ShutdownMetrics(context.Background())

	decorated, err := NewMetricsMiddleware(&echoAgent{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decorated.Name() != "echo" {
		t.Errorf("unexpected name: %q", decorated.Name())
	}

	response, err := decorated.Process(context.Background(), assistant.NewMessage("user", "hi"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if response.Content != "hi" {
		t.Errorf("unexpected response: %q", response.Content)
	}

	// error path records and propagates
	failing, err := NewMetricsMiddleware(&echoAgent{err: errors.New("boom")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := failing.Process(context.Background(), assistant.NewMessage("user", "hi")); err == nil {
		t.Error("expected error propagated")
	}
}
