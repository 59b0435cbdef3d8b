package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sundial-ai/sundial/assistant"
)

// slowAgent sleeps before responding, ignoring context cancellation.
type slowAgent struct {
	delay time.Duration
	err   error
}

func (s *slowAgent) Name() string           { return "slow" }
func (s *slowAgent) Capabilities() []string { return nil }

func (s *slowAgent) Process(ctx context.Context, message *assistant.Message) (*assistant.Message, error) {
	time.Sleep(s.delay)
	if s.err != nil {
		return nil, s.err
	}
	return assistant.NewMessage("agent", "done"), nil
}

func TestTimeoutAllowsFastAgent(t *testing.T) {
	decorator := NewTimeoutDecorator(&slowAgent{delay: time.Millisecond}, TimeoutConfig{Timeout: time.Second})

	response, err := decorator.Process(context.Background(), assistant.NewMessage("user", "hi"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if response.Content != "done" {
		t.Errorf("unexpected response: %q", response.Content)
	}

	metrics := decorator.Metrics()
	if metrics.SuccessfulRequests != 1 || metrics.TimedOutRequests != 0 {
		t.Errorf("unexpected metrics: %+v", metrics)
	}
}

func TestTimeoutExpires(t *testing.T) {
	decorator := NewTimeoutDecorator(&slowAgent{delay: 200 * time.Millisecond}, TimeoutConfig{Timeout: 10 * time.Millisecond})

	_, err := decorator.Process(context.Background(), assistant.NewMessage("user", "hi"))
	if err == nil {
		t.Fatal("expected timeout error")
	}
	var timeoutErr *TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("expected TimeoutError, got %T: %v", err, err)
	}
	if timeoutErr.AgentName != "slow" {
		t.Errorf("unexpected agent name: %q", timeoutErr.AgentName)
	}

	if decorator.Metrics().TimedOutRequests != 1 {
		t.Errorf("unexpected metrics: %+v", decorator.Metrics())
	}
}

func TestTimeoutPassesThroughAgentError(t *testing.T) {
	wanted := errors.New("boom")
	decorator := NewTimeoutDecorator(&slowAgent{err: wanted}, TimeoutConfig{Timeout: time.Second})

	_, err := decorator.Process(context.Background(), assistant.NewMessage("user", "hi"))
	if !errors.Is(err, wanted) {
		t.Errorf("expected agent error passed through, got %v", err)
	}
	if decorator.Metrics().FailedRequests != 1 {
		t.Errorf("unexpected metrics: %+v", decorator.Metrics())
	}
}

func TestTimeoutZeroConfigUsesDefault(t *testing.T) {
	decorator := NewTimeoutDecorator(&slowAgent{}, TimeoutConfig{})
	if decorator.config.Timeout != 60*time.Second {
		t.Errorf("expected 60s default, got %v", decorator.config.Timeout)
	}
}

func TestTimeoutMetricsAvgDuration(t *testing.T) {
	metrics := &TimeoutMetrics{}
	if metrics.AvgDuration() != 0 {
		t.Error("expected zero average with no requests")
	}
	metrics.RecordSuccess(10 * time.Millisecond)
	metrics.RecordFailure(30 * time.Millisecond)
	if avg := metrics.AvgDuration(); avg != 20*time.Millisecond {
		t.Errorf("expected 20ms average, got %v", avg)
	}
}
