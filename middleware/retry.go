package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/sundial-ai/sundial/assistant"
)

// RetryConfig configures agent-level retry behavior. Provider-level
// retries live with the LLM adapters; this decorator covers everything
// else an agent turn can transiently fail on.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts including the first.
	// Default: 3
	MaxAttempts int

	// InitialBackoff is the initial backoff duration. Default: 100ms
	InitialBackoff time.Duration

	// MaxBackoff caps the backoff duration. Default: 10s
	MaxBackoff time.Duration

	// BackoffMultiplier scales the backoff after each attempt. Default: 2.0
	BackoffMultiplier float64

	// ShouldRetry decides whether an error triggers a retry. Nil retries
	// every error.
	ShouldRetry func(error) bool
}

// DefaultRetryConfig returns a retry config with sensible defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    100 * time.Millisecond,
		MaxBackoff:        10 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// RetryDecorator wraps an agent with exponential backoff retry.
type RetryDecorator struct {
	agent  assistant.Agent
	config RetryConfig
}

// Verify that RetryDecorator implements the Agent interface.
var _ assistant.Agent = (*RetryDecorator)(nil)

// NewRetryDecorator wraps agent with retry logic.
func NewRetryDecorator(agent assistant.Agent, config RetryConfig) *RetryDecorator {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.InitialBackoff <= 0 {
		config.InitialBackoff = 100 * time.Millisecond
	}
	if config.MaxBackoff <= 0 {
		config.MaxBackoff = 10 * time.Second
	}
	if config.BackoffMultiplier <= 0 {
		config.BackoffMultiplier = 2.0
	}
	return &RetryDecorator{
		agent:  agent,
		config: config,
	}
}

// Name returns the name of the underlying agent.
func (r *RetryDecorator) Name() string {
	return r.agent.Name()
}

// Capabilities returns the capabilities of the underlying agent.
func (r *RetryDecorator) Capabilities() []string {
	return r.agent.Capabilities()
}

// Process runs the wrapped agent, retrying failures with backoff.
func (r *RetryDecorator) Process(ctx context.Context, message *assistant.Message) (*assistant.Message, error) {
	var lastErr error
	backoff := r.config.InitialBackoff

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		response, err := r.agent.Process(ctx, message)
		if err == nil {
			return response, nil
		}

		lastErr = err
		if r.config.ShouldRetry != nil && !r.config.ShouldRetry(err) {
			return nil, fmt.Errorf("non-retryable error on attempt %d/%d: %w", attempt, r.config.MaxAttempts, err)
		}
		if attempt == r.config.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("retry cancelled after %d attempts: %w", attempt, ctx.Err())
		case <-time.After(backoff):
			backoff = time.Duration(float64(backoff) * r.config.BackoffMultiplier)
			if backoff > r.config.MaxBackoff {
				backoff = r.config.MaxBackoff
			}
		}
	}

	return nil, fmt.Errorf("max retry attempts (%d) exceeded: %w", r.config.MaxAttempts, lastErr)
}
