package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
	"google.golang.org/api/googleapi"

	"github.com/sundial-ai/sundial/assistant"
)

// RetryConfig controls retry behavior for transient provider failures.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts including the first.
	MaxAttempts int

	// InitialBackoff is the delay before the first retry.
	InitialBackoff time.Duration

	// BackoffMultiplier scales the delay after each failed attempt.
	BackoffMultiplier float64

	// MaxBackoff caps the delay between attempts.
	MaxBackoff time.Duration

	// RetryableStatusCodes are the HTTP status codes that trigger a retry.
	RetryableStatusCodes []int
}

// DefaultRetryConfig matches the assistant's standard policy for provider
// rate limits and transient server errors.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       5,
		InitialBackoff:    1 * time.Second,
		BackoffMultiplier: 2.0,
		MaxBackoff:        30 * time.Second,
		RetryableStatusCodes: []int{
			http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout,
		},
	}
}

// RetryLLM wraps an LLM with exponential backoff on retryable errors.
//
// Only errors carrying one of the configured HTTP status codes are
// retried; validation errors and context cancellation fail immediately.
type RetryLLM struct {
	inner  LLM
	config RetryConfig
	logger *slog.Logger
}

// NewRetryLLM wraps inner with the given retry policy. A zero MaxAttempts
// falls back to the default config.
func NewRetryLLM(inner LLM, config RetryConfig) *RetryLLM {
	if config.MaxAttempts <= 0 {
		config = DefaultRetryConfig()
	}
	if config.BackoffMultiplier <= 0 {
		config.BackoffMultiplier = 2.0
	}
	if config.InitialBackoff <= 0 {
		config.InitialBackoff = 1 * time.Second
	}
	return &RetryLLM{
		inner:  inner,
		config: config,
		logger: slog.Default().With("component", "retry_llm", "model", inner.Model()),
	}
}

// Model returns the wrapped model identifier.
func (r *RetryLLM) Model() string {
	return r.inner.Model()
}

// Complete calls the wrapped LLM, retrying on retryable status codes.
func (r *RetryLLM) Complete(ctx context.Context, messages []*assistant.Message, opts ...CallOption) (*assistant.Message, error) {
	var lastErr error
	backoff := r.config.InitialBackoff

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		response, err := r.inner.Complete(ctx, messages, opts...)
		if err == nil {
			if attempt > 1 {
				response.Metadata["retry_attempts"] = attempt
			}
			return response, nil
		}

		lastErr = err
		if !r.isRetryable(err) {
			return nil, err
		}
		if attempt == r.config.MaxAttempts {
			break
		}

		r.logger.Warn("retrying after provider error",
			"attempt", attempt,
			"backoff", backoff,
			"error", err)

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		backoff = time.Duration(float64(backoff) * r.config.BackoffMultiplier)
		if r.config.MaxBackoff > 0 && backoff > r.config.MaxBackoff {
			backoff = r.config.MaxBackoff
		}
	}

	return nil, fmt.Errorf("llm call failed after %d attempts: %w", r.config.MaxAttempts, lastErr)
}

// Stream passes through to the wrapped LLM. Mid-stream failures are not
// retried; only the initial connection benefits from the policy.
func (r *RetryLLM) Stream(ctx context.Context, messages []*assistant.Message, opts ...CallOption) (<-chan *assistant.Message, error) {
	var lastErr error
	backoff := r.config.InitialBackoff

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		stream, err := r.inner.Stream(ctx, messages, opts...)
		if err == nil {
			return stream, nil
		}

		lastErr = err
		if !r.isRetryable(err) {
			return nil, err
		}
		if attempt == r.config.MaxAttempts {
			break
		}

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		backoff = time.Duration(float64(backoff) * r.config.BackoffMultiplier)
		if r.config.MaxBackoff > 0 && backoff > r.config.MaxBackoff {
			backoff = r.config.MaxBackoff
		}
	}

	return nil, fmt.Errorf("llm stream failed after %d attempts: %w", r.config.MaxAttempts, lastErr)
}

// isRetryable reports whether the error carries a retryable HTTP status.
func (r *RetryLLM) isRetryable(err error) bool {
	status, ok := statusCode(err)
	if !ok {
		return false
	}
	for _, code := range r.config.RetryableStatusCodes {
		if status == code {
			return true
		}
	}
	return false
}

// statusCode extracts an HTTP status code from a provider error.
func statusCode(err error) (int, bool) {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code, true
	}
	var openaiErr *openai.APIError
	if errors.As(err, &openaiErr) {
		return openaiErr.HTTPStatusCode, true
	}
	var coded interface{ StatusCode() int }
	if errors.As(err, &coded) {
		return coded.StatusCode(), true
	}
	return 0, false
}

// Unwrap returns the wrapped LLM.
func (r *RetryLLM) Unwrap() interface{} {
	return r.inner
}
