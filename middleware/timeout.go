// Package middleware provides reusable decorators for agents.
package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sundial-ai/sundial/assistant"
)

// TimeoutConfig configures timeout behavior.
type TimeoutConfig struct {
	// Timeout is the per-turn deadline. Default: 60 seconds, sized for a
	// multi-round tool-calling turn.
	Timeout time.Duration
}

// DefaultTimeoutConfig returns a timeout config with the default deadline.
func DefaultTimeoutConfig() TimeoutConfig {
	return TimeoutConfig{
		Timeout: 60 * time.Second,
	}
}

// TimeoutMetrics tracks timeout decorator counters.
type TimeoutMetrics struct {
	mu                 sync.RWMutex
	TotalRequests      int64
	SuccessfulRequests int64
	TimedOutRequests   int64
	FailedRequests     int64
	TotalDuration      time.Duration
}

// RecordSuccess records a successful request.
func (m *TimeoutMetrics) RecordSuccess(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TotalRequests++
	m.SuccessfulRequests++
	m.TotalDuration += duration
}

// RecordTimeout records a timed-out request.
func (m *TimeoutMetrics) RecordTimeout(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TotalRequests++
	m.TimedOutRequests++
	m.TotalDuration += duration
}

// RecordFailure records a failed request that did not time out.
func (m *TimeoutMetrics) RecordFailure(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TotalRequests++
	m.FailedRequests++
	m.TotalDuration += duration
}

// AvgDuration returns the average request duration.
func (m *TimeoutMetrics) AvgDuration() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.TotalRequests == 0 {
		return 0
	}
	return m.TotalDuration / time.Duration(m.TotalRequests)
}

// TimeoutError is returned when a turn exceeds the configured timeout.
type TimeoutError struct {
	AgentName string
	Timeout   time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("Request to agent '%s' timed out after %v", e.AgentName, e.Timeout)
}

// TimeoutDecorator wraps an agent with a per-turn deadline. It protects
// the server from hung turns: a classifier plus a multi-round tool loop
// can otherwise block a connection indefinitely.
type TimeoutDecorator struct {
	agent   assistant.Agent
	config  TimeoutConfig
	metrics *TimeoutMetrics
}

// Verify that TimeoutDecorator implements the Agent interface.
var _ assistant.Agent = (*TimeoutDecorator)(nil)

// NewTimeoutDecorator wraps agent with timeout protection.
func NewTimeoutDecorator(agent assistant.Agent, config TimeoutConfig) *TimeoutDecorator {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeoutConfig().Timeout
	}
	return &TimeoutDecorator{
		agent:   agent,
		config:  config,
		metrics: &TimeoutMetrics{},
	}
}

// Name returns the name of the underlying agent.
func (t *TimeoutDecorator) Name() string {
	return t.agent.Name()
}

// Capabilities returns the capabilities of the underlying agent.
func (t *TimeoutDecorator) Capabilities() []string {
	return t.agent.Capabilities()
}

// Metrics returns the timeout counters.
func (t *TimeoutDecorator) Metrics() *TimeoutMetrics {
	return t.metrics
}

// Process runs the wrapped agent under the deadline. The agent runs in a
// goroutine so the deadline holds even if the agent ignores context
// cancellation; the buffered channel keeps that goroutine from leaking.
func (t *TimeoutDecorator) Process(ctx context.Context, message *assistant.Message) (*assistant.Message, error) {
	started := time.Now()

	timeoutCtx, cancel := context.WithTimeout(ctx, t.config.Timeout)
	defer cancel()

	type result struct {
		msg *assistant.Message
		err error
	}
	done := make(chan result, 1)

	go func() {
		msg, err := t.agent.Process(timeoutCtx, message)
		done <- result{msg, err}
	}()

	select {
	case res := <-done:
		duration := time.Since(started)
		if res.err != nil {
			if timeoutCtx.Err() == context.DeadlineExceeded {
				t.metrics.RecordTimeout(duration)
				return nil, &TimeoutError{AgentName: t.Name(), Timeout: t.config.Timeout}
			}
			t.metrics.RecordFailure(duration)
			return nil, res.err
		}
		t.metrics.RecordSuccess(duration)
		return res.msg, nil

	case <-timeoutCtx.Done():
		t.metrics.RecordTimeout(time.Since(started))
		return nil, &TimeoutError{AgentName: t.Name(), Timeout: t.config.Timeout}
	}
}
