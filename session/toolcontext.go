package session

import (
	"context"
	"fmt"
)

// ToolContext identifies who is talking and which session's state a tool
// should operate on. It travels on the request context so tool functions
// can reach session state without provider plumbing.
type ToolContext struct {
	UserID  string
	Session *Session
}

// State returns the session state for this context.
func (tc *ToolContext) State() *State {
	return tc.Session.State
}

type toolContextKey struct{}

// WithToolContext attaches a tool context to ctx.
func WithToolContext(ctx context.Context, tc *ToolContext) context.Context {
	return context.WithValue(ctx, toolContextKey{}, tc)
}

// ToolContextFrom extracts the tool context from ctx. Tools call this at
// the top of Execute; a missing context means the agent was invoked outside
// a session turn.
func ToolContextFrom(ctx context.Context) (*ToolContext, error) {
	tc, ok := ctx.Value(toolContextKey{}).(*ToolContext)
	if !ok || tc == nil || tc.Session == nil {
		return nil, fmt.Errorf("no session tool context on request")
	}
	return tc, nil
}
