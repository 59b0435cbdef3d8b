package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sundial-ai/sundial/agents"
	"github.com/sundial-ai/sundial/assistant"
	"github.com/sundial-ai/sundial/llm"
	"github.com/sundial-ai/sundial/observability"
	"github.com/sundial-ai/sundial/session"
)

// scriptedLLM routes classification prompts to a fixed category and
// answers everything else with a fixed reply.
type scriptedLLM struct {
	category string
	reply    string
}

func (s *scriptedLLM) Complete(ctx context.Context, messages []*assistant.Message, opts ...llm.CallOption) (*assistant.Message, error) {
	last := messages[len(messages)-1]
	if strings.HasPrefix(last.Content, "Classify the following message") {
		return assistant.NewMessage("agent", s.category), nil
	}
	return assistant.NewMessage("agent", s.reply), nil
}

func (s *scriptedLLM) Stream(ctx context.Context, messages []*assistant.Message, opts ...llm.CallOption) (<-chan *assistant.Message, error) {
	response, err := s.Complete(ctx, messages, opts...)
	if err != nil {
		return nil, err
	}
	ch := make(chan *assistant.Message, 1)
	ch <- response
	close(ch)
	return ch, nil
}

func (s *scriptedLLM) Model() string       { return "scripted" }
func (s *scriptedLLM) Unwrap() interface{} { return nil }

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	a, err := agents.New(agents.Config{
		LLM:      &scriptedLLM{category: "companion", reply: "Hello! How can I help?"},
		Sessions: session.NewInMemoryService(),
	})
	if err != nil {
		t.Fatalf("assistant init failed: %v", err)
	}
	return New(a, ":0", opts...)
}

func postJSON(t *testing.T, handler http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("unexpected body: %v", body)
	}
}

func TestChat(t *testing.T) {
	srv := newTestServer(t)

	rec := postJSON(t, srv.Handler(), "/chat", ChatRequest{UserID: "alice", Message: "hello"})
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d, body: %s", rec.Code, rec.Body.String())
	}

	var resp ChatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if resp.RequestID == "" || resp.SessionID == "" {
		t.Errorf("expected request and session ids, got %+v", resp)
	}
	if resp.Reply != "Hello! How can I help?" {
		t.Errorf("unexpected reply: %q", resp.Reply)
	}
	if resp.Category != "companion" || resp.Agent != "companion" {
		t.Errorf("unexpected routing: %+v", resp)
	}
}

func TestChatSessionContinuity(t *testing.T) {
	srv := newTestServer(t)

	rec := postJSON(t, srv.Handler(), "/chat", ChatRequest{UserID: "alice", Message: "first"})
	var first ChatResponse
	json.Unmarshal(rec.Body.Bytes(), &first)

	rec = postJSON(t, srv.Handler(), "/chat", ChatRequest{UserID: "alice", SessionID: first.SessionID, Message: "second"})
	var second ChatResponse
	json.Unmarshal(rec.Body.Bytes(), &second)

	if second.SessionID != first.SessionID {
		t.Errorf("expected session reuse: %q vs %q", first.SessionID, second.SessionID)
	}
}

func TestChatValidation(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name string
		body ChatRequest
		want string
	}{
		{"missing user", ChatRequest{Message: "hi"}, "user_id is required"},
		{"missing message", ChatRequest{UserID: "alice"}, "message is required"},
	}
	for _, tt := range tests {
		rec := postJSON(t, srv.Handler(), "/chat", tt.body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: unexpected status %d", tt.name, rec.Code)
		}
		var resp errorResponse
		json.Unmarshal(rec.Body.Bytes(), &resp)
		if resp.Code != "INVALID_REQUEST" || !strings.Contains(resp.Error, tt.want) {
			t.Errorf("%s: unexpected error body: %+v", tt.name, resp)
		}
	}
}

func TestChatMalformedBody(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("unexpected status: %d", rec.Code)
	}
}

func TestChatMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/chat", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("unexpected status: %d", rec.Code)
	}
}

func TestChatStream(t *testing.T) {
	srv := newTestServer(t)

	rec := postJSON(t, srv.Handler(), "/chat/stream", ChatRequest{UserID: "alice", Message: "hello"})
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d, body: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("unexpected content type: %q", ct)
	}

	body := rec.Body.String()
	for _, event := range []string{"event: routed", "event: chunk", "event: done"} {
		if !strings.Contains(body, event) {
			t.Errorf("expected %q in stream:\n%s", event, body)
		}
	}
	if !strings.Contains(body, "Hello! How can I help?") {
		t.Errorf("expected reply text in stream:\n%s", body)
	}
}

func TestChatAuditTrail(t *testing.T) {
	var buf bytes.Buffer
	srv := newTestServer(t, WithAuditLog(observability.NewAuditLog(&buf)))

	postJSON(t, srv.Handler(), "/chat", ChatRequest{UserID: "alice", Message: "hello"})
	postJSON(t, srv.Handler(), "/chat", ChatRequest{Message: "no user"})

	trail := buf.String()
	if !strings.Contains(trail, "turn_completed") {
		t.Errorf("expected turn_completed event, got: %s", trail)
	}
	if !strings.Contains(trail, "validation_failure") {
		t.Errorf("expected validation_failure event, got: %s", trail)
	}
	if strings.Contains(trail, "hello") {
		t.Errorf("audit trail must not carry message content: %s", trail)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("unexpected status: %d", rec.Code)
	}
}

func TestSplitChunks(t *testing.T) {
	if chunks := splitChunks("", 4); chunks != nil {
		t.Errorf("expected nil for empty string, got %v", chunks)
	}

	chunks := splitChunks("hello world", 4)
	if joined := strings.Join(chunks, ""); joined != "hello world" {
		t.Errorf("chunks must reassemble: %q", joined)
	}
	for _, chunk := range chunks {
		if len(chunk) > 4 {
			t.Errorf("chunk exceeds limit: %q", chunk)
		}
	}

	// multibyte runes stay intact
	chunks = splitChunks("héllo wörld", 4)
	if joined := strings.Join(chunks, ""); joined != "héllo wörld" {
		t.Errorf("chunks must reassemble: %q", joined)
	}
}

func TestStartStop(t *testing.T) {
	srv := newTestServer(t)
	srv.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		t.Errorf("unexpected shutdown error: %v", err)
	}
}
