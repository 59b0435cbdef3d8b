// Package server exposes the assistant over HTTP: a JSON chat endpoint,
// an SSE streaming variant, a websocket transport, health, and metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sundial-ai/sundial/agents"
	"github.com/sundial-ai/sundial/middleware"
	"github.com/sundial-ai/sundial/observability"
)

// ChatRequest is the body of POST /chat and /chat/stream.
type ChatRequest struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
}

// ChatResponse is the body of a successful POST /chat.
type ChatResponse struct {
	RequestID string `json:"request_id"`
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
	Agent     string `json:"agent"`
	Category  string `json:"category"`
}

// errorResponse is the body of any error reply.
type errorResponse struct {
	RequestID string `json:"request_id"`
	Code      string `json:"code"`
	Error     string `json:"error"`
}

// Server is the HTTP front end for the assistant.
type Server struct {
	assistant *agents.Assistant
	server    *http.Server
	mux       *http.ServeMux
	logger    *slog.Logger
	audit     *observability.AuditLog
	mu        sync.Mutex
}

// Option customizes a Server.
type Option func(*Server)

// WithAuditLog records turn-level audit events to the given log.
func WithAuditLog(audit *observability.AuditLog) Option {
	return func(s *Server) {
		s.audit = audit
	}
}

// New creates a server for the assistant on addr.
func New(a *agents.Assistant, addr string, opts ...Option) *Server {
	mux := http.NewServeMux()
	s := &Server{
		assistant: a,
		mux:       mux,
		logger:    slog.Default().With("component", "server"),
		server: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/chat", s.handleChat)
	mux.HandleFunc("/chat/stream", s.handleChatStream)
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.Handle("/metrics", promhttp.Handler())

	return s
}

// Start begins serving in the background.
func (s *Server) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Info("listening", "addr", s.server.Addr)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server error", "error", err)
		}
	}()
}

// Stop drains connections and shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Info("shutting down")
	return s.server.Shutdown(ctx)
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// Handler returns the route mux, for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// handleHealth answers health checks.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodHead && r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleChat runs one conversation turn.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	requestID := uuid.New().String()

	req, ok := s.decodeChatRequest(w, r, requestID)
	if !ok {
		return
	}

	started := time.Now()
	reply, err := s.assistant.Chat(r.Context(), req.UserID, req.SessionID, req.Message)
	if err != nil {
		s.audit.TurnFailed(r.Context(), req.UserID, req.SessionID, time.Since(started), err)
		s.sendError(w, requestID, err)
		return
	}
	s.audit.TurnCompleted(r.Context(), req.UserID, reply.SessionID, reply.Category, reply.Agent, time.Since(started))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ChatResponse{
		RequestID: requestID,
		SessionID: reply.SessionID,
		Reply:     reply.Content,
		Agent:     reply.Agent,
		Category:  reply.Category,
	})
}

// handleChatStream runs one turn and delivers the reply as SSE events:
// a "routed" event with turn metadata, "chunk" events with reply text,
// and a final "done" event.
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	requestID := uuid.New().String()

	req, ok := s.decodeChatRequest(w, r, requestID)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.sendError(w, requestID, fmt.Errorf("streaming not supported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	started := time.Now()
	reply, err := s.assistant.Chat(r.Context(), req.UserID, req.SessionID, req.Message)
	if err != nil {
		s.audit.TurnFailed(r.Context(), req.UserID, req.SessionID, time.Since(started), err)
		s.sendSSE(w, "error", errorResponse{RequestID: requestID, Code: errorCode(err), Error: err.Error()})
		flusher.Flush()
		return
	}
	s.audit.TurnCompleted(r.Context(), req.UserID, reply.SessionID, reply.Category, reply.Agent, time.Since(started))

	s.sendSSE(w, "routed", map[string]string{
		"request_id": requestID,
		"session_id": reply.SessionID,
		"agent":      reply.Agent,
		"category":   reply.Category,
	})
	flusher.Flush()

	for _, chunk := range splitChunks(reply.Content, 256) {
		select {
		case <-r.Context().Done():
			return
		default:
		}
		s.sendSSE(w, "chunk", map[string]string{"text": chunk})
		flusher.Flush()
	}

	s.sendSSE(w, "done", map[string]string{"request_id": requestID})
	flusher.Flush()
}

// decodeChatRequest parses and validates the chat request body.
func (s *Server) decodeChatRequest(w http.ResponseWriter, r *http.Request, requestID string) (ChatRequest, bool) {
	var req ChatRequest
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, requestID, "INVALID_REQUEST", "failed to decode request body")
		return req, false
	}
	if strings.TrimSpace(req.UserID) == "" {
		s.audit.ValidationFailure(r.Context(), req.UserID, "user_id is required")
		s.writeError(w, http.StatusBadRequest, requestID, "INVALID_REQUEST", "user_id is required")
		return req, false
	}
	if strings.TrimSpace(req.Message) == "" {
		s.audit.ValidationFailure(r.Context(), req.UserID, "message is required")
		s.writeError(w, http.StatusBadRequest, requestID, "INVALID_REQUEST", "message is required")
		return req, false
	}
	return req, true
}

// sendSSE writes one server-sent event.
func (s *Server) sendSSE(w http.ResponseWriter, event string, data interface{}) {
	jsonData, _ := json.Marshal(data)
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, jsonData)
}

// sendError maps a turn error onto an HTTP error response.
func (s *Server) sendError(w http.ResponseWriter, requestID string, err error) {
	code := errorCode(err)
	status := http.StatusInternalServerError
	switch code {
	case "INVALID_REQUEST":
		status = http.StatusBadRequest
	case "TIMEOUT":
		status = http.StatusGatewayTimeout
	}
	s.writeError(w, status, requestID, code, err.Error())
}

func (s *Server) writeError(w http.ResponseWriter, status int, requestID, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{
		RequestID: requestID,
		Code:      code,
		Error:     message,
	})
}

// errorCode classifies a turn error for clients.
func errorCode(err error) string {
	var timeoutErr *middleware.TimeoutError
	if errors.As(err, &timeoutErr) {
		return "TIMEOUT"
	}
	if strings.Contains(err.Error(), "is required") {
		return "INVALID_REQUEST"
	}
	return "EXECUTION_ERROR"
}

// splitChunks cuts s into pieces of at most n bytes, on rune boundaries.
func splitChunks(s string, n int) []string {
	if s == "" {
		return nil
	}
	var chunks []string
	current := make([]rune, 0, n)
	size := 0
	for _, r := range s {
		runeLen := len(string(r))
		if size+runeLen > n && size > 0 {
			chunks = append(chunks, string(current))
			current = current[:0]
			size = 0
		}
		current = append(current, r)
		size += runeLen
	}
	if len(current) > 0 {
		chunks = append(chunks, string(current))
	}
	return chunks
}
