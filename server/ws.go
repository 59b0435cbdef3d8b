package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10

	// wsMaxMessageSize bounds one inbound chat request.
	wsMaxMessageSize = 64 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The assistant fronts its own clients; cross-origin policy is
	// enforced at the edge.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsError is sent when a turn fails over the websocket.
type wsError struct {
	RequestID string `json:"request_id"`
	Code      string `json:"code"`
	Error     string `json:"error"`
}

// wsConn serializes writes; gorilla connections allow one writer at a
// time and the ping loop runs beside the turn loop.
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// handleWebSocket upgrades the connection and serves chat turns over it.
// Each client message is a ChatRequest; each reply is a ChatResponse.
// The session sticks to the connection once created, so clients can omit
// session_id after the first turn.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	raw, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	conn := &wsConn{conn: raw}
	defer raw.Close()

	raw.SetReadLimit(wsMaxMessageSize)
	raw.SetReadDeadline(time.Now().Add(wsPongWait))
	raw.SetPongHandler(func(string) error {
		raw.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	go s.pingLoop(conn, r.Context().Done())

	sessionID := ""
	for {
		var req ChatRequest
		if err := raw.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read failed", "error", err)
			}
			return
		}
		raw.SetReadDeadline(time.Now().Add(wsPongWait))

		requestID := uuid.New().String()
		if req.SessionID == "" {
			req.SessionID = sessionID
		}

		if req.UserID == "" || req.Message == "" {
			s.writeWS(conn, wsError{RequestID: requestID, Code: "INVALID_REQUEST", Error: "user_id and message are required"})
			continue
		}

		started := time.Now()
		reply, err := s.assistant.Chat(r.Context(), req.UserID, req.SessionID, req.Message)
		if err != nil {
			s.audit.TurnFailed(r.Context(), req.UserID, req.SessionID, time.Since(started), err)
			s.writeWS(conn, wsError{RequestID: requestID, Code: errorCode(err), Error: err.Error()})
			continue
		}
		sessionID = reply.SessionID
		s.audit.TurnCompleted(r.Context(), req.UserID, reply.SessionID, reply.Category, reply.Agent, time.Since(started))

		s.writeWS(conn, ChatResponse{
			RequestID: requestID,
			SessionID: reply.SessionID,
			Reply:     reply.Content,
			Agent:     reply.Agent,
			Category:  reply.Category,
		})
	}
}

// pingLoop keeps the connection alive until it closes.
func (s *Server) pingLoop(conn *wsConn, done <-chan struct{}) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			conn.mu.Lock()
			conn.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			err := conn.conn.WriteMessage(websocket.PingMessage, nil)
			conn.mu.Unlock()
			if err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (s *Server) writeWS(conn *wsConn, v interface{}) {
	conn.mu.Lock()
	defer conn.mu.Unlock()
	conn.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := conn.conn.WriteJSON(v); err != nil {
		s.logger.Warn("websocket write failed", "error", err)
	}
}
