package session

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is one conversation between a user and the assistant. A returning
// session ID restores the history and state of the earlier conversation.
type Session struct {
	ID        string    `json:"id"`
	AppName   string    `json:"app_name"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	State     *State    `json:"-"`
}

// Service stores and retrieves sessions.
type Service interface {
	// Create starts a new session for the user.
	Create(ctx context.Context, appName, userID string) (*Session, error)

	// Get returns the session with the given ID.
	Get(ctx context.Context, sessionID string) (*Session, error)

	// GetOrCreate returns an existing session by ID, or a new one when the
	// ID is empty or unknown.
	GetOrCreate(ctx context.Context, appName, userID, sessionID string) (*Session, error)

	// Delete removes a session and its state.
	Delete(ctx context.Context, sessionID string) error

	// Persist writes the session's current state to the backing store.
	// In-memory backends may treat this as a no-op.
	Persist(ctx context.Context, sess *Session) error
}

// InMemoryService keeps sessions in process memory. Data is lost on
// restart; use RedisService when persistence is needed.
type InMemoryService struct {
	mu         sync.RWMutex
	sessions   map[string]*Session
	maxHistory int
}

// NewInMemoryService creates an empty in-memory session service.
func NewInMemoryService() *InMemoryService {
	return &InMemoryService{
		sessions: make(map[string]*Session),
	}
}

// SetMaxHistory sets the history bound applied to new sessions. Zero
// keeps the default.
func (s *InMemoryService) SetMaxHistory(n int) {
	s.mu.Lock()
	s.maxHistory = n
	s.mu.Unlock()
}

// Create starts a new session for the user.
func (s *InMemoryService) Create(ctx context.Context, appName, userID string) (*Session, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}

	sess := &Session{
		ID:        uuid.New().String(),
		AppName:   appName,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
		State:     NewState(),
	}

	s.mu.Lock()
	if s.maxHistory > 0 {
		sess.State.SetMaxHistory(s.maxHistory)
	}
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	return sess, nil
}

// Get returns the session with the given ID.
func (s *InMemoryService) Get(ctx context.Context, sessionID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %q not found", sessionID)
	}
	return sess, nil
}

// GetOrCreate returns an existing session by ID, or creates a new one.
func (s *InMemoryService) GetOrCreate(ctx context.Context, appName, userID, sessionID string) (*Session, error) {
	if sessionID != "" {
		if sess, err := s.Get(ctx, sessionID); err == nil {
			return sess, nil
		}
	}
	return s.Create(ctx, appName, userID)
}

// Delete removes a session and its state.
func (s *InMemoryService) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	return nil
}

// Persist is a no-op for the in-memory backend.
func (s *InMemoryService) Persist(ctx context.Context, sess *Session) error {
	return nil
}

// SessionIDs returns all known session IDs, sorted.
func (s *InMemoryService) SessionIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
