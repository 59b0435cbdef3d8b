package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisService stores sessions in Redis so conversations survive restarts
// and can be shared across instances.
//
// Data layout:
//   - "{prefix}:{session_id}:meta"  -> JSON session metadata
//   - "{prefix}:{session_id}:state" -> JSON state snapshot
//
// Both keys carry the configured TTL; every Persist refreshes it.
type RedisService struct {
	client     *redis.Client
	keyPrefix  string
	ttl        time.Duration
	maxHistory int
}

// SetMaxHistory sets the history bound applied to new sessions. Zero
// keeps the default.
func (s *RedisService) SetMaxHistory(n int) {
	s.maxHistory = n
}

// NewRedisService creates a Redis-backed session service.
//
// redisURL is a standard Redis connection URL. ttl of zero disables expiry.
func NewRedisService(redisURL, keyPrefix string, ttl time.Duration) (*RedisService, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}
	if keyPrefix == "" {
		keyPrefix = "sundial:session"
	}

	return &RedisService{
		client:    redis.NewClient(opts),
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}, nil
}

func (s *RedisService) metaKey(sessionID string) string {
	return fmt.Sprintf("%s:%s:meta", s.keyPrefix, sessionID)
}

func (s *RedisService) stateKey(sessionID string) string {
	return fmt.Sprintf("%s:%s:state", s.keyPrefix, sessionID)
}

// Create starts a new session for the user and writes it through.
func (s *RedisService) Create(ctx context.Context, appName, userID string) (*Session, error) {
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
	if s.maxHistory > 0 {
		sess.State.SetMaxHistory(s.maxHistory)
	}
	if err := s.Persist(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Get loads the session and its state snapshot from Redis.
func (s *RedisService) Get(ctx context.Context, sessionID string) (*Session, error) {
	metaData, err := s.client.Get(ctx, s.metaKey(sessionID)).Result()
	if err == redis.Nil {
		return nil, fmt.Errorf("session %q not found", sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal([]byte(metaData), &sess); err != nil {
		return nil, fmt.Errorf("failed to decode session metadata: %w", err)
	}

	stateData, err := s.client.Get(ctx, s.stateKey(sessionID)).Bytes()
	switch {
	case err == redis.Nil:
		sess.State = NewState()
	case err != nil:
		return nil, fmt.Errorf("failed to load session state: %w", err)
	default:
		state, err := RestoreState(stateData)
		if err != nil {
			return nil, err
		}
		sess.State = state
	}

	return &sess, nil
}

// GetOrCreate returns an existing session by ID, or creates a new one.
func (s *RedisService) GetOrCreate(ctx context.Context, appName, userID, sessionID string) (*Session, error) {
	if sessionID != "" {
		if sess, err := s.Get(ctx, sessionID); err == nil {
			return sess, nil
		}
	}
	return s.Create(ctx, appName, userID)
}

// Delete removes a session and its state.
func (s *RedisService) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.metaKey(sessionID), s.stateKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Persist writes the session metadata and state snapshot, refreshing TTL.
func (s *RedisService) Persist(ctx context.Context, sess *Session) error {
	metaData, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session metadata: %w", err)
	}
	stateData, err := sess.State.Snapshot()
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.metaKey(sess.ID), metaData, s.ttl)
	pipe.Set(ctx, s.stateKey(sess.ID), stateData, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisService) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
