package auth

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNoSession is returned when a token does not resolve to a session.
var ErrNoSession = errors.New("no such session")

// Session is the request-scoped identity established at login. Handlers read
// it from the request context instead of any global state.
type Session struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

// Store persists sessions between requests. Sessions have no expiry; they
// live until Delete is called at logout.
type Store interface {
	Create(ctx context.Context, sess Session) (string, error)
	Get(ctx context.Context, token string) (Session, error)
	Delete(ctx context.Context, token string) error
	Healthy(ctx context.Context) bool
}

// RedisStore keeps sessions in Redis so they survive restarts and are shared
// across instances.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a store using the given client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "rollcall:session:"}
}

// Create stores a new session under a fresh random token.
func (s *RedisStore) Create(ctx context.Context, sess Session) (string, error) {
	token := uuid.NewString()
	payload, err := json.Marshal(sess)
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, s.prefix+token, payload, 0).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// Get resolves a token to its session.
func (s *RedisStore) Get(ctx context.Context, token string) (Session, error) {
	payload, err := s.client.Get(ctx, s.prefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, ErrNoSession
	}
	if err != nil {
		return Session{}, err
	}
	var sess Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// Delete removes a session; deleting an unknown token is not an error.
func (s *RedisStore) Delete(ctx context.Context, token string) error {
	return s.client.Del(ctx, s.prefix+token).Err()
}

// Healthy verifies redis connectivity.
func (s *RedisStore) Healthy(ctx context.Context) bool {
	return s.client.Ping(ctx).Err() == nil
}

// MemoryStore is a map-backed store for dev and tests, selected with
// SESSION_BACKEND=memory.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]Session)}
}

// Create stores a new session under a fresh random token.
func (s *MemoryStore) Create(_ context.Context, sess Session) (string, error) {
	token := uuid.NewString()
	s.mu.Lock()
	s.sessions[token] = sess
	s.mu.Unlock()
	return token, nil
}

// Get resolves a token to its session.
func (s *MemoryStore) Get(_ context.Context, token string) (Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[token]
	s.mu.RUnlock()
	if !ok {
		return Session{}, ErrNoSession
	}
	return sess, nil
}

// Delete removes a session.
func (s *MemoryStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
	return nil
}

// Healthy always succeeds for the in-memory backend.
func (s *MemoryStore) Healthy(context.Context) bool { return true }
