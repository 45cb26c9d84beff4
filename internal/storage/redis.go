package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"phishguard/internal/model"
)

// Storage holds session state and small operational caches in Redis.
// Durable scan history lives in Postgres; nothing here is authoritative.
type Storage struct {
	Client *redis.Client
}

func NewStorage(host, port string) *Storage {
	rdb := redis.NewClient(&redis.Options{
		Addr: host + ":" + port,
		DB:   0,
	})
	return &Storage{Client: rdb}
}

// Session is the signed-in identity bound to the session_id cookie.
type Session struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
}

func sessionKey(token string) string { return "session:" + token }

// CreateSession stores a new session and returns its opaque token.
func (s *Storage) CreateSession(ctx context.Context, sess Session, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	val, err := json.Marshal(sess)
	if err != nil {
		return "", err
	}
	if err := s.Client.Set(ctx, sessionKey(token), val, ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// GetSession resolves a cookie token; redis.Nil means signed out / expired.
func (s *Storage) GetSession(ctx context.Context, token string) (*Session, error) {
	val, err := s.Client.Get(ctx, sessionKey(token)).Result()
	if err != nil {
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal([]byte(val), &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// DeleteSession revokes a token on logout.
func (s *Storage) DeleteSession(ctx context.Context, token string) error {
	return s.Client.Del(ctx, sessionKey(token)).Err()
}

const backendStatusKey = "scoring:status"

// SetBackendStatus caches the health poller's latest observation.
func (s *Storage) SetBackendStatus(ctx context.Context, status model.BackendStatus) error {
	return s.SetCache(ctx, backendStatusKey, status, 10*time.Minute)
}

// GetBackendStatus returns the cached status, or nil when never polled.
func (s *Storage) GetBackendStatus(ctx context.Context) (*model.BackendStatus, error) {
	val, err := s.GetCache(ctx, backendStatusKey)
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var status model.BackendStatus
	if err := json.Unmarshal([]byte(val), &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (s *Storage) GetCache(ctx context.Context, key string) (string, error) {
	return s.Client.Get(ctx, key).Result()
}

func (s *Storage) SetCache(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	val, _ := json.Marshal(value)
	return s.Client.Set(ctx, key, val, expiration).Err()
}
