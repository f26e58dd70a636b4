// Package session persists conversation state in Redis so any instance
// of the service can continue a guest's conversation.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stayline/concierge/internal/dialogue"
)

const defaultTTL = 24 * time.Hour

// RedisStore keeps sessions as JSON blobs with a sliding TTL.
type RedisStore struct {
	redis *redis.Client
	ttl   time.Duration
}

var _ dialogue.SessionStore = (*RedisStore)(nil)

// NewRedisStore creates a store. A non-positive ttl falls back to 24h.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if client == nil {
		panic("session: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisStore{redis: client, ttl: ttl}
}

// Load returns the stored session, or nil when none exists.
func (s *RedisStore) Load(ctx context.Context, id string) (*dialogue.Session, error) {
	data, err := s.redis.Get(ctx, sessionKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session: load %s: %w", id, err)
	}

	var sess dialogue.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("session: decode %s: %w", id, err)
	}
	return &sess, nil
}

// Save persists the session and refreshes its TTL.
func (s *RedisStore) Save(ctx context.Context, sess *dialogue.Session) error {
	if sess == nil || sess.ID == "" {
		return fmt.Errorf("session: cannot save session without id")
	}
	sess.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session: marshal %s: %w", sess.ID, err)
	}
	if err := s.redis.Set(ctx, sessionKey(sess.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("session: persist %s: %w", sess.ID, err)
	}
	return nil
}

// Delete removes the session. Deleting a missing session is not an error.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.redis.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("session: delete %s: %w", id, err)
	}
	return nil
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}
