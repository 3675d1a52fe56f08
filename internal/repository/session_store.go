package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedSessionPrefix = "session:revoked:"

// SessionStore keeps the ids (jti) of logged-out session tokens in Redis
// until the tokens would have expired anyway. A nil client disables the
// denylist: Revoke is a no-op and nothing is ever reported revoked.
type SessionStore struct {
	rdb *redis.Client
}

func NewSessionStore(rdb *redis.Client) *SessionStore { return &SessionStore{rdb: rdb} }

// Enabled reports whether a Redis client backs the store.
func (s *SessionStore) Enabled() bool { return s != nil && s.rdb != nil }

// Revoke denylists jti until exp.
func (s *SessionStore) Revoke(ctx context.Context, jti string, exp time.Time) error {
	if !s.Enabled() || jti == "" {
		return nil
	}
	ttl := time.Until(exp)
	if ttl <= 0 {
		return nil
	}
	return s.rdb.Set(ctx, revokedSessionPrefix+jti, 1, ttl).Err()
}

// IsRevoked reports whether jti was denylisted.
func (s *SessionStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	err := s.rdb.Get(ctx, revokedSessionPrefix+jti).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
