package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/GTDGit/gtd_admin/internal/utils"
)

const sessionKeyPrefix = "console:session:"

// TokenStore keeps the identity-provider bearer token of each console
// session. Outgoing catalog calls read it fresh on every request.
type TokenStore struct {
	redis *RedisClient
	ttl   time.Duration
}

// NewTokenStore creates a store whose entries live for ttl since last use.
func NewTokenStore(redis *RedisClient, ttl time.Duration) *TokenStore {
	return &TokenStore{redis: redis, ttl: ttl}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

// Save stores token for sessionID, replacing any previous token.
func (s *TokenStore) Save(ctx context.Context, sessionID, token string) error {
	if sessionID == "" || token == "" {
		return utils.ErrNoSession
	}
	if err := s.redis.Set(ctx, sessionKey(sessionID), token, s.ttl); err != nil {
		return fmt.Errorf("save session token: %w", err)
	}
	return nil
}

// Get returns the current token of sessionID.
func (s *TokenStore) Get(ctx context.Context, sessionID string) (string, error) {
	token, err := s.redis.Get(ctx, sessionKey(sessionID))
	if errors.Is(err, ErrMiss) {
		return "", utils.ErrSessionNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load session token: %w", err)
	}
	return token, nil
}

// Touch extends the lifetime of sessionID.
func (s *TokenStore) Touch(ctx context.Context, sessionID string) error {
	ok, err := s.redis.Expire(ctx, sessionKey(sessionID), s.ttl)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	if !ok {
		return utils.ErrSessionNotFound
	}
	return nil
}

// Delete removes sessionID.
func (s *TokenStore) Delete(ctx context.Context, sessionID string) error {
	return s.redis.Delete(ctx, sessionKey(sessionID))
}
