package auth

import (
	"context"
	"fmt"

	"github.com/GTDGit/gtd_admin/internal/utils"
)

type ctxKey int

const (
	sessionKey ctxKey = iota
	identityKey
	bearerKey
)

// WithSession stores the console session id on ctx.
func WithSession(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionKey, sessionID)
}

// SessionFrom returns the session id stored on ctx.
func SessionFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionKey).(string)
	return id, ok && id != ""
}

// WithIdentity stores the resolved identity on ctx.
func WithIdentity(ctx context.Context, i *Identity) context.Context {
	return context.WithValue(ctx, identityKey, i)
}

// IdentityFrom returns the identity stored on ctx, or nil.
func IdentityFrom(ctx context.Context) *Identity {
	i, _ := ctx.Value(identityKey).(*Identity)
	return i
}

// WithBearer stores a token presented directly on the request.
func WithBearer(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerKey, token)
}

// TokenLookup reads the current token of a session.
type TokenLookup interface {
	Get(ctx context.Context, sessionID string) (string, error)
}

// SessionTokenProvider resolves the bearer token for outgoing catalog calls.
// A token presented on the request wins; otherwise the session's token is
// read from the store on every call, so a refresh lands on the next request.
type SessionTokenProvider struct {
	store TokenLookup
}

// NewSessionTokenProvider creates a provider backed by store.
func NewSessionTokenProvider(store TokenLookup) *SessionTokenProvider {
	return &SessionTokenProvider{store: store}
}

// Token implements catalogapi.TokenProvider.
func (p *SessionTokenProvider) Token(ctx context.Context) (string, error) {
	if t, ok := ctx.Value(bearerKey).(string); ok && t != "" {
		return t, nil
	}
	sessionID, ok := SessionFrom(ctx)
	if !ok {
		return "", utils.ErrNoSession
	}
	token, err := p.store.Get(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("resolve session token: %w", err)
	}
	return token, nil
}
