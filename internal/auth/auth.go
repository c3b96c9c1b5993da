// Package auth is the session engine's view of the authentication subsystem:
// tokens in, user ids out. The real user store lives elsewhere; this resolver
// keeps an in-memory token table and can mint tokens for known users.
package auth

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"quiz-session-service/internal/domain"
)

// StaticResolver resolves tokens against an in-memory table.
type StaticResolver struct {
	mu     sync.RWMutex
	tokens map[string]string // token -> userID
}

// NewStaticResolver seeds the resolver with pre-issued tokens (token -> user).
func NewStaticResolver(tokens map[string]string) *StaticResolver {
	t := make(map[string]string, len(tokens))
	for token, userID := range tokens {
		t[token] = userID
	}
	return &StaticResolver{tokens: t}
}

// Issue mints a fresh opaque token for a user.
func (r *StaticResolver) Issue(userID string) string {
	token := uuid.NewString()
	r.mu.Lock()
	r.tokens[token] = userID
	r.mu.Unlock()
	return token
}

// Resolve returns the user id behind a token.
func (r *StaticResolver) Resolve(_ context.Context, token string) (string, error) {
	if token == "" {
		return "", domain.ErrInvalidToken
	}
	r.mu.RLock()
	userID, ok := r.tokens[token]
	r.mu.RUnlock()
	if !ok {
		return "", domain.ErrInvalidToken
	}
	return userID, nil
}

// Revoke invalidates a token.
func (r *StaticResolver) Revoke(token string) {
	r.mu.Lock()
	delete(r.tokens, token)
	r.mu.Unlock()
}
