// Package middleware provides HTTP middlewares for session authentication
// and logging.
package middleware

import (
	"context"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/atinyakov/gophvault/internal/auth"
)

type ctxKey string

const sessionKey ctxKey = "session"

// TokenHeader carries the session token on protected requests.
const TokenHeader = "X-Session-Token"

// Sessions maps opaque tokens to unlocked sessions. A token stops
// resolving as soon as its session is destroyed by a lock.
type Sessions struct {
	mu     sync.Mutex
	tokens map[string]*auth.Session
}

// NewSessions returns an empty registry.
func NewSessions() *Sessions {
	return &Sessions{tokens: make(map[string]*auth.Session)}
}

// Issue registers s and returns its token. Tokens of destroyed sessions
// are dropped on the way.
func (r *Sessions) Issue(s *auth.Session) string {
	token := uuid.NewString()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.purge()
	r.tokens[token] = s
	return token
}

// Resolve returns the live session behind token. Dead sessions are
// dropped from the registry.
func (r *Sessions) Resolve(token string) (*auth.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.tokens[token]
	if !ok {
		return nil, false
	}
	if !s.Alive() {
		delete(r.tokens, token)
		return nil, false
	}
	return s, true
}

// Revoke forgets token.
func (r *Sessions) Revoke(token string) {
	r.mu.Lock()
	delete(r.tokens, token)
	r.mu.Unlock()
}

// Purge drops every token whose session has been destroyed.
func (r *Sessions) Purge() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.purge()
}

// purge must be called with r.mu held.
func (r *Sessions) purge() {
	for token, s := range r.tokens {
		if !s.Alive() {
			delete(r.tokens, token)
		}
	}
}

// Len returns the number of registered tokens.
func (r *Sessions) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tokens)
}

// SessionAuth is a middleware that requires a live session token.
//
// It reads the X-Session-Token header and resolves it against sessions.
// Missing, unknown and locked tokens are answered with 401. On success
// the session is stored in the request context for the handlers.
func SessionAuth(sessions *Sessions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(TokenHeader)
			if token == "" {
				http.Error(w, "session token required", http.StatusUnauthorized)
				return
			}
			s, ok := sessions.Resolve(token)
			if !ok {
				http.Error(w, "vault is locked", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), sessionKey, s)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSessionFromContext extracts the session stored by SessionAuth.
// Returns nil if not found.
func GetSessionFromContext(ctx context.Context) *auth.Session {
	s, _ := ctx.Value(sessionKey).(*auth.Session)
	return s
}
