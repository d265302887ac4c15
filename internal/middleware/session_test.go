package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/atinyakov/gophvault/internal/auth"
	"github.com/atinyakov/gophvault/internal/models"
)

// dummyHandler is a placeholder that records if it was called and the context it received.
type dummyHandler struct {
	called bool
	ctx    context.Context
}

func (d *dummyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d.called = true
	d.ctx = r.Context()
	w.WriteHeader(http.StatusOK)
}

func unlockedGate(t *testing.T) (*auth.Gate, *auth.Session) {
	t.Helper()
	g := auth.NewGate(models.MasterPasswordRecord{}, nil)
	s, err := g.CreateMasterPassword("CorrectHorse1", func(models.MasterPasswordRecord) error { return nil })
	if err != nil {
		t.Fatalf("CreateMasterPassword: %v", err)
	}
	return g, s
}

func TestSessionAuth_NoToken(t *testing.T) {
	dummy := &dummyHandler{}
	h := SessionAuth(NewSessions())(dummy)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/credentials", nil)
	h.ServeHTTP(rec, req)

	if dummy.called {
		t.Error("did not expect next handler to be called without a token")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 Unauthorized, got %d", rec.Code)
	}
}

func TestSessionAuth_UnknownToken(t *testing.T) {
	dummy := &dummyHandler{}
	h := SessionAuth(NewSessions())(dummy)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/credentials", nil)
	req.Header.Set(TokenHeader, "nope")
	h.ServeHTTP(rec, req)

	if dummy.called || rec.Code != http.StatusUnauthorized {
		t.Errorf("called = %v, code = %d; want false, 401", dummy.called, rec.Code)
	}
}

func TestSessionAuth_ValidToken(t *testing.T) {
	_, s := unlockedGate(t)
	sessions := NewSessions()
	token := sessions.Issue(s)

	dummy := &dummyHandler{}
	h := SessionAuth(sessions)(dummy)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/credentials", nil)
	req.Header.Set(TokenHeader, token)
	h.ServeHTTP(rec, req)

	if !dummy.called {
		t.Fatal("expected next handler to be called with a valid token")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 OK, got %d", rec.Code)
	}
	if got := GetSessionFromContext(dummy.ctx); got != s {
		t.Error("context does not carry the issued session")
	}
}

func TestSessionAuth_LockedSession(t *testing.T) {
	g, s := unlockedGate(t)
	sessions := NewSessions()
	token := sessions.Issue(s)
	g.Lock()

	dummy := &dummyHandler{}
	h := SessionAuth(sessions)(dummy)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/credentials", nil)
	req.Header.Set(TokenHeader, token)
	h.ServeHTTP(rec, req)

	if dummy.called || rec.Code != http.StatusUnauthorized {
		t.Errorf("called = %v, code = %d; want false, 401", dummy.called, rec.Code)
	}
	if sessions.Len() != 0 {
		t.Errorf("dead token kept, Len = %d", sessions.Len())
	}
}

func TestSessions_PurgeAndRevoke(t *testing.T) {
	g, s := unlockedGate(t)
	sessions := NewSessions()
	a := sessions.Issue(s)
	b := sessions.Issue(s)
	if a == b {
		t.Fatal("tokens must be unique")
	}

	sessions.Revoke(a)
	if _, ok := sessions.Resolve(a); ok {
		t.Error("revoked token still resolves")
	}
	g.Lock()
	sessions.Purge()
	if sessions.Len() != 0 {
		t.Errorf("Len after purge = %d; want 0", sessions.Len())
	}
}

func TestGetSessionFromContext_Empty(t *testing.T) {
	if s := GetSessionFromContext(context.Background()); s != nil {
		t.Errorf("expected nil session, got %v", s)
	}
}

func TestSessions_IssueDropsDeadTokens(t *testing.T) {
	g, s := unlockedGate(t)
	sessions := NewSessions()
	for range 10 {
		sessions.Issue(s)
	}
	g.Lock()

	s2, err := g.Verify("CorrectHorse1")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	token := sessions.Issue(s2)
	if sessions.Len() != 1 {
		t.Errorf("Len = %d; want 1", sessions.Len())
	}
	if _, ok := sessions.Resolve(token); !ok {
		t.Error("fresh token does not resolve")
	}
}
