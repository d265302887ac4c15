// Package auth holds the master password verification record and the
// lock state of the vault. It hands out Session capabilities on a
// successful create or verify and destroys them on lock.
package auth

import (
	"crypto/subtle"
	"fmt"
	"slices"
	"sync"
	"unicode/utf8"

	"github.com/atinyakov/gophvault/internal/crypto"
	verrors "github.com/atinyakov/gophvault/internal/errors"
	"github.com/atinyakov/gophvault/internal/models"
)

// MinPasswordLength is the minimum master password length in characters.
const MinPasswordLength = 8

// MaxSessions bounds the live sessions of a gate. Issuing one more
// destroys the oldest.
const MaxSessions = 16

// State is the lock state of the gate.
type State int

const (
	NoPasswordSet State = iota
	Locked
	Unlocked
)

func (s State) String() string {
	switch s {
	case NoPasswordSet:
		return "no_password_set"
	case Locked:
		return "locked"
	case Unlocked:
		return "unlocked"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Gate verifies the master password without storing it.
type Gate struct {
	mu        sync.Mutex
	record    models.MasterPasswordRecord
	state     State
	preferred crypto.Scheme
	sessions  []*Session
	// areas are locked independently; a successful verify unlocks all.
	areas  []string
	locked map[string]bool
}

// NewGate restores a gate from a persisted record. A gate with a record
// starts Locked; without one it starts in NoPasswordSet. New passwords
// are hashed with preferred (nil selects SHA256). Sessions are scoped to
// areas when any are given.
func NewGate(record models.MasterPasswordRecord, preferred crypto.Scheme, areas ...string) *Gate {
	if preferred == nil {
		preferred = crypto.SHA256{}
	}
	g := &Gate{
		record:    record,
		preferred: preferred,
		state:     NoPasswordSet,
		areas:     areas,
		locked:    make(map[string]bool, len(areas)),
	}
	if record.IsSet() {
		g.state = Locked
		g.lockAll()
	}
	return g
}

// State returns the current state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// AreaState returns the state of one area. Unknown areas follow the
// gate state.
func (g *Gate) AreaState(area string) State {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == Unlocked && g.locked[area] {
		return Locked
	}
	return g.state
}

// Sessions returns the number of live sessions.
func (g *Gate) Sessions() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.sessions)
}

// HasPasswordSet reports whether a master password exists.
func (g *Gate) HasPasswordSet() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.record.IsSet()
}

// Record returns the current verification record.
func (g *Gate) Record() models.MasterPasswordRecord {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.record
}

// ValidatePassword enforces the master password policy.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return verrors.InvalidInput("password", fmt.Sprintf("must be at least %d characters", MinPasswordLength))
	}
	return nil
}

// CreateMasterPassword sets the first master password. commit persists the
// new record; the gate only adopts it, and unlocks, when commit succeeds.
func (g *Gate) CreateMasterPassword(password string, commit func(models.MasterPasswordRecord) error) (*Session, error) {
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.record.IsSet() {
		return nil, verrors.ErrPasswordAlreadySet
	}

	record, err := newRecord(password, g.preferred)
	if err != nil {
		return nil, err
	}
	if commit != nil {
		if err := commit(record); err != nil {
			return nil, err
		}
	}

	g.record = record
	g.unlockAll()
	return g.issue(password, g.preferred), nil
}

// Verify checks password against the record. On success the gate is
// Unlocked and a new Session is returned; on failure the state is unchanged.
func (g *Gate) Verify(password string) (*Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.record.IsSet() {
		return nil, verrors.ErrNoPasswordSet
	}
	scheme, err := g.scheme(g.record.Scheme)
	if err != nil {
		return nil, err
	}
	if !matches(g.record, scheme, password) {
		return nil, verrors.ErrAuthenticationFailed
	}

	g.unlockAll()
	return g.issue(password, scheme), nil
}

// Lock destroys every issued session. A gate without a password has
// nothing to protect and stays in NoPasswordSet.
func (g *Gate) Lock() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.destroySessions()
	g.lockAll()
	if g.record.IsSet() {
		g.state = Locked
	}
}

// LockArea revokes area from every session and leaves the other areas
// unlocked. Once every area is locked the gate is Locked. A gate without
// areas, or an unknown area, locks the whole gate.
func (g *Gate) LockArea(area string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !slices.Contains(g.areas, area) {
		g.destroySessions()
		g.lockAll()
		if g.record.IsSet() {
			g.state = Locked
		}
		return
	}
	g.locked[area] = true
	live := g.sessions[:0]
	for _, s := range g.sessions {
		if s.revoke(area) {
			live = append(live, s)
		}
	}
	clear(g.sessions[len(live):])
	g.sessions = live

	for _, a := range g.areas {
		if !g.locked[a] {
			return
		}
	}
	g.destroySessions()
	if g.record.IsSet() {
		g.state = Locked
	}
}

// Release destroys one session, for a client that is done with it. The
// gate stays unlocked for its other sessions.
func (g *Gate) Release(s *Session) {
	if s == nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	s.destroy()
	g.sessions = slices.DeleteFunc(g.sessions, func(o *Session) bool { return o == s })
}

// Reset forgets the master password and destroys every session.
func (g *Gate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.destroySessions()
	g.lockAll()
	g.record = models.MasterPasswordRecord{}
	g.state = NoPasswordSet
}

// issue must be called with g.mu held. The new session is granted every
// unlocked area.
func (g *Gate) issue(password string, scheme crypto.Scheme) *Session {
	var granted []string
	for _, a := range g.areas {
		if !g.locked[a] {
			granted = append(granted, a)
		}
	}
	g.sessions = slices.DeleteFunc(g.sessions, func(s *Session) bool { return !s.Alive() })
	if n := len(g.sessions) - MaxSessions + 1; n > 0 {
		for _, old := range g.sessions[:n] {
			old.destroy()
		}
		g.sessions = slices.Delete(g.sessions, 0, n)
	}
	s := newSession([]byte(password), crypto.NewFieldCipher(scheme), granted)
	g.sessions = append(g.sessions, s)
	return s
}

// unlockAll must be called with g.mu held.
func (g *Gate) unlockAll() {
	clear(g.locked)
	g.state = Unlocked
}

// lockAll must be called with g.mu held.
func (g *Gate) lockAll() {
	for _, a := range g.areas {
		g.locked[a] = true
	}
}

// destroySessions must be called with g.mu held.
func (g *Gate) destroySessions() {
	for _, s := range g.sessions {
		s.destroy()
	}
	g.sessions = nil
}

// scheme resolves a stored scheme name, preferring the configured
// instance so its parameters apply.
func (g *Gate) scheme(name string) (crypto.Scheme, error) {
	if name == g.preferred.Name() || (name == "" && g.preferred.Name() == crypto.SchemeSHA256) {
		return g.preferred, nil
	}
	return crypto.SchemeByName(name)
}

func newRecord(password string, scheme crypto.Scheme) (models.MasterPasswordRecord, error) {
	salt, err := crypto.NewSalt()
	if err != nil {
		return models.MasterPasswordRecord{}, err
	}
	return models.MasterPasswordRecord{
		Hash:   scheme.HashPassword([]byte(password), salt),
		Salt:   salt,
		Scheme: scheme.Name(),
	}, nil
}

func matches(record models.MasterPasswordRecord, scheme crypto.Scheme, password string) bool {
	got := scheme.HashPassword([]byte(password), record.Salt)
	return subtle.ConstantTimeCompare([]byte(got), []byte(record.Hash)) == 1
}
