package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/gophvault/internal/auth"
	"github.com/atinyakov/gophvault/internal/crypto"
	verrors "github.com/atinyakov/gophvault/internal/errors"
	"github.com/atinyakov/gophvault/internal/lockpolicy"
	"github.com/atinyakov/gophvault/internal/models"
	"github.com/atinyakov/gophvault/internal/vault"
)

// Keeper is the collaborator interface the UI talks to. It owns the gate,
// both encrypted stores, the settings and one lock policy per area.
type Keeper struct {
	// repo persists every document.
	repo Repository
	// log never receives passwords, plaintext fields or ciphertexts.
	log *zap.Logger

	gate        *auth.Gate
	credentials *vault.CredentialStore
	notes       *vault.NoteStore
	policies    []*lockpolicy.Policy

	// writeMu serialises mutations so a password change sees a stable
	// set of records.
	writeMu sync.Mutex

	mu       sync.Mutex
	settings models.Settings
	reason   lockpolicy.Reason
	// reasons holds the last lock reason of each locked area.
	reasons map[string]lockpolicy.Reason
}

// areas are locked independently by their own policy.
var areas = []string{lockpolicy.AreaCredentials, lockpolicy.AreaNotes}

// Status is what the UI needs to render the lock screen.
type Status struct {
	State          string                `json:"state"`
	HasPasswordSet bool                  `json:"hasPasswordSet"`
	Reason         string                `json:"reason,omitempty"`
	Areas          map[string]AreaStatus `json:"areas"`
}

// AreaStatus is the lock state of one protected area.
type AreaStatus struct {
	State  string `json:"state"`
	Reason string `json:"reason,omitempty"`
}

// NewKeeper loads every document from repo and returns a Keeper whose
// gate is Locked when a master password exists. New passwords are
// protected with scheme; nil selects SHA256.
func NewKeeper(ctx context.Context, repo Repository, scheme crypto.Scheme, log *zap.Logger) (*Keeper, error) {
	if log == nil {
		log = zap.NewNop()
	}
	snap, err := repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load stores: %w", err)
	}
	snap.Vault.Normalize()
	snap.Notes.Normalize()
	snap.Settings.Normalize()

	record := snap.Vault.MasterPasswordHash
	if !record.IsSet() {
		record = snap.Notes.MasterPasswordHash
	}

	k := &Keeper{
		repo:     repo,
		log:      log,
		gate:     auth.NewGate(record, scheme, areas...),
		settings: snap.Settings,
		reasons:  make(map[string]lockpolicy.Reason, len(areas)),
	}
	k.credentials = vault.NewCredentialStore(snap.Vault.Items, k.persistCredentials)
	k.notes = vault.NewNoteStore(snap.Notes.Items, k.persistNotes)

	locker := &gateLocker{k: k}
	k.policies = []*lockpolicy.Policy{
		lockpolicy.New(lockpolicy.AreaCredentials, credentialsMode(k.settings), locker, log),
		lockpolicy.New(lockpolicy.AreaNotes, notesMode(k.settings), locker, log),
	}
	if record.IsSet() {
		k.setReason("", lockpolicy.ReasonManual)
	}

	log.Info("vault loaded",
		zap.Int("credentials", len(snap.Vault.Items)),
		zap.Int("notes", len(snap.Notes.Items)),
		zap.Bool("hasPasswordSet", record.IsSet()),
		zap.String("scheme", record.Scheme),
	)
	return k, nil
}

// Start runs the idle-timeout check of every lock policy until ctx is done.
func (k *Keeper) Start(ctx context.Context, interval time.Duration) {
	for _, p := range k.policies {
		p.Start(ctx, interval)
	}
}

// State returns the gate state, the state of every area and the reasons
// of the locks.
func (k *Keeper) State() Status {
	st := Status{
		State:          k.gate.State().String(),
		HasPasswordSet: k.gate.HasPasswordSet(),
		Areas:          make(map[string]AreaStatus, len(areas)),
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.gate.State() == auth.Locked {
		st.Reason = string(k.reason)
	}
	for _, a := range areas {
		as := AreaStatus{State: k.gate.AreaState(a).String()}
		if k.gate.AreaState(a) == auth.Locked {
			as.Reason = string(k.reasons[a])
		}
		st.Areas[a] = as
	}
	return st
}

// Lock locks the vault and destroys every session.
func (k *Keeper) Lock() {
	k.lock("", lockpolicy.ReasonManual)
}

// Logout destroys one session. Other sessions stay unlocked.
func (k *Keeper) Logout(s *auth.Session) {
	k.gate.Release(s)
}

// Activity forwards a user activity signal to every lock policy.
func (k *Keeper) Activity(s lockpolicy.Signal) error {
	if !s.Valid() {
		return verrors.InvalidInput("signal", fmt.Sprintf("unknown activity signal %q", s))
	}
	for _, p := range k.policies {
		p.Activity(s)
	}
	return nil
}

// VisibilityChanged forwards a UI visibility change to every lock policy.
func (k *Keeper) VisibilityChanged(hidden bool) {
	for _, p := range k.policies {
		p.VisibilityChanged(hidden)
	}
}

// OpenArea tells the area's policy that the UI entered it.
func (k *Keeper) OpenArea(area string) error {
	p := k.policy(area)
	if p == nil {
		return verrors.InvalidInput("area", fmt.Sprintf("unknown area %q", area))
	}
	p.Init()
	return nil
}

// Credentials returns the credentials store for read access.
func (k *Keeper) Credentials() *vault.CredentialStore { return k.credentials }

// Notes returns the secure notes store for read access.
func (k *Keeper) Notes() *vault.NoteStore { return k.notes }

func (k *Keeper) policy(area string) *lockpolicy.Policy {
	for _, p := range k.policies {
		if p.Area() == area {
			return p
		}
	}
	return nil
}

// lock locks one area, or the whole vault when area is empty.
func (k *Keeper) lock(area string, reason lockpolicy.Reason) {
	if area == "" {
		k.gate.Lock()
	} else {
		k.gate.LockArea(area)
	}
	for _, p := range k.policies {
		if area == "" || p.Area() == area {
			p.Locked()
		}
	}
	if !k.gate.HasPasswordSet() {
		return
	}
	k.setReason(area, reason)
	if area != "" {
		k.log.Info("area locked", zap.String("area", area), zap.String("reason", string(reason)))
	}
}

func (k *Keeper) setReason(area string, reason lockpolicy.Reason) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.reason = reason
	if area != "" {
		k.reasons[area] = reason
		return
	}
	for _, a := range areas {
		k.reasons[a] = reason
	}
}

func (k *Keeper) unlocked() {
	for _, p := range k.policies {
		p.Unlocked()
	}
	k.mu.Lock()
	k.reason = ""
	clear(k.reasons)
	k.mu.Unlock()
}

// gateLocker lets each lock policy lock its own area.
type gateLocker struct{ k *Keeper }

func (l *gateLocker) Lock(area string, reason lockpolicy.Reason) { l.k.lock(area, reason) }

func (l *gateLocker) HasPasswordSet() bool { return l.k.gate.HasPasswordSet() }

func (k *Keeper) vaultDoc(record models.MasterPasswordRecord, items []models.CredentialRecord) models.VaultState {
	doc := models.VaultState{Items: items, MasterPasswordHash: record}
	doc.Normalize()
	return doc
}

func (k *Keeper) notesDoc(record models.MasterPasswordRecord, items []models.SecureNoteRecord) models.NotesState {
	doc := models.NotesState{Items: items, MasterPasswordHash: record}
	doc.Normalize()
	return doc
}

func (k *Keeper) persistCredentials(ctx context.Context, items []models.CredentialRecord) error {
	return k.repo.SaveVault(ctx, k.vaultDoc(k.gate.Record(), items))
}

func (k *Keeper) persistNotes(ctx context.Context, items []models.SecureNoteRecord) error {
	return k.repo.SaveNotes(ctx, k.notesDoc(k.gate.Record(), items))
}

func credentialsMode(s models.Settings) lockpolicy.Mode {
	return lockpolicy.FromAutoLock(s.AutoLock, s.LockTimeout)
}

func notesMode(s models.Settings) lockpolicy.Mode {
	return lockpolicy.FromInterval(s.LockInterval)
}
