package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/atinyakov/gophvault/internal/auth"
	verrors "github.com/atinyakov/gophvault/internal/errors"
	"github.com/atinyakov/gophvault/internal/models"
)

// CreateMasterPassword sets the first master password, persists its
// verification record into both stores and returns an unlocked session.
// Returns ErrInvalidInput for a short password and ErrPasswordAlreadySet
// when one exists.
func (k *Keeper) CreateMasterPassword(ctx context.Context, password string) (*auth.Session, error) {
	k.writeMu.Lock()
	defer k.writeMu.Unlock()

	s, err := k.gate.CreateMasterPassword(password, func(rec models.MasterPasswordRecord) error {
		return k.saveAll(ctx, rec, k.credentials.List(), k.notes.List())
	})
	if err != nil {
		return nil, err
	}
	k.unlocked()
	k.log.Info("master password created", zap.String("scheme", s.Scheme()))
	return s, nil
}

// Verify unlocks the vault. A wrong password returns
// ErrAuthenticationFailed and leaves the vault locked.
func (k *Keeper) Verify(password string) (*auth.Session, error) {
	s, err := k.gate.Verify(password)
	if err != nil {
		if errors.Is(err, verrors.ErrAuthenticationFailed) {
			k.log.Warn("unlock attempt failed")
		}
		return nil, err
	}
	k.unlocked()
	k.log.Info("vault unlocked")
	return s, nil
}

// ChangeMasterPassword re-encrypts every credential and note under
// newPassword. Either all records and the new verification record are
// persisted, or nothing changes. Every previous session is destroyed.
func (k *Keeper) ChangeMasterPassword(ctx context.Context, oldPassword, newPassword string) (*auth.Session, error) {
	k.writeMu.Lock()
	defer k.writeMu.Unlock()

	var rotated auth.Rotation
	s, err := k.gate.ChangeMasterPassword(oldPassword, newPassword, k.credentials.List(), k.notes.List(),
		func(r auth.Rotation) error {
			if err := k.saveAll(ctx, r.Record, r.Credentials, r.Notes); err != nil {
				return err
			}
			rotated = r
			return nil
		})
	if err != nil {
		return nil, err
	}
	k.credentials.Replace(rotated.Credentials)
	k.notes.Replace(rotated.Notes)
	k.unlocked()

	k.log.Info("master password changed",
		zap.Int("credentials", len(rotated.Credentials)),
		zap.Int("notes", len(rotated.Notes)),
		zap.String("scheme", rotated.Record.Scheme),
	)
	return s, nil
}

// Reset deletes every credential, note, the master password and the
// settings. The vault returns to the no-password state.
func (k *Keeper) Reset(ctx context.Context) error {
	k.writeMu.Lock()
	defer k.writeMu.Unlock()

	if err := k.saveAll(ctx, models.MasterPasswordRecord{}, nil, nil); err != nil {
		return err
	}
	defaults := models.DefaultSettings()
	if err := k.repo.SaveSettings(ctx, defaults); err != nil {
		return fmt.Errorf("%w: %w", verrors.ErrPersistence, err)
	}

	k.gate.Reset()
	for _, p := range k.policies {
		p.Locked()
	}
	k.credentials.Replace(nil)
	k.notes.Replace(nil)
	k.applySettings(defaults)
	k.mu.Lock()
	k.reason = ""
	clear(k.reasons)
	k.mu.Unlock()

	k.log.Info("vault reset")
	return nil
}

func (k *Keeper) saveAll(ctx context.Context, rec models.MasterPasswordRecord, creds []models.CredentialRecord, notes []models.SecureNoteRecord) error {
	if err := k.repo.SaveAll(ctx, k.vaultDoc(rec, creds), k.notesDoc(rec, notes)); err != nil {
		return fmt.Errorf("%w: %w", verrors.ErrPersistence, err)
	}
	return nil
}
