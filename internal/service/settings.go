package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	verrors "github.com/atinyakov/gophvault/internal/errors"
	"github.com/atinyakov/gophvault/internal/lockpolicy"
	"github.com/atinyakov/gophvault/internal/models"
)

// SettingsUpdate carries the settings to change; nil fields are kept.
type SettingsUpdate struct {
	DarkMode       *bool                `json:"darkMode,omitempty"`
	AutoLock       *bool                `json:"autoLock,omitempty"`
	ClearClipboard *bool                `json:"clearClipboard,omitempty"`
	LockTimeout    *int                 `json:"lockTimeout,omitempty"`
	LockInterval   *models.LockInterval `json:"lockInterval,omitempty"`
}

// Settings returns the current settings.
func (k *Keeper) Settings() models.Settings {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.settings
}

// UpdateSettings validates and persists the present fields, then
// reconfigures the lock policies.
func (k *Keeper) UpdateSettings(ctx context.Context, in SettingsUpdate) (models.Settings, error) {
	k.writeMu.Lock()
	defer k.writeMu.Unlock()

	next := k.Settings()
	if in.DarkMode != nil {
		next.DarkMode = *in.DarkMode
	}
	if in.AutoLock != nil {
		next.AutoLock = *in.AutoLock
	}
	if in.ClearClipboard != nil {
		next.ClearClipboard = *in.ClearClipboard
	}
	if in.LockTimeout != nil {
		if !models.ValidLockTimeout(*in.LockTimeout) {
			return models.Settings{}, verrors.InvalidInput("lockTimeout",
				fmt.Sprintf("must be one of %v minutes", models.AutoLockTimeouts))
		}
		next.LockTimeout = *in.LockTimeout
	}
	if in.LockInterval != nil {
		if !in.LockInterval.Valid() {
			return models.Settings{}, verrors.InvalidInput("lockInterval",
				fmt.Sprintf("unknown lock interval %q", *in.LockInterval))
		}
		next.LockInterval = *in.LockInterval
	}
	return next, k.saveSettings(ctx, next)
}

// ResetSettings restores the reset profile: auto-lock on after five
// minutes and a password on every use.
func (k *Keeper) ResetSettings(ctx context.Context) (models.Settings, error) {
	k.writeMu.Lock()
	defer k.writeMu.Unlock()

	next := models.ResetSettings()
	return next, k.saveSettings(ctx, next)
}

func (k *Keeper) saveSettings(ctx context.Context, s models.Settings) error {
	if err := k.repo.SaveSettings(ctx, s); err != nil {
		return fmt.Errorf("%w: %w", verrors.ErrPersistence, err)
	}
	k.applySettings(s)
	k.log.Debug("settings saved",
		zap.Bool("autoLock", s.AutoLock),
		zap.Int("lockTimeout", s.LockTimeout),
		zap.String("lockInterval", string(s.LockInterval)),
	)
	return nil
}

func (k *Keeper) applySettings(s models.Settings) {
	k.mu.Lock()
	k.settings = s
	k.mu.Unlock()

	k.policy(lockpolicy.AreaCredentials).Reconfigure(credentialsMode(s))
	k.policy(lockpolicy.AreaNotes).Reconfigure(notesMode(s))
}
