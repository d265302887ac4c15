// Package service wires the master password gate, the encrypted stores,
// the settings and the lock policies into the Keeper facade, delegating
// persistence to a Repository.
package service

import (
	"context"

	"github.com/atinyakov/gophvault/internal/models"
)

// Repository defines the persistence operations required by the Keeper.
// Each Save call replaces the whole named document.
type Repository interface {
	// Load returns every stored document. Missing documents come back
	// as zero values; Load must not fail on a fresh store.
	Load(ctx context.Context) (models.Snapshot, error)
	// SaveVault replaces the credentials document.
	SaveVault(ctx context.Context, doc models.VaultState) error
	// SaveNotes replaces the secure notes document.
	SaveNotes(ctx context.Context, doc models.NotesState) error
	// SaveSettings replaces the settings document.
	SaveSettings(ctx context.Context, s models.Settings) error
	// SaveAll replaces the credentials and notes documents together.
	// Either both are written or neither is.
	SaveAll(ctx context.Context, vault models.VaultState, notes models.NotesState) error
}
