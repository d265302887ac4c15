package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/gophvault/internal/db"
	"github.com/atinyakov/gophvault/internal/models"
)

func setupSQLite(t *testing.T) *SQLiteRepository {
	t.Helper()
	conn, err := db.InitSQLite(filepath.Join(t.TempDir(), "vault.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewSQLiteRepository(conn)
}

func TestSQLiteRepository_LoadEmpty(t *testing.T) {
	repo := setupSQLite(t)
	snap, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.Snapshot{}, snap)
}

func TestSQLiteRepository_RoundTrip(t *testing.T) {
	repo := setupSQLite(t)
	ctx := context.Background()
	vault, notes, settings := sampleDocs()

	require.NoError(t, repo.SaveAll(ctx, vault, notes))
	require.NoError(t, repo.SaveSettings(ctx, settings))

	snap, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, vault, snap.Vault)
	assert.Equal(t, notes, snap.Notes)
	assert.Equal(t, settings, snap.Settings)
}

func TestSQLiteRepository_UpsertOverwrites(t *testing.T) {
	repo := setupSQLite(t)
	ctx := context.Background()
	vault, notes, _ := sampleDocs()

	require.NoError(t, repo.SaveVault(ctx, vault))
	vault.Items = append(vault.Items, models.CredentialRecord{ID: "2", Title: "Bank"})
	require.NoError(t, repo.SaveVault(ctx, vault))
	require.NoError(t, repo.SaveNotes(ctx, notes))

	snap, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Vault.Items, 2)
	assert.Equal(t, "Bank", snap.Vault.Items[1].Title)
	assert.Len(t, snap.Notes.Items, 1)
}

func TestSQLiteRepository_OneRowPerStore(t *testing.T) {
	repo := setupSQLite(t)
	ctx := context.Background()
	vault, notes, settings := sampleDocs()

	require.NoError(t, repo.SaveAll(ctx, vault, notes))
	require.NoError(t, repo.SaveAll(ctx, vault, notes))
	require.NoError(t, repo.SaveSettings(ctx, settings))

	var n int
	require.NoError(t, repo.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM stores`).Scan(&n))
	assert.Equal(t, 3, n)
}
