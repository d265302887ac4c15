package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/gophvault/internal/config"
)

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	repo, closeFn, err := Open(&config.Options{Storage: config.StorageFile, DataDir: dir})
	require.NoError(t, err)
	assert.IsType(t, &FileRepository{}, repo)
	require.NoError(t, closeFn())

	repo, closeFn, err = Open(&config.Options{Storage: config.StorageSQLite, SQLitePath: filepath.Join(dir, "nested", "vault.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteRepository{}, repo)
	_, err = repo.Load(context.Background())
	assert.NoError(t, err)
	require.NoError(t, closeFn())

	_, _, err = Open(&config.Options{Storage: "redis"})
	assert.Error(t, err)
}
