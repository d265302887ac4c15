package repository

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/atinyakov/gophvault/internal/config"
	"github.com/atinyakov/gophvault/internal/db"
	"github.com/atinyakov/gophvault/internal/service"
)

// Open returns the repository selected by opts.Storage and a function
// that releases it.
func Open(opts *config.Options) (service.Repository, func() error, error) {
	switch opts.Storage {
	case config.StorageFile:
		return NewFileRepository(opts.DataDir), func() error { return nil }, nil
	case config.StoragePostgres:
		conn, err := db.InitPostgres(opts.DatabaseDSN)
		if err != nil {
			return nil, nil, err
		}
		return NewPostgresRepository(conn), conn.Close, nil
	case config.StorageSQLite:
		if err := os.MkdirAll(filepath.Dir(opts.SQLitePath), 0o700); err != nil {
			return nil, nil, fmt.Errorf("create sqlite directory: %w", err)
		}
		conn, err := db.InitSQLite(opts.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return NewSQLiteRepository(conn), conn.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown storage %q", opts.Storage)
}
