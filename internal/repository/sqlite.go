package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/atinyakov/gophvault/internal/models"
)

const sqliteUpsert = `
	INSERT INTO stores (name, data, updated_at)
	VALUES (?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(name) DO UPDATE SET
		data = excluded.data,
		updated_at = excluded.updated_at
`

// SQLiteRepository stores each document as a row of the stores table in
// a local SQLite file.
type SQLiteRepository struct {
	// DB is the single-writer handle returned by db.InitSQLite.
	DB *sql.DB
}

// NewSQLiteRepository wraps a database opened by db.InitSQLite.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{DB: db}
}

func (r *SQLiteRepository) Load(ctx context.Context) (models.Snapshot, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT name, data FROM stores WHERE name IN (?, ?, ?)`,
		models.StoreVault, models.StoreNotes, models.StoreSettings,
	)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("load stores: %w", err)
	}
	defer rows.Close()

	docs := make(map[string][]byte, len(storeNames))
	for rows.Next() {
		var name, data string
		if err := rows.Scan(&name, &data); err != nil {
			return models.Snapshot{}, fmt.Errorf("scan: %w", err)
		}
		docs[name] = []byte(data)
	}
	if err := rows.Err(); err != nil {
		return models.Snapshot{}, fmt.Errorf("load stores: %w", err)
	}
	return decodeSnapshot(docs)
}

func (r *SQLiteRepository) SaveVault(ctx context.Context, doc models.VaultState) error {
	return r.saveTx(ctx, map[string]any{models.StoreVault: doc})
}

func (r *SQLiteRepository) SaveNotes(ctx context.Context, doc models.NotesState) error {
	return r.saveTx(ctx, map[string]any{models.StoreNotes: doc})
}

func (r *SQLiteRepository) SaveSettings(ctx context.Context, s models.Settings) error {
	return r.saveTx(ctx, map[string]any{models.StoreSettings: s})
}

func (r *SQLiteRepository) SaveAll(ctx context.Context, vault models.VaultState, notes models.NotesState) error {
	return r.saveTx(ctx, map[string]any{models.StoreVault: vault, models.StoreNotes: notes})
}

func (r *SQLiteRepository) saveTx(ctx context.Context, docs map[string]any) error {
	encoded := make(map[string]string, len(docs))
	for name, v := range docs {
		data, err := encode(name, v)
		if err != nil {
			return err
		}
		encoded[name] = string(data)
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for name, data := range encoded {
		if _, err := tx.ExecContext(ctx, sqliteUpsert, name, data); err != nil {
			return fmt.Errorf("upsert %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
