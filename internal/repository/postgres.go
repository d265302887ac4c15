package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/atinyakov/gophvault/internal/models"
)

const pgUpsert = `
	INSERT INTO stores (name, data, updated_at)
	VALUES ($1, $2, CURRENT_TIMESTAMP)
	ON CONFLICT (name) DO UPDATE SET
		data = EXCLUDED.data,
		updated_at = EXCLUDED.updated_at
`

// PostgresRepository stores each document as a JSONB row of the stores table.
type PostgresRepository struct {
	// DB is the database handle for executing queries and transactions.
	DB *sql.DB
}

// NewPostgresRepository creates a PostgresRepository using db.
// db must be connected and carry the schema created by db.InitPostgres.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{DB: db}
}

// Load reads every store row in one query.
func (r *PostgresRepository) Load(ctx context.Context) (models.Snapshot, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT name, data FROM stores WHERE name = ANY($1)`, pq.Array(storeNames))
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("load stores: %w", err)
	}
	defer rows.Close()

	docs := make(map[string][]byte, len(storeNames))
	for rows.Next() {
		var (
			name string
			data []byte
		)
		if err := rows.Scan(&name, &data); err != nil {
			return models.Snapshot{}, fmt.Errorf("scan: %w", err)
		}
		docs[name] = data
	}
	if err := rows.Err(); err != nil {
		return models.Snapshot{}, fmt.Errorf("load stores: %w", err)
	}
	return decodeSnapshot(docs)
}

func (r *PostgresRepository) SaveVault(ctx context.Context, doc models.VaultState) error {
	return r.save(ctx, models.StoreVault, doc)
}

func (r *PostgresRepository) SaveNotes(ctx context.Context, doc models.NotesState) error {
	return r.save(ctx, models.StoreNotes, doc)
}

func (r *PostgresRepository) SaveSettings(ctx context.Context, s models.Settings) error {
	return r.save(ctx, models.StoreSettings, s)
}

// SaveAll writes both documents in one transaction.
func (r *PostgresRepository) SaveAll(ctx context.Context, vault models.VaultState, notes models.NotesState) error {
	vaultData, err := encode(models.StoreVault, vault)
	if err != nil {
		return err
	}
	notesData, err := encode(models.StoreNotes, notes)
	if err != nil {
		return err
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, pgUpsert, models.StoreVault, string(vaultData)); err != nil {
		return fmt.Errorf("upsert %s: %w", models.StoreVault, err)
	}
	if _, err := tx.ExecContext(ctx, pgUpsert, models.StoreNotes, string(notesData)); err != nil {
		return fmt.Errorf("upsert %s: %w", models.StoreNotes, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *PostgresRepository) save(ctx context.Context, name string, v any) error {
	data, err := encode(name, v)
	if err != nil {
		return err
	}
	if _, err := r.DB.ExecContext(ctx, pgUpsert, name, string(data)); err != nil {
		return fmt.Errorf("upsert %s: %w", name, err)
	}
	return nil
}
