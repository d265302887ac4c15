package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"

	"github.com/atinyakov/gophvault/internal/models"
)

// FileRepository keeps each store in <Dir>/<name>.json. Every write
// replaces the file atomically.
type FileRepository struct {
	// Dir is created on first write.
	Dir string
}

// NewFileRepository returns a repository rooted at dir.
func NewFileRepository(dir string) *FileRepository {
	return &FileRepository{Dir: dir}
}

func (r *FileRepository) path(name string) string {
	return filepath.Join(r.Dir, name+".json")
}

// Load reads every store file; missing files are treated as empty stores.
func (r *FileRepository) Load(ctx context.Context) (models.Snapshot, error) {
	docs := make(map[string][]byte, len(storeNames))
	for _, name := range storeNames {
		if err := ctx.Err(); err != nil {
			return models.Snapshot{}, err
		}
		data, err := os.ReadFile(r.path(name))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return models.Snapshot{}, fmt.Errorf("read %s: %w", name, err)
		}
		docs[name] = data
	}
	return decodeSnapshot(docs)
}

func (r *FileRepository) SaveVault(ctx context.Context, doc models.VaultState) error {
	return r.write(ctx, models.StoreVault, doc)
}

func (r *FileRepository) SaveNotes(ctx context.Context, doc models.NotesState) error {
	return r.write(ctx, models.StoreNotes, doc)
}

func (r *FileRepository) SaveSettings(ctx context.Context, s models.Settings) error {
	return r.write(ctx, models.StoreSettings, s)
}

// SaveAll writes the vault and then the notes file. If the notes write
// fails the previous vault file is put back.
func (r *FileRepository) SaveAll(ctx context.Context, vault models.VaultState, notes models.NotesState) error {
	previous, err := os.ReadFile(r.path(models.StoreVault))
	existed := err == nil
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("read %s: %w", models.StoreVault, err)
	}

	if err := r.write(ctx, models.StoreVault, vault); err != nil {
		return err
	}
	if err := r.write(ctx, models.StoreNotes, notes); err != nil {
		var rollbackErr error
		if existed {
			rollbackErr = atomic.WriteFile(r.path(models.StoreVault), bytes.NewReader(previous))
		} else {
			rollbackErr = os.Remove(r.path(models.StoreVault))
		}
		return errors.Join(err, rollbackErr)
	}
	return nil
}

func (r *FileRepository) write(ctx context.Context, name string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := encode(name, v)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(r.Dir, 0o700); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	if err := atomic.WriteFile(r.path(name), bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
