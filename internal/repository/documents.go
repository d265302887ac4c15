// Package repository persists the vault documents. Each implementation
// stores one JSON document per logical store: vault, notes and settings.
package repository

import (
	"encoding/json"
	"fmt"

	"github.com/atinyakov/gophvault/internal/models"
)

// storeNames lists the documents a Load reads.
var storeNames = []string{models.StoreVault, models.StoreNotes, models.StoreSettings}

func encode(name string, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", name, err)
	}
	return data, nil
}

// decodeSnapshot builds a snapshot from raw documents keyed by store
// name. Missing documents stay zero.
func decodeSnapshot(docs map[string][]byte) (models.Snapshot, error) {
	var snap models.Snapshot
	targets := map[string]any{
		models.StoreVault:    &snap.Vault,
		models.StoreNotes:    &snap.Notes,
		models.StoreSettings: &snap.Settings,
	}
	for name, data := range docs {
		target, ok := targets[name]
		if !ok || len(data) == 0 {
			continue
		}
		if err := json.Unmarshal(data, target); err != nil {
			return models.Snapshot{}, fmt.Errorf("decode %s: %w", name, err)
		}
	}
	return snap, nil
}
