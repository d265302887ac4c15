package repository

import (
	"time"

	"github.com/atinyakov/gophvault/internal/models"
)

func sampleDocs() (models.VaultState, models.NotesState, models.Settings) {
	rec := models.MasterPasswordRecord{Hash: "abc123", Salt: "00ff", Scheme: "sha256"}
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	vault := models.VaultState{
		Items: []models.CredentialRecord{{
			ID:           "0190a0b2-0000-7000-8000-000000000001",
			Title:        "Gmail",
			Username:     "dXNlcg==",
			UsernameSalt: "aa",
			Password:     "cGFzcw==",
			PasswordSalt: "bb",
			CreatedAt:    created,
		}},
		MasterPasswordHash: rec,
		IsLocked:           true,
		HasPasswordSet:     true,
	}
	notes := models.NotesState{
		Items: []models.SecureNoteRecord{{
			ID:          "0190a0b2-0000-7000-8000-000000000002",
			Title:       "diary",
			Content:     "Y29udGVudA==",
			ContentSalt: "cc",
			CreatedAt:   created,
			UpdatedAt:   created.Add(time.Hour),
		}},
		MasterPasswordHash: rec,
		IsLocked:           true,
		HasPasswordSet:     true,
	}
	return vault, notes, models.ResetSettings()
}
