package http

import (
	"net/http"

	"github.com/atinyakov/gophvault/internal/generator"
)

// Generator modes.
const (
	ModePassword   = "password"
	ModePassphrase = "passphrase"
)

// GenerateRequest selects what to generate. Omitted options fall back
// to the generator defaults.
type GenerateRequest struct {
	Mode      string             `json:"mode"`
	Options   *generator.Options `json:"options,omitempty"`
	Words     int                `json:"words,omitempty"`
	Separator *string            `json:"separator,omitempty"`
}

// GenerateResponse is a generated secret with its rating.
type GenerateResponse struct {
	Password string             `json:"password"`
	Strength generator.Strength `json:"strength"`
}

// StrengthRequest asks for the rating of a password.
type StrengthRequest struct {
	Password string `json:"password"`
}

// GenerateHandler serves the password generator. It holds no state.
type GenerateHandler struct{}

// Generate returns a random password or a diceware passphrase.
func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if !decode(w, r, &req) {
		return
	}

	var (
		out string
		err error
	)
	switch req.Mode {
	case "", ModePassword:
		opts := generator.DefaultOptions()
		if req.Options != nil {
			opts = *req.Options
		}
		out, err = generator.Generate(opts)
	case ModePassphrase:
		words, sep := generator.DefaultWords, "-"
		if req.Words != 0 {
			words = req.Words
		}
		if req.Separator != nil {
			sep = *req.Separator
		}
		out, err = generator.Passphrase(words, sep)
	default:
		http.Error(w, "unknown mode", http.StatusBadRequest)
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, GenerateResponse{Password: out, Strength: generator.Rate(out)})
}

// Strength rates a password without storing it.
func (h *GenerateHandler) Strength(w http.ResponseWriter, r *http.Request) {
	var req StrengthRequest
	if !decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, generator.Rate(req.Password))
}
