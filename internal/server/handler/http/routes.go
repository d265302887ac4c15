package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/atinyakov/gophvault/internal/middleware"
)

// Master password attempts refill one every PasswordAttemptInterval up
// to PasswordAttemptBurst.
const (
	PasswordAttemptInterval = 6 * time.Second
	PasswordAttemptBurst    = 10
)

// Handlers groups the handlers mounted by NewRouter.
type Handlers struct {
	Auth     *AuthHandler
	Vault    *VaultHandler
	Settings *SettingsHandler
	Generate *GenerateHandler
}

// NewRouter constructs and returns an HTTP handler that serves the vault
// API under /api.
//
// Middleware chain (applied in order):
//  1. Recoverer                          - turns panics into 500
//  2. AllowContentType("application/json") - rejects non-JSON bodies
//  3. WithRequestLogging(logger)         - logs every request
//  4. Throttle                            - master password endpoints only
//  5. SessionAuth(sessions)              - protected group only
func NewRouter(h Handlers, sessions *middleware.Sessions, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	// Only allow requests with Content-Type: application/json
	r.Use(chiMiddleware.AllowContentType("application/json"))
	r.Use(middleware.WithRequestLogging(logger))

	r.Route("/api", func(r chi.Router) {
		// Master password endpoints share one attempt budget.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Throttle(rate.Every(PasswordAttemptInterval), PasswordAttemptBurst))
			r.Post("/master", h.Auth.Create)
			r.Post("/master/change", h.Auth.Change)
			r.Post("/unlock", h.Auth.Unlock)
		})

		// Public endpoints
		r.Post("/lock", h.Auth.Lock)
		r.Get("/state", h.Auth.State)

		r.Get("/settings", h.Settings.Get)
		r.Post("/activity", h.Settings.Activity)
		r.Post("/visibility", h.Settings.Visibility)
		r.Post("/areas/{area}/open", h.Settings.OpenArea)

		r.Post("/generate", h.Generate.Generate)
		r.Post("/strength", h.Generate.Strength)

		// Protected group: requires a live session token
		r.Group(func(r chi.Router) {
			r.Use(middleware.SessionAuth(sessions))

			r.Post("/logout", h.Auth.Logout)
			r.Post("/reset", h.Auth.Reset)
			r.Put("/settings", h.Settings.Update)
			r.Post("/settings/reset", h.Settings.Reset)

			r.Route("/credentials", func(r chi.Router) {
				r.Get("/", h.Vault.ListCredentials)
				r.Post("/", h.Vault.AddCredential)
				r.Delete("/", h.Vault.ClearCredentials)
				r.Get("/{id}", h.Vault.GetCredential)
				r.Patch("/{id}", h.Vault.UpdateCredential)
				r.Delete("/{id}", h.Vault.DeleteCredential)
				r.Get("/{id}/fields/{field}", h.Vault.RevealCredentialField)
			})

			r.Route("/notes", func(r chi.Router) {
				r.Get("/", h.Vault.ListNotes)
				r.Post("/", h.Vault.AddNote)
				r.Delete("/", h.Vault.ClearNotes)
				r.Get("/export", h.Vault.ExportNotes)
				r.Get("/{id}", h.Vault.GetNote)
				r.Patch("/{id}", h.Vault.UpdateNote)
				r.Delete("/{id}", h.Vault.DeleteNote)
				r.Get("/{id}/content", h.Vault.RevealNote)
				r.Get("/{id}/html", h.Vault.PreviewNote)
			})
		})
	})

	return r
}
