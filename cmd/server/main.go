// Package main initializes and starts the gophvault API server, setting up
// configuration, logging, storage, the vault keeper, handlers and the
// lock policy loop.
package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/gophvault/internal/config"
	"github.com/atinyakov/gophvault/internal/crypto"
	"github.com/atinyakov/gophvault/internal/logger"
	"github.com/atinyakov/gophvault/internal/middleware"
	"github.com/atinyakov/gophvault/internal/repository"
	"github.com/atinyakov/gophvault/internal/server/handler/http"
	"github.com/atinyakov/gophvault/internal/service"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line, config file and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheme, err := crypto.SchemeByName(options.KDF)
	if err != nil {
		zapLogger.Fatal("unknown key derivation scheme", zap.Error(err))
	}

	// Open the configured storage.
	repo, closeRepo, err := repository.Open(options)
	if err != nil {
		zapLogger.Fatal("cannot open storage", zap.String("storage", options.Storage), zap.Error(err))
	}
	defer func() { _ = closeRepo() }()

	keeper, err := service.NewKeeper(ctx, repo, scheme, zapLogger)
	if err != nil {
		zapLogger.Fatal("cannot load vault", zap.Error(err))
	}
	keeper.Start(ctx, time.Duration(options.LockCheckInterval))

	// Build the router with middleware and routes.
	sessions := middleware.NewSessions()
	router := http.NewRouter(http.Handlers{
		Auth:     &http.AuthHandler{AuthService: keeper, Sessions: sessions},
		Vault:    &http.VaultHandler{Credentials: keeper, Notes: keeper},
		Settings: &http.SettingsHandler{SettingsService: keeper},
		Generate: &http.GenerateHandler{},
	}, sessions, zapLogger)

	server := &nethttp.Server{
		Addr:              options.Address,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		keeper.Lock()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("shutdown failed", zap.Error(err))
		}
	}()

	zapLogger.Info("starting HTTP server",
		zap.String("addr", options.Address),
		zap.String("storage", options.Storage),
		zap.String("kdf", scheme.Name()),
	)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		zapLogger.Fatal("failed to start HTTP server", zap.Error(err))
	}
	zapLogger.Info("server stopped")
}
