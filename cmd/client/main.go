// Package main runs the interactive gophvault shell against the configured
// storage.
package main

import (
	"cmp"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/atinyakov/gophvault/internal/client/shell"
	"github.com/atinyakov/gophvault/internal/config"
	"github.com/atinyakov/gophvault/internal/crypto"
	"github.com/atinyakov/gophvault/internal/logger"
	"github.com/atinyakov/gophvault/internal/repository"
	"github.com/atinyakov/gophvault/internal/service"
)

var (
	version   string
	buildDate string
)

// readPassword reads from the terminal without echo.
func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// main wires storage and the keeper, then hands stdin to the shell.
func main() {
	options := config.Parse()

	fmt.Printf("gophvault client %s (%s)\n", cmp.Or(version, "N/A"), cmp.Or(buildDate, "N/A"))

	l := logger.New()
	defer func() { _ = l.Log.Sync() }()
	if err := l.Init(options.LogLevel); err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheme, err := crypto.SchemeByName(options.KDF)
	if err != nil {
		log.Fatal(err)
	}
	repo, closeRepo, err := repository.Open(options)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = closeRepo() }()

	keeper, err := service.NewKeeper(ctx, repo, scheme, l.Log)
	if err != nil {
		log.Fatal(err)
	}
	keeper.Start(ctx, time.Duration(options.LockCheckInterval))
	defer keeper.Lock()

	var pr shell.PasswordReader
	if term.IsTerminal(int(os.Stdin.Fd())) {
		pr = readPassword
	}
	if err := shell.New(keeper, os.Stdout, pr).Run(ctx, os.Stdin); err != nil && ctx.Err() == nil {
		log.Print(err)
	}
}
