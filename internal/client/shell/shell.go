// Package shell implements the interactive terminal client. It drives the
// vault keeper in-process.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/atinyakov/gophvault/internal/auth"
	verrors "github.com/atinyakov/gophvault/internal/errors"
	"github.com/atinyakov/gophvault/internal/generator"
	"github.com/atinyakov/gophvault/internal/lockpolicy"
	"github.com/atinyakov/gophvault/internal/service"
)

const helpText = `Available commands:
  setup             create the master password
  unlock            unlock the vault
  lock              lock the vault
  add               add a credential
  list              list credentials
  get <id>          show a credential
  edit <id>         edit a credential
  delete <id>       delete a credential
  note-add          add a secure note
  notes             list secure notes
  note <id>         show a secure note
  note-delete <id>  delete a secure note
  export <file>     write every note to a text file
  passwd            change the master password
  gen [length]      generate a password
  gen words [n]     generate a passphrase
  exit              leave the shell`

// PasswordReader reads a secret without echoing it.
type PasswordReader func(prompt string) (string, error)

// Shell is the REPL state: the keeper and the current session.
type Shell struct {
	keeper       *service.Keeper
	out          io.Writer
	readPassword PasswordReader

	ctx     context.Context
	scanner *bufio.Scanner
	session *auth.Session
}

// New returns a shell writing to out. A nil readPassword reads secrets
// as plain input lines.
func New(keeper *service.Keeper, out io.Writer, readPassword PasswordReader) *Shell {
	return &Shell{keeper: keeper, out: out, readPassword: readPassword}
}

// Run reads commands from in until exit, end of input or ctx is done.
func (s *Shell) Run(ctx context.Context, in io.Reader) error {
	s.ctx = ctx
	s.scanner = bufio.NewScanner(in)
	for {
		fmt.Fprint(s.out, "gophvault> ")
		if !s.scanner.Scan() {
			return s.scanner.Err()
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		args := strings.Fields(s.scanner.Text())
		if len(args) == 0 {
			continue
		}
		_ = s.keeper.Activity(lockpolicy.KeyDown)
		if args[0] == "exit" || args[0] == "quit" {
			fmt.Fprintln(s.out, "Bye")
			return nil
		}
		if err := s.dispatch(args); err != nil {
			s.report(err)
		}
	}
}

func (s *Shell) dispatch(args []string) error {
	switch args[0] {
	case "help":
		fmt.Fprintln(s.out, helpText)
		return nil
	case "setup":
		return s.setup()
	case "unlock":
		return s.unlock()
	case "lock":
		s.keeper.Lock()
		s.session = nil
		fmt.Fprintln(s.out, "Vault locked")
		return nil
	case "passwd":
		return s.passwd()
	case "gen":
		return s.gen(args[1:])
	}

	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintln(s.out, "Unknown command. Type 'help' for a list of commands.")
		return nil
	}
	if cmd.arg != "" && len(args) < 2 {
		fmt.Fprintf(s.out, "Usage: %s %s\n", args[0], cmd.arg)
		return nil
	}
	if !s.session.Alive() {
		return verrors.ErrLocked
	}
	var id string
	if len(args) > 1 {
		id = args[1]
	}
	return cmd.run(s, id)
}

// command is a vault command that needs an unlocked session. arg names
// its required argument, if any.
type command struct {
	arg string
	run func(s *Shell, arg string) error
}

var commands = map[string]command{
	"add":         {run: func(s *Shell, _ string) error { return s.add() }},
	"list":        {run: func(s *Shell, _ string) error { return s.list() }},
	"get":         {arg: "<id>", run: (*Shell).get},
	"edit":        {arg: "<id>", run: (*Shell).edit},
	"delete":      {arg: "<id>", run: (*Shell).deleteCredential},
	"note-add":    {run: func(s *Shell, _ string) error { return s.addNote() }},
	"notes":       {run: func(s *Shell, _ string) error { return s.notes() }},
	"note":        {arg: "<id>", run: (*Shell).note},
	"note-delete": {arg: "<id>", run: (*Shell).deleteNote},
	"export":      {arg: "<file>", run: (*Shell).export},
}

// report prints err in terms the user can act on.
func (s *Shell) report(err error) {
	var invalid *verrors.InvalidInputError
	switch {
	case errors.Is(err, verrors.ErrLocked):
		if !s.session.Alive() {
			s.session = nil
		}
		msg := "Vault is locked. Run 'unlock' first."
		if reason := s.lockReason(); reason != "" {
			msg = reason + " Run 'unlock'."
		}
		warnText.Fprintln(s.out, msg)
	case errors.Is(err, verrors.ErrNoPasswordSet):
		warnText.Fprintln(s.out, "No master password set. Run 'setup' first.")
	case errors.Is(err, verrors.ErrAuthenticationFailed):
		errorText.Fprintln(s.out, "Invalid master password")
	case errors.As(err, &invalid):
		errorText.Fprintf(s.out, "Invalid %s: %s\n", invalid.Field, invalid.Reason)
	default:
		errorText.Fprintf(s.out, "Error: %v\n", err)
	}
}

// lockReason returns the reason of the vault lock, or of the first
// locked area while the vault itself is unlocked.
func (s *Shell) lockReason() string {
	st := s.keeper.State()
	if st.Reason != "" {
		return st.Reason
	}
	for _, area := range []string{lockpolicy.AreaCredentials, lockpolicy.AreaNotes} {
		if a := st.Areas[area]; a.Reason != "" {
			return a.Reason
		}
	}
	return ""
}

func (s *Shell) setup() error {
	if s.keeper.State().HasPasswordSet {
		fmt.Fprintln(s.out, "Master password already set. Use 'passwd' to change it.")
		return nil
	}
	pw, err := s.newPassword("New master password: ")
	if err != nil || pw == "" {
		return err
	}
	sess, err := s.keeper.CreateMasterPassword(s.ctx, pw)
	if err != nil {
		return err
	}
	s.session = sess
	successText.Fprintln(s.out, "Vault created and unlocked")
	return nil
}

func (s *Shell) unlock() error {
	pw, err := s.password("Master password: ")
	if err != nil {
		return err
	}
	sess, err := s.keeper.Verify(pw)
	if err != nil {
		return err
	}
	s.keeper.Logout(s.session)
	s.session = sess
	successText.Fprintln(s.out, "Vault unlocked")
	return nil
}

func (s *Shell) passwd() error {
	old, err := s.password("Current master password: ")
	if err != nil {
		return err
	}
	pw, err := s.newPassword("New master password: ")
	if err != nil || pw == "" {
		return err
	}
	stop := s.progress("Re-encrypting vault")
	sess, err := s.keeper.ChangeMasterPassword(s.ctx, old, pw)
	stop()
	if err != nil {
		return err
	}
	s.session = sess
	successText.Fprintln(s.out, "Master password changed")
	return nil
}

// newPassword asks twice. An empty result means the entries differed.
func (s *Shell) newPassword(prompt string) (string, error) {
	pw, err := s.password(prompt)
	if err != nil {
		return "", err
	}
	confirm, err := s.password("Confirm password: ")
	if err != nil {
		return "", err
	}
	if pw != confirm {
		errorText.Fprintln(s.out, "Passwords do not match")
		return "", nil
	}
	return pw, nil
}

func (s *Shell) gen(args []string) error {
	if len(args) > 0 && args[0] == "words" {
		n := generator.DefaultWords
		if len(args) > 1 {
			v, err := strconv.Atoi(args[1])
			if err != nil {
				return verrors.InvalidInput("words", "must be a number")
			}
			n = v
		}
		phrase, err := generator.Passphrase(n, "-")
		if err != nil {
			return err
		}
		s.printGenerated(phrase)
		return nil
	}

	opts := generator.DefaultOptions()
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return verrors.InvalidInput("length", "must be a number")
		}
		opts.Length = v
	}
	pw, err := generator.Generate(opts)
	if err != nil {
		return err
	}
	s.printGenerated(pw)
	return nil
}

func (s *Shell) printGenerated(pw string) {
	st := generator.Rate(pw)
	label := st.Label
	if c, ok := strengthText[st.Color]; ok {
		label = c.Sprint(st.Label)
	}
	fmt.Fprintf(s.out, "%s\nStrength: %s (%d%%)\n", pw, label, st.Percentage)
}

func (s *Shell) export(path string) error {
	out, err := s.keeper.ExportNotes(s.session)
	if err != nil {
		return err
	}
	if err := atomic.WriteFile(path, strings.NewReader(out)); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	fmt.Fprintf(s.out, "Notes exported to %s\n", path)
	return nil
}
