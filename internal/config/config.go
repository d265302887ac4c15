// Package config provides functionality for managing configuration options
// for the application using command-line flags, a JSON file and
// environment variables, in increasing order of precedence.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"time"
)

// Storage backends.
const (
	StorageFile     = "file"
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
)

// Duration is a time.Duration that reads "90s"-style strings from JSON.
type Duration time.Duration

// UnmarshalJSON accepts a duration string or a number of nanoseconds.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		var n int64
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("duration must be a string or integer: %w", err)
		}
		*d = Duration(n)
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Options holds the configuration values for the application.
type Options struct {
	// Address is the loopback address the API listens on (ip:port).
	Address string `json:"address"`

	// Storage selects the repository: file, postgres or sqlite.
	Storage string `json:"storage"`

	// DataDir holds the JSON documents of the file repository.
	DataDir string `json:"dataDir"`

	// DatabaseDSN holds the PostgreSQL connection string.
	DatabaseDSN string `json:"databaseDsn"`

	// SQLitePath is the database file of the sqlite repository.
	SQLitePath string `json:"sqlitePath"`

	// KDF names the key derivation scheme for new master passwords.
	KDF string `json:"kdf"`

	// LogLevel is a zap level name.
	LogLevel string `json:"logLevel"`

	// LockCheckInterval is how often idle timeouts are evaluated.
	LockCheckInterval Duration `json:"lockCheckInterval"`

	// Config is the path to the Config file.
	Config string `json:"-"`
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "gophvault")
	}
	return "data"
}

// Parse parses the command-line flags and environment variables to set
// configuration values. It exits the process on invalid configuration.
func Parse() *Options {
	opts, err := ParseArgs(os.Args[1:], os.Getenv)
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	return opts
}

// ParseArgs builds Options from args, the config file and getenv.
func ParseArgs(args []string, getenv func(string) string) (*Options, error) {
	options := &Options{}
	var lockCheck time.Duration

	fs := flag.NewFlagSet("gophvault", flag.ContinueOnError)
	fs.StringVar(&options.Address, "a", "localhost:8080", "run on ip:port server")
	fs.StringVar(&options.Storage, "s", StorageFile, "storage backend: file, postgres or sqlite")
	fs.StringVar(&options.DataDir, "data-dir", defaultDataDir(), "directory of the file storage")
	fs.StringVar(&options.DatabaseDSN, "d", "", "postgres connection string")
	fs.StringVar(&options.SQLitePath, "sqlite", "", "sqlite database file (default <data-dir>/vault.db)")
	fs.StringVar(&options.KDF, "kdf", "sha256", "key derivation for new master passwords: sha256 or argon2id")
	fs.StringVar(&options.LogLevel, "l", "info", "log level")
	fs.DurationVar(&lockCheck, "lock-check", time.Minute, "idle timeout check interval")
	fs.StringVar(&options.Config, "config", "config.json", "path to config file")
	fs.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	options.LockCheckInterval = Duration(lockCheck)

	if configPath := getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		data, err := os.ReadFile(options.Config)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config file: %w", err)
		default:
			if err := json.Unmarshal(data, options); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	env := []struct {
		key string
		dst *string
	}{
		{"SERVER_ADDRESS", &options.Address},
		{"STORAGE", &options.Storage},
		{"DATA_DIR", &options.DataDir},
		{"DATABASE_DSN", &options.DatabaseDSN},
		{"SQLITE_PATH", &options.SQLitePath},
		{"KDF", &options.KDF},
		{"LOG_LEVEL", &options.LogLevel},
	}
	for _, e := range env {
		if v := getenv(e.key); v != "" {
			*e.dst = v
		}
	}
	if v := getenv("LOCK_CHECK_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("LOCK_CHECK_INTERVAL: %w", err)
		}
		options.LockCheckInterval = Duration(d)
	}

	if options.SQLitePath == "" {
		options.SQLitePath = filepath.Join(options.DataDir, "vault.db")
	}
	return options, options.validate()
}

func (o *Options) validate() error {
	host, _, err := net.SplitHostPort(o.Address)
	if err != nil {
		return fmt.Errorf("address %q: %w", o.Address, err)
	}
	if ip := net.ParseIP(host); host != "localhost" && (ip == nil || !ip.IsLoopback()) {
		return fmt.Errorf("address %q must be a loopback address", o.Address)
	}
	switch o.Storage {
	case StorageFile, StorageSQLite:
	case StoragePostgres:
		if o.DatabaseDSN == "" {
			return errors.New("postgres storage requires a database DSN")
		}
	default:
		return fmt.Errorf("unknown storage %q", o.Storage)
	}
	if o.LockCheckInterval <= 0 {
		return errors.New("lock check interval must be positive")
	}
	return nil
}
