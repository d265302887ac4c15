package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestParseArgs_Defaults(t *testing.T) {
	opts, err := ParseArgs([]string{"-c", filepath.Join(t.TempDir(), "none.json"), "-data-dir", "/tmp/v"}, env(nil))
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if opts.Address != "localhost:8080" {
		t.Errorf("Address = %q", opts.Address)
	}
	if opts.Storage != StorageFile || opts.KDF != "sha256" || opts.LogLevel != "info" {
		t.Errorf("defaults = %+v", opts)
	}
	if time.Duration(opts.LockCheckInterval) != time.Minute {
		t.Errorf("LockCheckInterval = %v", time.Duration(opts.LockCheckInterval))
	}
	if opts.SQLitePath != filepath.Join("/tmp/v", "vault.db") {
		t.Errorf("SQLitePath = %q", opts.SQLitePath)
	}
}

func TestParseArgs_Precedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"address":"127.0.0.1:9000","storage":"sqlite","kdf":"argon2id","lockCheckInterval":"30s"}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	opts, err := ParseArgs([]string{"-a", "127.0.0.1:1", "-c", path}, env(map[string]string{
		"SERVER_ADDRESS": "127.0.0.1:7000",
		"LOG_LEVEL":      "debug",
	}))
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if opts.Address != "127.0.0.1:7000" {
		t.Errorf("Address = %q; env must win", opts.Address)
	}
	if opts.Storage != StorageSQLite || opts.KDF != "argon2id" {
		t.Errorf("file values not applied: %+v", opts)
	}
	if time.Duration(opts.LockCheckInterval) != 30*time.Second {
		t.Errorf("LockCheckInterval = %v", time.Duration(opts.LockCheckInterval))
	}
	if opts.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", opts.LogLevel)
	}
}

func TestParseArgs_ConfigFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alt.json")
	if err := os.WriteFile(path, []byte(`{"storage":"postgres","databaseDsn":"postgres://x"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	opts, err := ParseArgs(nil, env(map[string]string{"CONFIG": path}))
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if opts.Storage != StoragePostgres || opts.DatabaseDSN != "postgres://x" {
		t.Errorf("opts = %+v", opts)
	}
}

func TestParseArgs_Invalid(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "none.json")
	tests := []struct {
		name    string
		args    []string
		env     map[string]string
		wantErr string
	}{
		{"unknown storage", []string{"-s", "redis", "-c", missing}, nil, "unknown storage"},
		{"postgres without dsn", []string{"-s", "postgres", "-c", missing}, nil, "requires a database DSN"},
		{"bad interval", []string{"-c", missing}, map[string]string{"LOCK_CHECK_INTERVAL": "soon"}, "LOCK_CHECK_INTERVAL"},
		{"public address", []string{"-a", "0.0.0.0:8080", "-c", missing}, nil, "loopback"},
		{"no port", []string{"-a", "localhost", "-c", missing}, nil, "address"},
		{"zero interval", []string{"-lock-check", "0s", "-c", missing}, nil, "must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseArgs(tt.args, env(tt.env))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v; want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestParseArgs_BadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := ParseArgs([]string{"-c", path}, env(nil)); err == nil || !strings.Contains(err.Error(), "parse config file") {
		t.Errorf("error = %v", err)
	}
}
