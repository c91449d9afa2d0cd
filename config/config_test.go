package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_FileWithDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
cin7:
  account_id: acct-1
  application_key: key-1
auth:
  mode: token
  bearer_token: s3cret
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Cin7.AccountID != "acct-1" {
		t.Errorf("account id: got %q", cfg.Cin7.AccountID)
	}
	if cfg.Auth.Mode != "token" || cfg.Auth.BearerToken != "s3cret" {
		t.Errorf("auth: got %+v", cfg.Auth)
	}
	if cfg.Server.Transport != "stdio" {
		t.Errorf("transport default: got %q", cfg.Server.Transport)
	}
	if cfg.Snapshot.TTL != 15*time.Minute {
		t.Errorf("snapshot ttl default: got %v", cfg.Snapshot.TTL)
	}
	if cfg.Snapshot.MaxItems != 250_000 {
		t.Errorf("snapshot max items default: got %d", cfg.Snapshot.MaxItems)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
cin7:
  account_id: from-file
  application_key: key-file
snapshot:
  ttl: 1m
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("CIN7_ACCOUNT_ID", "from-env")
	t.Setenv("SNAPSHOT_TTL", "30m")
	t.Setenv("ALLOWED_EMAILS", "a@example.com, b@example.com")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Cin7.AccountID != "from-env" {
		t.Errorf("account id: got %q", cfg.Cin7.AccountID)
	}
	if cfg.Snapshot.TTL != 30*time.Minute {
		t.Errorf("snapshot ttl: got %v", cfg.Snapshot.TTL)
	}
	if len(cfg.Auth.AllowedEmails) != 2 || cfg.Auth.AllowedEmails[1] != "b@example.com" {
		t.Errorf("allowed emails: got %v", cfg.Auth.AllowedEmails)
	}
}

func TestLoad_EnvOnly(t *testing.T) {
	// WHAT: no file at all is fine when the credentials come from env.
	t.Setenv("CIN7_ACCOUNT_ID", "acct-env")
	t.Setenv("CIN7_API_KEY", "key-env") // the legacy alias works too

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Cin7.ApplicationKey != "key-env" {
		t.Errorf("application key: got %q", cfg.Cin7.ApplicationKey)
	}
}

func TestLoad_MissingCredentials(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatal("expected an error without credentials")
	}
}

func TestLoad_MissingFileIgnored(t *testing.T) {
	t.Setenv("CIN7_ACCOUNT_ID", "acct")
	t.Setenv("CIN7_APPLICATION_KEY", "key")
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err != nil {
		t.Fatalf("missing file should be skipped: %v", err)
	}
}
