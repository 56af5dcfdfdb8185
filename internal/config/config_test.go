package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const validConfig = `app:
  name: "Pitchbook"
  environment: "development"
  port: 8080
  base_url: "http://localhost:8080"

database:
  driver: "sqlite"
  filename: "data/pitchbook.db"

auth:
  pool_id: "eu-west-1_abc123"
  client_id: "clientid"
`

func TestLoadValidConfig(t *testing.T) {
	path := writeConfig(t, validConfig)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.App.Name != "Pitchbook" {
		t.Fatalf("expected app name Pitchbook, got %q", cfg.App.Name)
	}
	if cfg.Auth.ProviderTimeout != DefaultProviderTimeout {
		t.Fatalf("expected default provider timeout, got %v", cfg.Auth.ProviderTimeout)
	}
	if cfg.Auth.CachedSessionTTL != DefaultCachedSessionTTL {
		t.Fatalf("expected default cached session ttl, got %v", cfg.Auth.CachedSessionTTL)
	}
	if cfg.Jobs.BookingReminders == "" {
		t.Fatal("expected default reminder cron expression")
	}
}

func TestLoadParsesDurations(t *testing.T) {
	path := writeConfig(t, `app:
  name: "Pitchbook"
  environment: "development"
  port: 8080

database:
  driver: "sqlite"
  filename: "data/pitchbook.db"

auth:
  pool_id: "eu-west-1_abc123"
  client_id: "clientid"
  provider_timeout: 5s
  cached_session_ttl: 12h
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Auth.ProviderTimeout != 5*time.Second {
		t.Fatalf("expected 5s provider timeout, got %v", cfg.Auth.ProviderTimeout)
	}
	if cfg.Auth.CachedSessionTTL != 12*time.Hour {
		t.Fatalf("expected 12h cached session ttl, got %v", cfg.Auth.CachedSessionTTL)
	}
}

func TestLoadRejectsBadCronExpression(t *testing.T) {
	path := writeConfig(t, validConfig+`
jobs:
  booking_reminders: "every ten minutes"
`)

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid cron expression")
	}
}

func TestValidateRejectsLocalLoginOutsideDevelopment(t *testing.T) {
	var cfg Config
	cfg.App.Name = "Pitchbook"
	cfg.App.Environment = "production"
	cfg.App.Port = 8080
	cfg.Database.Driver = "sqlite"
	cfg.Database.Filename = "data/pitchbook.db"
	cfg.Auth.LocalLogin = true
	cfg.applyDefaults()

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for local login in production")
	}
}

func TestValidateRejectsUnsupportedDriver(t *testing.T) {
	var cfg Config
	cfg.App.Name = "Pitchbook"
	cfg.App.Port = 8080
	cfg.Database.Driver = "postgres"
	cfg.applyDefaults()

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	var cfg Config
	cfg.Auth.ProviderTimeout = 5 * time.Second
	cfg.Auth.CachedSessionTTL = time.Hour
	cfg.applyDefaults()

	if cfg.Auth.ProviderTimeout != 5*time.Second {
		t.Fatalf("expected explicit provider timeout kept, got %v", cfg.Auth.ProviderTimeout)
	}
	if cfg.Auth.CachedSessionTTL != time.Hour {
		t.Fatalf("expected explicit cached session ttl kept, got %v", cfg.Auth.CachedSessionTTL)
	}
}
