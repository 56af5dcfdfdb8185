// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Filename string `yaml:"filename"`
}

type AuthConfig struct {
	// Cognito user pool settings. PoolID format is "region_poolid".
	PoolID   string `yaml:"pool_id"`
	ClientID string `yaml:"client_id"`

	// Clerk is an optional secondary SSO path.
	ClerkSecretKey string `yaml:"-"` // Loaded from environment

	// LocalLogin enables the bcrypt-backed login table. Development only.
	LocalLogin bool `yaml:"local_login"`

	// ProviderTimeout bounds every identity-provider and profile-store call
	// made during session resolution.
	ProviderTimeout time.Duration `yaml:"provider_timeout"`

	// CachedSessionTTL bounds how long a cached session cookie is honored.
	CachedSessionTTL time.Duration `yaml:"cached_session_ttl"`
}

// UnmarshalYAML accepts durations in Go syntax ("3s", "24h").
func (a *AuthConfig) UnmarshalYAML(value *yaml.Node) error {
	type rawAuth struct {
		PoolID           string `yaml:"pool_id"`
		ClientID         string `yaml:"client_id"`
		LocalLogin       bool   `yaml:"local_login"`
		ProviderTimeout  string `yaml:"provider_timeout"`
		CachedSessionTTL string `yaml:"cached_session_ttl"`
	}
	var raw rawAuth
	if err := value.Decode(&raw); err != nil {
		return err
	}

	a.PoolID = raw.PoolID
	a.ClientID = raw.ClientID
	a.LocalLogin = raw.LocalLogin

	if raw.ProviderTimeout != "" {
		d, err := time.ParseDuration(raw.ProviderTimeout)
		if err != nil {
			return fmt.Errorf("invalid provider_timeout: %w", err)
		}
		a.ProviderTimeout = d
	}
	if raw.CachedSessionTTL != "" {
		d, err := time.ParseDuration(raw.CachedSessionTTL)
		if err != nil {
			return fmt.Errorf("invalid cached_session_ttl: %w", err)
		}
		a.CachedSessionTTL = d
	}
	return nil
}

type EmailConfig struct {
	Region          string `yaml:"region"`
	Sender          string `yaml:"sender"`
	AccessKeyID     string `yaml:"-"` // Loaded from environment
	SecretAccessKey string `yaml:"-"` // Loaded from environment
}

type JobsConfig struct {
	// Cron expressions, validated at load time.
	BookingReminders string `yaml:"booking_reminders"`
	Housekeeping     string `yaml:"housekeeping"`
}

type Config struct {
	App struct {
		Name        string `yaml:"name"`
		Environment string `yaml:"environment"`
		Port        int    `yaml:"port"`
		BaseURL     string `yaml:"base_url"`
		SecretKey   string `yaml:"-"` // Loaded from environment
	} `yaml:"app"`

	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Email    EmailConfig    `yaml:"email"`
	Jobs     JobsConfig     `yaml:"jobs"`
}

const (
	DefaultProviderTimeout  = 3 * time.Second
	DefaultCachedSessionTTL = 24 * time.Hour
)

// Load loads both .env and yaml configuration
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	// Load sensitive values from environment
	cfg.App.SecretKey = os.Getenv("APP_SECRET_KEY")
	cfg.Auth.ClerkSecretKey = os.Getenv("CLERK_SECRET_KEY")
	cfg.Email.AccessKeyID = os.Getenv("SES_ACCESS_KEY_ID")
	cfg.Email.SecretAccessKey = os.Getenv("SES_SECRET_ACCESS_KEY")

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Auth.ProviderTimeout <= 0 {
		c.Auth.ProviderTimeout = DefaultProviderTimeout
	}
	if c.Auth.CachedSessionTTL <= 0 {
		c.Auth.CachedSessionTTL = DefaultCachedSessionTTL
	}
	if c.Jobs.BookingReminders == "" {
		c.Jobs.BookingReminders = "*/10 * * * *"
	}
	if c.Jobs.Housekeeping == "" {
		c.Jobs.Housekeeping = "0 3 * * *"
	}
}

func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}
	if c.App.Port == 0 {
		return fmt.Errorf("app port is required")
	}
	if c.Database.Driver == "" {
		return fmt.Errorf("database driver is required")
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Filename == "" {
			return fmt.Errorf("database filename is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	// Local login is a development convenience and must never reach production.
	if c.Auth.LocalLogin && c.App.Environment != "development" {
		return fmt.Errorf("local login is only allowed in the development environment")
	}

	for name, expr := range map[string]string{
		"jobs.booking_reminders": c.Jobs.BookingReminders,
		"jobs.housekeeping":      c.Jobs.Housekeeping,
	} {
		if _, err := cron.ParseStandard(expr); err != nil {
			return fmt.Errorf("invalid cron expression for %s: %w", name, err)
		}
	}

	return nil
}

// IsDevelopment reports whether the app runs with development affordances.
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}
