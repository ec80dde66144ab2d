// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads application settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected in production.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"FOLIO_DB_PATH" envDefault:"./data/folio.db"`
	SessionSecret string `env:"FOLIO_SESSION_SECRET,required"`
	ServerHost    string `env:"FOLIO_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"FOLIO_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"FOLIO_ENV" envDefault:"development"`
	LogLevel      string `env:"FOLIO_LOG_LEVEL" envDefault:"info"`
	ExportsDir    string `env:"FOLIO_EXPORTS_DIR" envDefault:"./data/exports"`

	// Browser origins allowed to call the API with credentials.
	FrontendOrigins []string `env:"FOLIO_FRONTEND_ORIGIN" envSeparator:","`

	// Notifications
	NotifyEmail  string `env:"FOLIO_NOTIFY_EMAIL"` // operator address for new submissions
	SMTPHost     string `env:"FOLIO_SMTP_HOST"`
	SMTPPort     int    `env:"FOLIO_SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"FOLIO_SMTP_USERNAME"`
	SMTPPassword string `env:"FOLIO_SMTP_PASSWORD"`
	SMTPFrom     string `env:"FOLIO_SMTP_FROM"`
	SMTPFromName string `env:"FOLIO_SMTP_FROM_NAME" envDefault:"Folio"`

	// Public form throttling, per client IP.
	FormRateLimit float64 `env:"FOLIO_FORM_RATE_LIMIT" envDefault:"0.2"`
	FormBurst     int     `env:"FOLIO_FORM_BURST" envDefault:"5"`

	// Housekeeping
	HousekeepingSchedule string        `env:"FOLIO_HOUSEKEEPING_SCHEDULE" envDefault:"@hourly"`
	EventRetention       time.Duration `env:"FOLIO_EVENT_RETENTION" envDefault:"2160h"`
	ExportRetention      time.Duration `env:"FOLIO_EXPORT_RETENTION" envDefault:"24h"`

	// Seeding. The first admin is created on an empty database; DoSeed
	// also adds demo content.
	DoSeed        bool   `env:"FOLIO_DO_SEED" envDefault:"false"`
	AdminEmail    string `env:"FOLIO_ADMIN_EMAIL"`
	AdminPassword string `env:"FOLIO_ADMIN_PASSWORD"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// SMTPEnabled returns true if outbound mail is configured.
func (c Config) SMTPEnabled() bool {
	return c.SMTPHost != ""
}

// FrontendHosts returns the host[:port] of each frontend origin, as the
// cross-origin protection layer expects them.
func (c Config) FrontendHosts() []string {
	hosts := make([]string, 0, len(c.FrontendOrigins))
	for _, origin := range c.FrontendOrigins {
		if u, err := url.Parse(origin); err == nil && u.Host != "" {
			hosts = append(hosts, u.Host)
		}
	}
	return hosts
}

// MinSessionSecretLength is the minimum required length for the session secret.
// AES-256 requires 32 bytes minimum for secure encryption.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("FOLIO_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	for _, weak := range knownWeakSecrets {
		if cfg.SessionSecret == weak {
			return nil, errors.New("FOLIO_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("FOLIO_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	for i, origin := range cfg.FrontendOrigins {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		u, err := url.Parse(origin)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, fmt.Errorf("FOLIO_FRONTEND_ORIGIN contains an invalid origin %q", origin)
		}
		cfg.FrontendOrigins[i] = origin
	}

	if cfg.SMTPEnabled() && cfg.SMTPFrom == "" {
		return nil, errors.New("FOLIO_SMTP_FROM is required when FOLIO_SMTP_HOST is set")
	}

	if cfg.AdminPassword != "" && len(cfg.AdminPassword) < 8 {
		return nil, errors.New("FOLIO_ADMIN_PASSWORD must be at least 8 characters")
	}

	return cfg, nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
