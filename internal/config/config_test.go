// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"os"
	"reflect"
	"testing"
	"time"
)

const testSecret = "test-secret-key-32-bytes-long!!!"

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set %s: %v", key, err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()
	setEnv(t, "FOLIO_SESSION_SECRET", testSecret)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.DBPath != "./data/folio.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "./data/folio.db")
	}
	if cfg.ServerHost != "localhost" {
		t.Errorf("ServerHost = %q, want %q", cfg.ServerHost, "localhost")
	}
	if cfg.ServerPort != 8080 {
		t.Errorf("ServerPort = %d, want %d", cfg.ServerPort, 8080)
	}
	if cfg.Env != "development" {
		t.Errorf("Env = %q, want %q", cfg.Env, "development")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if cfg.ExportsDir != "./data/exports" {
		t.Errorf("ExportsDir = %q, want %q", cfg.ExportsDir, "./data/exports")
	}
	if cfg.SMTPPort != 587 {
		t.Errorf("SMTPPort = %d, want 587", cfg.SMTPPort)
	}
	if cfg.SMTPEnabled() {
		t.Error("SMTPEnabled() = true, want false")
	}
	if cfg.EventRetention != 90*24*time.Hour {
		t.Errorf("EventRetention = %v, want 2160h", cfg.EventRetention)
	}
	if cfg.ExportRetention != 24*time.Hour {
		t.Errorf("ExportRetention = %v, want 24h", cfg.ExportRetention)
	}
	if cfg.HousekeepingSchedule != "@hourly" {
		t.Errorf("HousekeepingSchedule = %q, want @hourly", cfg.HousekeepingSchedule)
	}
	if len(cfg.FrontendOrigins) != 0 {
		t.Errorf("FrontendOrigins = %v, want empty", cfg.FrontendOrigins)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	os.Clearenv()
	customSecret := "custom-secret-key-32-bytes-long!"
	setEnv(t, "FOLIO_SESSION_SECRET", customSecret)
	setEnv(t, "FOLIO_DB_PATH", "/custom/path.db")
	setEnv(t, "FOLIO_SERVER_HOST", "0.0.0.0")
	setEnv(t, "FOLIO_SERVER_PORT", "3000")
	setEnv(t, "FOLIO_ENV", "production")
	setEnv(t, "FOLIO_LOG_LEVEL", "debug")
	setEnv(t, "FOLIO_FRONTEND_ORIGIN", "https://studio.example.com/, http://localhost:5173")
	setEnv(t, "FOLIO_SMTP_HOST", "smtp.example.com")
	setEnv(t, "FOLIO_SMTP_FROM", "site@example.com")
	setEnv(t, "FOLIO_EXPORT_RETENTION", "2h")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.SessionSecret != customSecret {
		t.Errorf("SessionSecret = %q, want %q", cfg.SessionSecret, customSecret)
	}
	if cfg.DBPath != "/custom/path.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "/custom/path.db")
	}
	if cfg.ServerAddr() != "0.0.0.0:3000" {
		t.Errorf("ServerAddr() = %q, want %q", cfg.ServerAddr(), "0.0.0.0:3000")
	}
	if cfg.IsDevelopment() {
		t.Error("IsDevelopment() = true, want false")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
	wantOrigins := []string{"https://studio.example.com", "http://localhost:5173"}
	if !reflect.DeepEqual(cfg.FrontendOrigins, wantOrigins) {
		t.Errorf("FrontendOrigins = %v, want %v", cfg.FrontendOrigins, wantOrigins)
	}
	wantHosts := []string{"studio.example.com", "localhost:5173"}
	if got := cfg.FrontendHosts(); !reflect.DeepEqual(got, wantHosts) {
		t.Errorf("FrontendHosts() = %v, want %v", got, wantHosts)
	}
	if !cfg.SMTPEnabled() {
		t.Error("SMTPEnabled() = false, want true")
	}
	if cfg.ExportRetention != 2*time.Hour {
		t.Errorf("ExportRetention = %v, want 2h", cfg.ExportRetention)
	}
}

func TestLoad_RequiredSessionSecret(t *testing.T) {
	os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() should fail when FOLIO_SESSION_SECRET is not set")
	}
}

func TestLoad_SessionSecretTooShort(t *testing.T) {
	tests := []struct {
		name   string
		secret string
	}{
		{"empty", ""},
		{"short", "short"},
		{"31_bytes", "1234567890123456789012345678901"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			setEnv(t, "FOLIO_SESSION_SECRET", tt.secret)

			if _, err := Load(); err == nil {
				t.Fatalf("Load() should fail with %d-byte secret", len(tt.secret))
			}
		})
	}
}

func TestLoad_SessionSecretMinimumLength(t *testing.T) {
	os.Clearenv()
	secret32 := "12345678901234567890123456789012"
	setEnv(t, "FOLIO_SESSION_SECRET", secret32)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() should succeed with 32-byte secret: %v", err)
	}
	if cfg.SessionSecret != secret32 {
		t.Errorf("SessionSecret = %q, want %q", cfg.SessionSecret, secret32)
	}
}

func TestLoad_Rejections(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"weak secret", map[string]string{"FOLIO_SESSION_SECRET": "change-me-to-32-byte-secret-key!"}},
		{"origin without scheme", map[string]string{"FOLIO_FRONTEND_ORIGIN": "studio.example.com"}},
		{"origin with bad scheme", map[string]string{"FOLIO_FRONTEND_ORIGIN": "ftp://studio.example.com"}},
		{"smtp without from", map[string]string{"FOLIO_SMTP_HOST": "smtp.example.com"}},
		{"short admin password", map[string]string{"FOLIO_ADMIN_PASSWORD": "short"}},
		{"bad duration", map[string]string{"FOLIO_EVENT_RETENTION": "ninety days"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			setEnv(t, "FOLIO_SESSION_SECRET", testSecret)
			for k, v := range tt.env {
				setEnv(t, k, v)
			}

			if _, err := Load(); err == nil {
				t.Error("Load() should fail")
			}
		})
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	tests := []struct {
		env  string
		want bool
	}{
		{"development", true},
		{"production", false},
		{"staging", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := Config{Env: tt.env}
			if got := cfg.IsDevelopment(); got != tt.want {
				t.Errorf("IsDevelopment() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHasMinimumEntropy(t *testing.T) {
	tests := []struct {
		secret string
		want   bool
	}{
		{"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", false},
		{"abcdefghABCDEFGHabcdefghABCDEFGH", false},
		{"abcdABCD1234abcdABCD1234abcdABCD", true},
		{"test-secret-key-32-bytes-long!!!", true},
	}

	for _, tt := range tests {
		if got := hasMinimumEntropy(tt.secret); got != tt.want {
			t.Errorf("hasMinimumEntropy(%q) = %v, want %v", tt.secret, got, tt.want)
		}
	}
}
