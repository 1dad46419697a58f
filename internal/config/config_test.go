package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-at-least-16-chars!!")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.DBPath != "data/userd.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.JWT.Issuer != "userd" {
		t.Errorf("JWT.Issuer = %q, want %q", cfg.JWT.Issuer, "userd")
	}
	if cfg.JWT.TTL != 15*time.Minute {
		t.Errorf("JWT.TTL = %v, want 15m", cfg.JWT.TTL)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-at-least-16-chars!!")
	t.Setenv("PORT", "9999")
	t.Setenv("JWT_TTL", "1h")
	t.Setenv("GITHUB_CLIENT_ID", "client-id")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != 9999 {
		t.Errorf("Port = %d, want 9999", cfg.Port)
	}
	if cfg.JWT.TTL != time.Hour {
		t.Errorf("JWT.TTL = %v, want 1h", cfg.JWT.TTL)
	}
	if cfg.GitHub.ClientID != "client-id" {
		t.Errorf("GitHub.ClientID = %q", cfg.GitHub.ClientID)
	}
}

func TestLoad_MissingSecret(t *testing.T) {
	// Empty counts as unset for the secret.
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("Load() succeeded without JWT_SECRET, want error")
	}
}
