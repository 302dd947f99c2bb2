package config

import (
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("BOT_TOKEN", "123:abc")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.BotName != "Financial Planner Bot" {
		t.Errorf("Expected default bot name, got %q", cfg.BotName)
	}
	if cfg.SessionTimeout != 30*time.Minute {
		t.Errorf("Expected 30m default timeout, got %v", cfg.SessionTimeout)
	}
	if cfg.SweepInterval != 60*time.Second {
		t.Errorf("Expected 60s default sweep interval, got %v", cfg.SweepInterval)
	}
	if cfg.Port != "8080" {
		t.Errorf("Expected default port 8080, got %q", cfg.Port)
	}
	if cfg.TimeoutMinutes() != 30 {
		t.Errorf("Expected 30 timeout minutes, got %d", cfg.TimeoutMinutes())
	}
}

func TestLoad_MissingToken(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")

	if _, err := Load(); err == nil {
		t.Fatal("Expected error when BOT_TOKEN is empty")
	}
}

func TestLoad_CustomValues(t *testing.T) {
	setRequired(t)
	t.Setenv("BOT_NAME", "Test Bot")
	t.Setenv("SESSION_TIMEOUT_MINUTES", "5")
	t.Setenv("SWEEP_INTERVAL_SECONDS", "10")
	t.Setenv("DEBUG", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.BotName != "Test Bot" {
		t.Errorf("Expected custom bot name, got %q", cfg.BotName)
	}
	if cfg.SessionTimeout != 5*time.Minute {
		t.Errorf("Expected 5m timeout, got %v", cfg.SessionTimeout)
	}
	if cfg.SweepInterval != 10*time.Second {
		t.Errorf("Expected 10s sweep interval, got %v", cfg.SweepInterval)
	}
	if !cfg.Debug {
		t.Error("Expected debug enabled")
	}
}

func TestLoad_InvalidTimeout(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"garbage", "soon"},
		{"zero", "0"},
		{"negative", "-5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv("SESSION_TIMEOUT_MINUTES", tt.value)

			if _, err := Load(); err == nil {
				t.Fatalf("Expected error for SESSION_TIMEOUT_MINUTES=%q", tt.value)
			}
		})
	}
}

func TestLoad_InvalidSweepInterval(t *testing.T) {
	setRequired(t)
	t.Setenv("SWEEP_INTERVAL_SECONDS", "never")

	if _, err := Load(); err == nil {
		t.Fatal("Expected error for unparseable SWEEP_INTERVAL_SECONDS")
	}
}
