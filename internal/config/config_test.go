package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kryli/TgAnalyzer/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, "telegram:\n  token: \"123:abc\"\n")

	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	if cfg.Telegram.Token != "123:abc" {
		t.Errorf("token = %q", cfg.Telegram.Token)
	}
	if cfg.Logger.Level != "info" {
		t.Errorf("default log level = %q, want info", cfg.Logger.Level)
	}
	if cfg.Pipeline.FetchLimit != 500 {
		t.Errorf("default fetch limit = %d, want 500", cfg.Pipeline.FetchLimit)
	}
	if cfg.Pipeline.NarrativeEnabled {
		t.Error("narrative must be disabled by default")
	}
	if cfg.Scheduler.SQLMaintenanceCron == "" || cfg.Scheduler.ResultsCleanupCron == "" {
		t.Error("scheduler crons must have defaults")
	}
	if cfg.Messages.InvalidLink == "" || cfg.Messages.Processing == "" {
		t.Error("user-facing messages must have defaults")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeConfig(t, strings.Join([]string{
		"telegram:",
		"  token: \"123:abc\"",
		"logger:",
		"  level: debug",
		"pipeline:",
		"  fetch_limit: 200",
		"  narrative_enabled: true",
	}, "\n"))

	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.Logger.Level != "debug" {
		t.Errorf("log level = %q, want debug", cfg.Logger.Level)
	}
	if cfg.Pipeline.FetchLimit != 200 {
		t.Errorf("fetch limit = %d, want 200", cfg.Pipeline.FetchLimit)
	}
	if !cfg.Pipeline.NarrativeEnabled {
		t.Error("narrative_enabled override not applied")
	}
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing token", "logger:\n  level: info\n"},
		{"bad log level", "telegram:\n  token: \"123:abc\"\nlogger:\n  level: loud\n"},
		{"bad ml url", "telegram:\n  token: \"123:abc\"\nml_service:\n  base_url: \"not a url\"\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.content)
			if _, err := config.LoadConfig(path); err == nil {
				t.Error("LoadConfig() must fail validation")
			}
		})
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("BOT_TELEGRAM_TOKEN", "999:env")

	path := writeConfig(t, "pipeline:\n  fetch_limit: 100\n")
	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.Telegram.Token != "999:env" {
		t.Errorf("token = %q, want env override", cfg.Telegram.Token)
	}
}
