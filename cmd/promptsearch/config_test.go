package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig_Missing(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing config must not error: %v", err)
	}
	if cfg.Limit != 20 || cfg.Format != "table" || cfg.Color != "auto" {
		t.Errorf("defaults wrong: %+v", cfg)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	path := writeConfig(t, "sessions_dir: /logs\nlimit: 50\nformat: json\ncolor: never\n")
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.SessionsDir != "/logs" || cfg.Limit != 50 || cfg.Format != "json" || cfg.Color != "never" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
}

func TestLoadConfig_PartialKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "limit: 5\n")
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Limit != 5 {
		t.Errorf("limit = %d", cfg.Limit)
	}
	if cfg.Format != "table" || cfg.Color != "auto" {
		t.Errorf("unset keys should keep defaults: %+v", cfg)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := writeConfig(t, "format: [not\n")
	if _, err := loadConfig(path); err == nil {
		t.Error("expected error for malformed yaml")
	}

	path = writeConfig(t, "format: csv\n")
	if _, err := loadConfig(path); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestLoadConfig_NonPositiveLimit(t *testing.T) {
	path := writeConfig(t, "limit: -3\n")
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Limit != 20 {
		t.Errorf("non-positive limit should reset to default, got %d", cfg.Limit)
	}
}
