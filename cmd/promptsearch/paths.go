package main

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths holds all resolved promptsearch file paths.
// Use ResolvePaths() to populate this struct with defaults + env overrides.
type Paths struct {
	Home        string // ~/.promptsearch or PROMPTSEARCH_HOME
	DBPath      string // index.db or PROMPTSEARCH_DB_PATH
	ConfigPath  string // config.yaml (respects PROMPTSEARCH_HOME)
	SessionsDir string // ~/.codex/sessions or PROMPTSEARCH_SESSIONS_DIR
}

// ResolvePaths returns all promptsearch paths, respecting env var overrides.
// Environment variables:
//   - PROMPTSEARCH_HOME: base directory for promptsearch state (default: ~/.promptsearch)
//   - PROMPTSEARCH_DB_PATH: index database (default: $PROMPTSEARCH_HOME/index.db)
//   - PROMPTSEARCH_SESSIONS_DIR: session logs root (default: ~/.codex/sessions)
func ResolvePaths() (*Paths, error) {
	home, err := resolveHome()
	if err != nil {
		return nil, err
	}

	sessionsDir := os.Getenv("PROMPTSEARCH_SESSIONS_DIR")
	if sessionsDir == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		sessionsDir = filepath.Join(userHome, ".codex", "sessions")
	}

	return &Paths{
		Home:        home,
		DBPath:      resolvePathWithEnv("PROMPTSEARCH_DB_PATH", home, "index.db"),
		ConfigPath:  filepath.Join(home, "config.yaml"),
		SessionsDir: sessionsDir,
	}, nil
}

// resolveHome returns the promptsearch home directory from PROMPTSEARCH_HOME
// or ~/.promptsearch.
func resolveHome() (string, error) {
	if v := os.Getenv("PROMPTSEARCH_HOME"); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".promptsearch"), nil
}

// resolvePathWithEnv returns the path from envKey if set, otherwise joins
// base + suffix.
func resolvePathWithEnv(envKey, base, suffix string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return filepath.Join(base, suffix)
}
