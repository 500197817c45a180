package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"promptsearch/pkg/render"
)

// Config is the optional $PROMPTSEARCH_HOME/config.yaml. Flags override
// config values; config values override built-in defaults.
type Config struct {
	SessionsDir string `yaml:"sessions_dir,omitempty"`
	Limit       int    `yaml:"limit,omitempty"`
	Format      string `yaml:"format,omitempty"`
	Color       string `yaml:"color,omitempty"`
}

// defaultConfig returns the built-in defaults.
func defaultConfig() Config {
	return Config{
		Limit:  20,
		Format: render.FormatTable,
		Color:  render.ColorAuto,
	}
}

// loadConfig reads the config file at path over the defaults. A missing
// file is not an error; a malformed one is.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	if cfg.Format != "" && !render.ValidFormat(cfg.Format) {
		return cfg, fmt.Errorf("config %s: unknown format %q", path, cfg.Format)
	}
	if cfg.Limit <= 0 {
		cfg.Limit = defaultConfig().Limit
	}
	return cfg, nil
}
