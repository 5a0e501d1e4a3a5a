// Package config loads server settings from an optional YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"ospanel/internal/ingest"
)

// ImportDefaults are the pipeline settings used when an upload request
// does not override them.
type ImportDefaults struct {
	Mode          string `yaml:"mode"`
	Dedupe        bool   `yaml:"dedupe"`
	DefaultStatus string `yaml:"default_status"`
}

type Config struct {
	Port   int            `yaml:"port"`
	DBPath string         `yaml:"db_path"`
	Import ImportDefaults `yaml:"import"`
}

// Load reads the YAML file at path when it exists, then applies
// environment overrides (PORT, DB_PATH, IMPORT_MODE) on top of it.
// A missing file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Port:   8080,
		DBPath: "ospanel.db",
		Import: ImportDefaults{Mode: "replace"},
	}

	if path != "" {
		f, err := os.Open(path)
		if err == nil {
			defer f.Close()
			if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
				return nil, fmt.Errorf("config: invalid file %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: open %s: %w", path, err)
		}
	}

	if v := os.Getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("config: invalid PORT %q: %w", v, err)
		}
		cfg.Port = p
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("IMPORT_MODE"); v != "" {
		cfg.Import.Mode = v
	}

	switch cfg.Import.Mode {
	case "replace", "append":
	default:
		return nil, fmt.Errorf("config: import mode must be replace or append, got %q", cfg.Import.Mode)
	}
	return cfg, nil
}

// Policy translates the import defaults into a pipeline policy.
func (c *Config) Policy() ingest.Policy {
	p := ingest.DetailedImportPolicy()
	if c.Import.Mode == "append" {
		p.Mode = ingest.Append
	}
	p.Dedupe = c.Import.Dedupe
	if c.Import.DefaultStatus != "" {
		p.StatusFallback = ingest.StatusDefaultLabel
		p.DefaultStatus = c.Import.DefaultStatus
	}
	return p
}
