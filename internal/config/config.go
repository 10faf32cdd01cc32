// Package config loads the pubgraph configuration file.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all tunable settings. Every field has a default so the
// tool works with no config file at all.
type Config struct {
	BibDir      string `yaml:"bib_dir,omitempty"`
	RosterPath  string `yaml:"roster_path,omitempty"`
	DBPath      string `yaml:"db_path,omitempty"`
	BatchSize   int    `yaml:"batch_size,omitempty"`
	DBLPBaseURL string `yaml:"dblp_base_url,omitempty"`
}

// Defaults mirror the conventional project layout.
const (
	DefaultBibDir     = "dblp_bib"
	DefaultRosterPath = "faculty_roster.json"
	DefaultDBPath     = "publications.db"
	DefaultBatchSize  = 100
	DefaultDBLPURL    = "https://dblp.org"

	// DefaultFile is the config file looked up in the working directory.
	DefaultFile = "pubgraph.yml"
)

// Load reads the config file at path, falling back to defaults for any
// unset field. A missing file is not an error: the defaults apply.
// Environment variables (PUBGRAPH_BIB_DIR, PUBGRAPH_ROSTER, PUBGRAPH_DB,
// PUBGRAPH_BATCH_SIZE, PUBGRAPH_DBLP_URL) override file values.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PUBGRAPH_BIB_DIR"); v != "" {
		cfg.BibDir = v
	}
	if v := os.Getenv("PUBGRAPH_ROSTER"); v != "" {
		cfg.RosterPath = v
	}
	if v := os.Getenv("PUBGRAPH_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("PUBGRAPH_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.BatchSize = n
		}
	}
	if v := os.Getenv("PUBGRAPH_DBLP_URL"); v != "" {
		cfg.DBLPBaseURL = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.BibDir == "" {
		cfg.BibDir = DefaultBibDir
	}
	if cfg.RosterPath == "" {
		cfg.RosterPath = DefaultRosterPath
	}
	if cfg.DBPath == "" {
		cfg.DBPath = DefaultDBPath
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.DBLPBaseURL == "" {
		cfg.DBLPBaseURL = DefaultDBLPURL
	}
}
