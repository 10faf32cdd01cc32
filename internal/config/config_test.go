package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.BibDir != DefaultBibDir || cfg.BatchSize != DefaultBatchSize {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if cfg.DBLPBaseURL != DefaultDBLPURL {
		t.Errorf("dblp url = %s", cfg.DBLPBaseURL)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pubgraph.yml")
	data := "bib_dir: /data/bib\nbatch_size: 50\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.BibDir != "/data/bib" || cfg.BatchSize != 50 {
		t.Errorf("file values not applied: %+v", cfg)
	}
	// Unset fields still get defaults.
	if cfg.DBPath != DefaultDBPath {
		t.Errorf("db path = %s", cfg.DBPath)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pubgraph.yml")
	if err := os.WriteFile(path, []byte("db_path: from_file.db\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PUBGRAPH_DB", "from_env.db")
	t.Setenv("PUBGRAPH_BATCH_SIZE", "25")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DBPath != "from_env.db" {
		t.Errorf("env override not applied: %s", cfg.DBPath)
	}
	if cfg.BatchSize != 25 {
		t.Errorf("batch size = %d", cfg.BatchSize)
	}
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pubgraph.yml")
	if err := os.WriteFile(path, []byte(":\tnot yaml"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected a parse error")
	}
}
