package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/johnhenry/super-dee-duper/internal/config"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sdd.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_DefaultsApplied(t *testing.T) {
	path := writeConfig(t, "base_directory: /tmp/photos\n")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BaseDirectory != "/tmp/photos" {
		t.Errorf("base_directory = %q", cfg.BaseDirectory)
	}
	if cfg.Recursive == nil || !*cfg.Recursive {
		t.Error("expected recursive to default to true")
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("http_addr = %q", cfg.HTTPAddr)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("log_level = %q", cfg.LogLevel)
	}
	if cfg.Workers.Walkers != 4 || cfg.Workers.QuickHashers != 4 || cfg.Workers.FullHashers != 2 {
		t.Errorf("workers = %+v", cfg.Workers)
	}
}

func TestLoad_ExplicitValuesKept(t *testing.T) {
	path := writeConfig(t, `base_directory: /data
recursive: false
exclude_patterns:
  - "*.tmp"
  - node_modules
index_path: /data/sdd.db
http_addr: ":9090"
schedule: "0 3 * * *"
log_level: debug
workers:
  walkers: 8
  quick_hashers: 6
  full_hashers: 3
`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *cfg.Recursive {
		t.Error("expected recursive false to survive defaulting")
	}
	if len(cfg.ExcludePatterns) != 2 || cfg.ExcludePatterns[0] != "*.tmp" {
		t.Errorf("exclude_patterns = %v", cfg.ExcludePatterns)
	}
	if cfg.IndexPath != "/data/sdd.db" {
		t.Errorf("index_path = %q", cfg.IndexPath)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Errorf("http_addr = %q", cfg.HTTPAddr)
	}
	if cfg.Schedule != "0 3 * * *" {
		t.Errorf("schedule = %q", cfg.Schedule)
	}
	if cfg.Workers.Walkers != 8 || cfg.Workers.FullHashers != 3 {
		t.Errorf("workers = %+v", cfg.Workers)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("http_addr = %q", cfg.HTTPAddr)
	}
}

func TestLoad_UnknownFieldRejected(t *testing.T) {
	path := writeConfig(t, "base_dir: /typo\n")

	if _, err := config.Load(path); err == nil {
		t.Error("expected error for unknown field")
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "base_directory: [unterminated\n")

	if _, err := config.Load(path); err == nil {
		t.Error("expected error for malformed yaml")
	}
}
