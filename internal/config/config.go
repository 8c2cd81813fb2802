package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds defaults loaded from the optional YAML config file. CLI flags
// override whatever is set here.
type Config struct {
	BaseDirectory   string   `yaml:"base_directory"`
	Recursive       *bool    `yaml:"recursive"`
	ExcludePatterns []string `yaml:"exclude_patterns"`
	IndexPath       string   `yaml:"index_path"`
	HTTPAddr        string   `yaml:"http_addr"`
	Schedule        string   `yaml:"schedule"`
	LogLevel        string   `yaml:"log_level"`
	Workers         Workers  `yaml:"workers"`
}

// Workers holds concurrency knobs for the scan pipeline.
type Workers struct {
	Walkers      int `yaml:"walkers"`
	QuickHashers int `yaml:"quick_hashers"`
	FullHashers  int `yaml:"full_hashers"`
}

// applyDefaults fills zero/empty fields with sensible defaults.
func (c *Config) applyDefaults() {
	if c.Recursive == nil {
		t := true
		c.Recursive = &t
	}
	if c.HTTPAddr == "" {
		c.HTTPAddr = ":8080"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Workers.Walkers == 0 {
		c.Workers.Walkers = 4
	}
	if c.Workers.QuickHashers == 0 {
		c.Workers.QuickHashers = 4
	}
	if c.Workers.FullHashers == 0 {
		c.Workers.FullHashers = 2
	}
}

// Load reads and parses the YAML config file at path.
// If the file does not exist, Load returns a default Config so the tool
// works without one.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		var cfg Config
		cfg.applyDefaults()
		return &cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open config %q: %w", path, err)
	}
	defer f.Close()

	var cfg Config
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config %q: %w", path, err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}
