package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the codegraph.yaml configuration.
type Config struct {
	Root        string       `yaml:"root"`
	Database    string       `yaml:"database"`
	Ignore      []string     `yaml:"ignore"`
	MaxFileSize int64        `yaml:"max_file_size"`
	Limits      LimitsConfig `yaml:"limits"`
	Output      OutputConfig `yaml:"output"`
}

// LimitsConfig bounds the source snapshots stored on graph nodes.
type LimitsConfig struct {
	FileContent   int `yaml:"file_content"`   // chars kept per file node
	EntityContent int `yaml:"entity_content"` // chars kept per function/class node
}

// OutputConfig controls generated artifacts.
type OutputConfig struct {
	Dir          string `yaml:"dir"`
	SummaryChars int    `yaml:"summary_chars"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Root:        ".",
		Database:    ".codegraph/graph.db",
		Ignore:      []string{".codegraph/**"},
		MaxFileSize: 2 * 1024 * 1024,
		Limits: LimitsConfig{
			FileContent:   8000,
			EntityContent: 3000,
		},
		Output: OutputConfig{
			Dir:          ".codegraph",
			SummaryChars: 16000,
		},
	}
}

// Load reads a configuration file from the given path.
// Missing fields are filled with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Root == "" {
		cfg.Root = "."
	}
	if cfg.Database == "" {
		cfg.Database = ".codegraph/graph.db"
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = ".codegraph"
	}
	if cfg.Output.SummaryChars == 0 {
		cfg.Output.SummaryChars = 16000
	}
	if cfg.Limits.FileContent == 0 {
		cfg.Limits.FileContent = 8000
	}
	if cfg.Limits.EntityContent == 0 {
		cfg.Limits.EntityContent = 3000
	}
	if cfg.MaxFileSize == 0 {
		cfg.MaxFileSize = 2 * 1024 * 1024
	}

	return cfg, nil
}
