package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

type Config struct {
	HistoryFile string `yaml:"history_file"`
	HomeDir     string `yaml:"home_dir"`
	Prompt      string `yaml:"prompt"`
	MaxJobs     int    `yaml:"max_jobs"`
}

// Load reads a yaml config file, filling in defaults for anything left
// unset. A missing file is not an error; it just means all defaults.
func Load(file string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(file)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	if cfg.HomeDir == "" {
		cfg.HomeDir, err = os.UserHomeDir()
		if err != nil {
			return nil, err
		}
	}

	if cfg.HistoryFile == "" {
		cfg.HistoryFile = filepath.Join(cfg.HomeDir, ".gsh_history")
	}

	if cfg.Prompt == "" {
		cfg.Prompt = "gsh> "
	}

	if cfg.MaxJobs == 0 {
		cfg.MaxJobs = 1 << 16
	}

	return cfg, nil
}
