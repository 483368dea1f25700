package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Settings holds persistent CLI defaults loaded from a config file.
type Settings struct {
	NodesFile  string `yaml:"nodes_file"`
	NoGit      bool   `yaml:"no_git"`
	Historical bool   `yaml:"historical"`
	HistoryDB  string `yaml:"history_db"`

	// Commit message used when the tracker pushes ledger updates.
	// Empty means a message derived from the run report.
	CommitMessage string `yaml:"commit_message,omitempty"`
}

// LoadSettings reads a YAML config file into Settings.
// If the file does not exist, it returns zero-value Settings and nil error.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Settings{}, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return &s, nil
}
