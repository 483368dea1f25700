package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Node is a top-level organizational unit (e.g. a field station). It owns
// one project-summary table whose columns are its sensor platforms.
type Node struct {
	Name            string   `yaml:"name"`
	SensorPlatforms []string `yaml:"SensorPlatforms"`
}

// Placeholder reports whether the node is an untouched template entry.
func (n *Node) Placeholder() bool {
	return n.Name == ""
}

// NodesFile is the top-level topology document listing every node.
type NodesFile struct {
	Nodes []Node `yaml:"nodes"`
}

// EnsureNodes loads the node topology file, writing a template first if it
// does not exist. The template must be hand-edited before it describes any
// real node.
func EnsureNodes(path string) (*NodesFile, bool, error) {
	created := false
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		tmpl := &NodesFile{Nodes: []Node{{Name: "", SensorPlatforms: []string{}}}}
		data, err := yaml.Marshal(tmpl)
		if err != nil {
			return nil, false, fmt.Errorf("encode node template: %w", err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, false, fmt.Errorf("write node template: %w", err)
		}
		slog.Info("new node file created, edit it to add nodes", "path", path)
		created = true
	}

	nf, err := LoadNodes(path)
	if err != nil {
		return nil, created, err
	}
	return nf, created, nil
}

// LoadNodes reads and shape-checks the node topology file.
func LoadNodes(path string) (*NodesFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read nodes file: %w", err)
	}

	var nf NodesFile
	if err := yaml.Unmarshal(data, &nf); err != nil {
		return nil, &ConfigError{File: path, Detail: err.Error()}
	}

	for _, n := range nf.Nodes {
		seen := make(map[string]struct{}, len(n.SensorPlatforms))
		for _, p := range n.SensorPlatforms {
			if p == "" {
				return nil, &ConfigError{File: path, Detail: fmt.Sprintf("node %q has an empty sensor platform name", n.Name)}
			}
			if _, dup := seen[p]; dup {
				return nil, &ConfigError{File: path, Detail: fmt.Sprintf("node %q lists sensor platform %q twice", n.Name, p)}
			}
			seen[p] = struct{}{}
		}
	}

	return &nf, nil
}
