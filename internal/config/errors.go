package config

import "fmt"

// ConfigError reports malformed topology: a node or project record whose
// shape does not match what the pipeline expects. It is raised at load
// time so bad values never reach the folder-building logic.
type ConfigError struct {
	File   string
	Detail string
}

func (e *ConfigError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("config: %s", e.Detail)
	}
	return fmt.Sprintf("config %s: %s", e.File, e.Detail)
}
