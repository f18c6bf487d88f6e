package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Load reads and parses a workflow configuration from the given YAML file
// path. After parsing, it applies defaults to stages that don't specify
// their own values.
func Load(path string) (*WorkflowConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg WorkflowConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault searches for a workflow config in standard locations and loads
// the first one found. Search order: ./workflow.yaml,
// ~/.crossfeed/workflow.yaml
func LoadDefault() (*WorkflowConfig, error) {
	candidates := []string{"workflow.yaml"}

	home, err := os.UserHomeDir()
	if err == nil {
		candidates = append(candidates, filepath.Join(home, ".crossfeed", "workflow.yaml"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}

	return nil, fmt.Errorf("no workflow config found (searched: %v)", candidates)
}

const (
	defaultTimeout    = "30s"
	defaultMaxRetries = 3
)

// applyDefaults merges workflow-level defaults into stages that don't set
// their own values and fills implied dependencies: a resolve stage depends
// on its primary and candidate stages, a publish stage on its from stage.
func applyDefaults(cfg *WorkflowConfig) {
	w := &cfg.Workflow

	if w.OnAmbiguous == "" {
		w.OnAmbiguous = "drop"
	}
	if w.Defaults.Timeout == "" {
		w.Defaults.Timeout = defaultTimeout
	}
	if w.Defaults.MaxRetries == nil {
		n := defaultMaxRetries
		w.Defaults.MaxRetries = &n
	}

	for i := range w.Stages {
		s := &w.Stages[i]

		if s.Timeout == "" {
			s.Timeout = w.Defaults.Timeout
		}
		if s.MaxRetries == nil {
			s.MaxRetries = w.Defaults.MaxRetries
		}

		switch s.Kind {
		case "resolve":
			s.DependsOn = addDep(s.DependsOn, s.Primary)
			s.DependsOn = addDep(s.DependsOn, s.Candidates)
		case "publish":
			s.DependsOn = addDep(s.DependsOn, s.From)
		case "analyze":
			for _, n := range s.NotesFrom {
				s.DependsOn = addDep(s.DependsOn, n)
			}
		}
	}
}

// addDep appends dep to deps if non-empty and not already present.
func addDep(deps []string, dep string) []string {
	if dep == "" {
		return deps
	}
	for _, d := range deps {
		if d == dep {
			return deps
		}
	}
	return append(deps, dep)
}
