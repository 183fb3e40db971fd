// Package graphfile persists the artifacts a decision task leaves behind for
// downstream tooling: the created task graph, the (empty) actions document
// and the parameters the run was made with.
package graphfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// File names written into the output directory.
const (
	TaskGraphFile  = "task-graph.json"
	ActionsFile    = "actions.json"
	ParametersFile = "parameters.yml"
)

// Write stores graph, an empty actions document and params under dir,
// creating dir if needed. params is encoded as YAML; nil is written as an
// empty mapping.
func Write(dir string, graph json.Marshaler, params any) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(graph, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode task graph: %w", err)
	}
	if err := writeFile(dir, TaskGraphFile, data); err != nil {
		return err
	}

	if err := writeFile(dir, ActionsFile, []byte("{}\n")); err != nil {
		return err
	}

	if params == nil {
		params = map[string]any{}
	}
	out, err := yaml.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to encode parameters: %w", err)
	}
	return writeFile(dir, ParametersFile, out)
}

func writeFile(dir, name string, data []byte) error {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
