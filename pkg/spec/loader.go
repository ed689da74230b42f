package spec

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadWorkflow reads a workflow file and returns a parsed, defaulted, and
// normalized Workflow. YAML is a superset of JSON, so both formats load.
// The returned workflow is not yet validated; callers decide how to surface
// violations.
func LoadWorkflow(path string) (*Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workflow %s: %w", path, err)
	}
	w, err := ParseWorkflow(data)
	if err != nil {
		return nil, fmt.Errorf("workflow %s: %w", path, err)
	}
	return w, nil
}

// ParseWorkflow parses YAML or JSON data into a Workflow, applies defaults,
// and normalizes target lists.
func ParseWorkflow(data []byte) (*Workflow, error) {
	var w Workflow
	if err := yaml.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("parse workflow: %w", err)
	}
	w.ApplyDefaults()
	w.Normalize()
	return &w, nil
}
