package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// TemplateTestResult is one environment.yaml's outcome from TestTemplates:
// either it rendered and loaded cleanly, or it produced a fatal config
// error — the same class of error a real deploy run would have hit at
// load time, just without any cloud calls.
type TemplateTestResult struct {
	EnvironmentYAMLPath string
	Result              *Result
	Err                 error
}

// Failed reports whether any environment.yaml in the set failed to load.
func (rs TemplateTestResults) Failed() bool {
	for _, r := range rs {
		if r.Err != nil {
			return true
		}
	}
	return false
}

// TemplateTestResults is the ordered (by filename) outcome of TestTemplates.
type TemplateTestResults []TemplateTestResult

// TestTemplates renders servicesYAMLPath against every environment.yaml
// found directly inside environmentYAMLDir (non-recursive, lexical
// filename order), running the modern loader to completion for each one.
// It never calls a cloud API — this is the `test-templates` mode's entire
// job: catch template and variable-scope bugs in CI before a real deploy
// run would hit them.
func TestTemplates(servicesYAMLPath, environmentYAMLDir string, opts Options) (TemplateTestResults, error) {
	entries, err := os.ReadDir(environmentYAMLDir)
	if err != nil {
		return nil, fmt.Errorf("config: read environment yaml dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	results := make(TemplateTestResults, 0, len(names))
	for _, name := range names {
		path := filepath.Join(environmentYAMLDir, name)
		result, err := LoadModern(servicesYAMLPath, path, opts)
		results = append(results, TemplateTestResult{
			EnvironmentYAMLPath: path,
			Result:              result,
			Err:                 err,
		})
	}
	return results, nil
}
