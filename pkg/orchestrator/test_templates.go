package orchestrator

import (
	"fmt"

	"github.com/cuemby/taskctl/pkg/config"
)

// TestTemplatesOptions carries the `test-templates` subcommand's flags.
// It never touches cloudapi — the whole point is catching template and
// variable-scope bugs in CI without an AWS account in the loop.
type TestTemplatesOptions struct {
	ServicesYAML              string
	EnvironmentYAMLDir        string
	TaskDefinitionTemplateDir string
	TaskDefinitionConfigJSON  string
	TaskDefinitionConfigEnv   bool
}

// RunTestTemplates renders servicesYAML against every environment.yaml in
// EnvironmentYAMLDir, and — when both legacy flags are also given — the
// single legacy template-dir/config.json pair once more, so a repo
// migrating between the two config modes can CI-check both in one
// invocation.
func RunTestTemplates(o TestTemplatesOptions) (config.TemplateTestResults, error) {
	opts := config.Options{IncludeProcessEnv: o.TaskDefinitionConfigEnv}

	results, err := config.TestTemplates(o.ServicesYAML, o.EnvironmentYAMLDir, opts)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: test templates: %w", err)
	}

	if o.TaskDefinitionTemplateDir != "" && o.TaskDefinitionConfigJSON != "" {
		legacyResult, legacyErr := config.LoadLegacy(o.TaskDefinitionTemplateDir, o.TaskDefinitionConfigJSON, opts)
		results = append(results, config.TemplateTestResult{
			EnvironmentYAMLPath: o.TaskDefinitionConfigJSON,
			Result:              legacyResult,
			Err:                 legacyErr,
		})
	}

	return results, nil
}
