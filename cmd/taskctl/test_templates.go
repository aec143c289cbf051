package main

import (
	"fmt"

	"github.com/cuemby/taskctl/pkg/orchestrator"
	"github.com/spf13/cobra"
)

var testTemplatesCmd = &cobra.Command{
	Use:   "test-templates",
	Short: "Render every environment.yaml in a directory against services.yaml and validate the result",
	Long: `test-templates iterates every file directly inside
--environment-yaml-dir, renders it against the shared services.yaml, and
runs the config loader to completion for each one. It makes no cloud
call — its purpose is catching template and variable-scope bugs in CI
before a real service run would hit them.`,
	RunE: runTestTemplates,
}

func init() {
	testTemplatesCmd.Flags().String("services-yaml", "", "Path to services.yaml")
	testTemplatesCmd.Flags().String("environment-yaml-dir", "", "Directory of environment.yaml files to test, one load per file")
	testTemplatesCmd.Flags().String("task-definition-template-dir", "", "Also test the legacy template directory once")
	testTemplatesCmd.Flags().String("task-definition-config-json", "", "Legacy config.json paired with --task-definition-template-dir")
	testTemplatesCmd.Flags().Bool("task-definition-config-env", false, "Overlay the process environment into template scope")
}

func runTestTemplates(cmd *cobra.Command, args []string) error {
	var opts orchestrator.TestTemplatesOptions
	opts.ServicesYAML, _ = cmd.Flags().GetString("services-yaml")
	opts.EnvironmentYAMLDir, _ = cmd.Flags().GetString("environment-yaml-dir")
	opts.TaskDefinitionTemplateDir, _ = cmd.Flags().GetString("task-definition-template-dir")
	opts.TaskDefinitionConfigJSON, _ = cmd.Flags().GetString("task-definition-config-json")
	opts.TaskDefinitionConfigEnv, _ = cmd.Flags().GetBool("task-definition-config-env")

	results, err := orchestrator.RunTestTemplates(opts)
	if err != nil {
		return err
	}

	for _, r := range results {
		if r.Err != nil {
			fmt.Printf("FAIL %s: %v\n", r.EnvironmentYAMLPath, r.Err)
			continue
		}
		fmt.Printf("OK   %s: %d services, %d scheduled tasks\n",
			r.EnvironmentYAMLPath, len(r.Result.AllServices), len(r.Result.AllScheduledTasks))
	}

	if results.Failed() {
		return fmt.Errorf("test-templates: one or more environment.yaml files failed to load")
	}
	return nil
}
