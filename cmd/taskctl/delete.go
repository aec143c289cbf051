package main

import (
	"fmt"
	"os"

	"github.com/cuemby/taskctl/pkg/orchestrator"
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Enumerate and interactively delete every live resource for an environment",
	Long: `delete sweeps every cluster in the account/region for services, and
every taskctl-managed EventBridge rule, keeping only the ones whose
resolved task-definition ENVIRONMENT tag matches --environment. It
prints the full list and requires an interactive "y" before deleting
anything.`,
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().String("environment", "", "Environment tag to sweep (required)")
	_ = deleteCmd.MarkFlagRequired("environment")
}

func runDelete(cmd *cobra.Command, args []string) error {
	opts := orchestrator.DeleteOptions{
		Region:      regionFrom(cmd),
		Credentials: credentialsFrom(cmd),
	}
	opts.Environment, _ = cmd.Flags().GetString("environment")

	targets, err := orchestrator.Enumerate(cmd.Context(), opts)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		fmt.Println("nothing to delete")
		return nil
	}

	if !orchestrator.Confirm(targets, os.Stdin, os.Stdout) {
		return fmt.Errorf("delete: aborted by user")
	}

	results := orchestrator.Delete(cmd.Context(), opts, targets)
	failed := false
	for _, r := range results {
		if r.Err != nil {
			failed = true
			fmt.Printf("FAIL %s %s: %v\n", r.Target.Kind, r.Target.Name, r.Err)
			continue
		}
		fmt.Printf("deleted %s %s\n", r.Target.Kind, r.Target.Name)
	}
	if failed {
		return fmt.Errorf("delete: one or more targets failed to delete")
	}
	return nil
}
