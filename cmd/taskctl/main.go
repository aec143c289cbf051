package main

import (
	"fmt"
	"os"

	"github.com/cuemby/taskctl/pkg/log"
	"github.com/spf13/cobra"
)

// Version information, set via ldflags during build.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "taskctl",
	Short: "taskctl - declarative ECS deployment orchestrator",
	Long: `taskctl reconciles a declarative services.yaml/environment.yaml
(or legacy template-dir/config.json) description of ECS services and
scheduled tasks against live AWS state: registering task definitions,
creating or updating services, and managing EventBridge-scheduled
Lambda invocations.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"taskctl version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	rootCmd.PersistentFlags().String("key", "", "AWS access key ID (falls back to the default credential chain if unset)")
	rootCmd.PersistentFlags().String("secret", "", "AWS secret access key (falls back to the default credential chain if unset)")
	rootCmd.PersistentFlags().String("region", "us-east-1", "AWS region")
	rootCmd.PersistentFlags().Int("threads-count", 5, "Worker pool size for the reconciliation engine")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(serviceCmd)
	rootCmd.AddCommand(testTemplatesCmd)
	rootCmd.AddCommand(deleteCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
	})
}
