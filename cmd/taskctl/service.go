package main

import (
	"fmt"
	"net/http"

	"github.com/cuemby/taskctl/pkg/metrics"
	"github.com/cuemby/taskctl/pkg/orchestrator"
	"github.com/spf13/cobra"
)

var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Reconcile services and scheduled tasks against live ECS state",
	Long: `service loads the declarative configuration, fetches live ECS
state, and reconciles the two: registering changed task definitions,
creating or updating services, managing stop-before-deploy ordering,
deleting unused services, and rolling out scheduled-task EventBridge
rules.

--dry-run runs the read-only Fetch -> Classify -> Check-Delete ->
Check-Deploy subset and makes no cloud mutation. --test stops even
earlier, after the config load, and makes no cloud call at all.`,
	RunE: runService,
}

func init() {
	serviceCmd.Flags().String("services-yaml", "", "Path to services.yaml (modern mode)")
	serviceCmd.Flags().String("environment-yaml", "", "Path to environment.yaml (modern mode)")
	serviceCmd.Flags().String("task-definition-template-dir", "", "Template directory (legacy mode)")
	serviceCmd.Flags().String("task-definition-config-json", "", "config.json path (legacy mode)")
	serviceCmd.Flags().Bool("task-definition-config-env", false, "Overlay the process environment into template scope")
	serviceCmd.Flags().String("template-group", "", "Only load templates tagged with this templateGroup")
	serviceCmd.Flags().String("deploy-service-group", "", "Only deploy services tagged with this serviceGroup")
	serviceCmd.Flags().Bool("service-zero-keep", false, "Keep desiredCount at zero on update when the live service's desired count is already zero")
	serviceCmd.Flags().Bool("stop-before-deploy", true, "Honor per-service stopBeforeDeploy ordering")
	serviceCmd.Flags().Bool("delete-unused-service", true, "Delete live services no longer present in the desired state")
	serviceCmd.Flags().Int("service-wait-max-attempts", 30, "Maximum waitForStable polling attempts")
	serviceCmd.Flags().Int("service-wait-delay", 10, "Seconds between waitForStable polling attempts")
	serviceCmd.Flags().Bool("placement-strategy-binpack-first", false, "Prepend a memory-binpack placement strategy ahead of each service's own")
	serviceCmd.Flags().Bool("test", false, "Load and validate configuration only; make no cloud call")
	serviceCmd.Flags().Bool("dry-run", false, "Report what would change without mutating anything")
	serviceCmd.Flags().String("metrics-addr", "", "Address to serve Prometheus /metrics and health endpoints on for the run's duration (disabled if unset)")
}

func runService(cmd *cobra.Command, args []string) error {
	opts := orchestrator.ServiceOptions{
		Region:      regionFrom(cmd),
		Credentials: credentialsFrom(cmd),

		ThreadsCount: threadsFrom(cmd),
	}
	opts.ServicesYAML, _ = cmd.Flags().GetString("services-yaml")
	opts.EnvironmentYAML, _ = cmd.Flags().GetString("environment-yaml")
	opts.TaskDefinitionTemplateDir, _ = cmd.Flags().GetString("task-definition-template-dir")
	opts.TaskDefinitionConfigJSON, _ = cmd.Flags().GetString("task-definition-config-json")
	opts.TaskDefinitionConfigEnv, _ = cmd.Flags().GetBool("task-definition-config-env")
	opts.TemplateGroup, _ = cmd.Flags().GetString("template-group")
	opts.DeployServiceGroup, _ = cmd.Flags().GetString("deploy-service-group")
	opts.ServiceZeroKeep, _ = cmd.Flags().GetBool("service-zero-keep")
	opts.StopBeforeDeploy, _ = cmd.Flags().GetBool("stop-before-deploy")
	opts.DeleteUnusedService, _ = cmd.Flags().GetBool("delete-unused-service")
	opts.ServiceWaitMaxAttempts, _ = cmd.Flags().GetInt("service-wait-max-attempts")
	opts.ServiceWaitDelay, _ = cmd.Flags().GetInt("service-wait-delay")
	opts.PlacementStrategyBinpackFirst, _ = cmd.Flags().GetBool("placement-strategy-binpack-first")
	opts.TestOnly, _ = cmd.Flags().GetBool("test")
	opts.DryRun, _ = cmd.Flags().GetBool("dry-run")

	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
	if metricsAddr != "" && !opts.TestOnly {
		stop := startMetricsServer(metricsAddr)
		defer stop()
	}

	report, err := orchestrator.RunService(cmd.Context(), opts)
	if err != nil {
		return err
	}

	for _, rec := range report.Records {
		fmt.Printf("%s %s: %s\n", rec.Kind, rec.Family, rec.Status)
	}
	if report.DryRun {
		fmt.Println("dry-run: no changes were made")
	}
	if report.Failed() {
		return fmt.Errorf("service: one or more records failed to reconcile")
	}
	return nil
}

// startMetricsServer starts the optional /metrics, /health, /ready, /live
// HTTP server for the duration of a `service` run, returning a func that
// leaves it running — taskctl is a single-pass tool, not a daemon, so
// there is no graceful shutdown to perform; the process exit tears it
// down.
func startMetricsServer(addr string) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/health", metrics.HealthHandler())
	mux.Handle("/ready", metrics.ReadyHandler())
	mux.Handle("/live", metrics.LivenessHandler())
	metrics.SetVersion(Version)
	metrics.RegisterComponent("config", false, "loading")
	metrics.RegisterComponent("cloudapi", false, "connecting")

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			fmt.Printf("metrics server error: %v\n", err)
		}
	}()
	fmt.Printf("metrics endpoint: http://%s/metrics\n", addr)
	return func() {}
}
