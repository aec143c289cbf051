/*
Package log provides structured logging for taskctl using zerolog.

The log package wraps zerolog to provide JSON-structured logging with
component-specific loggers, configurable log levels, and helper functions
for common logging patterns. All logs include timestamps and support
filtering by severity for production debugging.

# Core Components

Global Logger:
  - Package-level zerolog.Logger instance
  - Initialized once via log.Init()
  - Accessible from every taskctl package
  - Thread-safe concurrent writes, since each phase of the reconciliation
    engine logs from its own goroutine

Configuration:
  - Level: filter messages below threshold (debug/info/warn/error)
  - JSONOutput: JSON for production, console for local runs
  - Output: io.Writer for the log destination (stdout by default)

Context Loggers:
  - WithComponent: tag every log line with the owning package
    ("cloudapi", "reconciler", "config")
  - WithCluster: tag logs with the ECS cluster name being reconciled
  - WithServiceID / WithFamily: tag logs with the service or task
    definition family under reconciliation
  - WithTaskID: tag logs with a running task's ARN during stop/wait

# Usage

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     os.Stdout,
	})

	reconcilerLog := log.WithComponent("reconciler")
	reconcilerLog.Info().Str("family", svc.Family).Msg("deploying service")

	log.Logger.Error().Err(err).Str("cluster", cluster).Msg("describe services failed")

# Design Patterns

Global Logger Pattern: a single package-level Logger, initialized once in
cmd/taskctl's cobra.OnInitialize hook, passed implicitly rather than
threaded through every function signature.

Context Logger Pattern: component and resource-scoped child loggers carry
their fields automatically, so a goroutine deep in the worker pool doesn't
need to re-attach cluster/family/task identifiers at every log call.
*/
package log
