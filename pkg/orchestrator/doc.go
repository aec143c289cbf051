/*
Package orchestrator wires config, cloudapi and reconciler together into
the four modes the CLI exposes: a full service deploy, its --dry-run
read-only variant (handled inside reconciler.Engine.Run itself), the
test-templates CI check, and the interactive delete sweep.

The service and test-templates modes load desired state once, immutable
thereafter; the delete sweep loads none and works only from what is live
in the account. Nothing here touches process exit codes or flag parsing —
that's cmd/taskctl's job; this package returns plain Go values (a
*reconciler.Report, a config.TemplateTestResults, the delete sweep's
[]DeleteTarget, bool and []DeleteResult, or an error) for the caller to
map.
*/
package orchestrator
