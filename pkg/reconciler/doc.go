/*
Package reconciler drives the phased reconciliation pipeline that turns a
config.Result into live ECS services and EventBridge-scheduled tasks: fetch
the observed world, classify it against desired state, delete what's
unused, diff task definitions, partition services into deploy buckets, then
stop, deploy, and restart in the order the bucket rules require.

Each phase is a call to runPhase, which enqueues one job per record into a
conc/pool worker pool bounded by Options.Threads and blocks until every job
completes. A job's error, or a recovered panic, flips that record's Status
to StatusError and short-circuits it out of every later phase via
notErrored — one bad record never aborts the run for the rest.

Engine.Run wires the eleven phases in sequence; dry-run mode stops after
check-deploy and never calls a mutating cloudapi method.
*/
package reconciler
