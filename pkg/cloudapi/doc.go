/*
Package cloudapi wraps the AWS SDK v2 ECS, EventBridge and Lambda clients
behind a small set of operations the reconciliation engine needs: fetch,
register/deregister task definitions, create/update/delete services, wait
for steady state, and the scheduled-task equivalents (rules, targets,
permissions, run-task lifecycle).

Every throttle-prone call is routed through retry.go's withRetry, which
classifies AWS error codes via errors.go and retries ErrThrottled with a
jittered backoff. Everything else — NotFound, validation errors, anything
unclassified — propagates to the caller unwrapped by the retry loop.

A Client holds one handle per underlying SDK client so the reconciliation
engine's worker pool can hand each running job its own Client from a
small pool, never one that another running job holds.
*/
package cloudapi
