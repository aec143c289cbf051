// Package model holds the typed domain entities reconciled by taskctl:
// task definitions, the derived task environment, services, scheduled
// tasks, and the observed (live) counterparts of each. It also owns the
// container-definition diffing logic that decides whether a task
// definition actually changed.
package model
