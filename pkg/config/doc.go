// Package config implements the two input modes: the
// modern services.yaml + environment.yaml pair, and the legacy templates
// directory + config.json pair. Both modes resolve to the same output —
// two lists, allServices and allScheduledTasks — built by rendering each
// entry's task-definition template against a per-entry variable scope
// computed by layered overlay.
package config
