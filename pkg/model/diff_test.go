package model

import "testing"

func containerWithEnv(pairs ...EnvPair) ContainerDefinition {
	return ContainerDefinition{
		"name":        "app",
		"image":       "repo/app:v1",
		"environment": pairs,
	}
}

func TestEquivalentEnvironmentOrderIrrelevant(t *testing.T) {
	a := []ContainerDefinition{containerWithEnv(
		EnvPair{Name: "ENVIRONMENT", Value: "stg"},
		EnvPair{Name: "CLUSTER_NAME", Value: "c1"},
	)}
	b := []ContainerDefinition{containerWithEnv(
		EnvPair{Name: "CLUSTER_NAME", Value: "c1"},
		EnvPair{Name: "ENVIRONMENT", Value: "stg"},
	)}

	if !Equivalent(a, b) {
		t.Fatalf("expected permuted environment lists to be equivalent")
	}
}

func TestEquivalentEmptyListKeyIsAbsent(t *testing.T) {
	a := []ContainerDefinition{{
		"name":       "app",
		"mountPoints": []any{},
	}}
	b := []ContainerDefinition{{
		"name": "app",
	}}

	if !Equivalent(a, b) {
		t.Fatalf("expected empty-list key to be treated as absent")
	}
}

func TestEquivalentDetectsRealChange(t *testing.T) {
	a := []ContainerDefinition{{"name": "app", "image": "repo/app:v1"}}
	b := []ContainerDefinition{{"name": "app", "image": "repo/app:v2"}}

	if Equivalent(a, b) {
		t.Fatalf("expected image tag change to be detected")
	}
}

func TestEquivalentLengthMismatch(t *testing.T) {
	a := []ContainerDefinition{{"name": "app"}}
	b := []ContainerDefinition{{"name": "app"}, {"name": "sidecar"}}

	if Equivalent(a, b) {
		t.Fatalf("expected different container counts to be non-equivalent")
	}
}

func TestDiffReportsUnchanged(t *testing.T) {
	a := []ContainerDefinition{{"name": "app", "image": "repo/app:v1"}}
	b := []ContainerDefinition{{"name": "app", "image": "repo/app:v1"}}

	if got := Diff(a, b); got != "Container Definition is not changed" {
		t.Fatalf("unexpected diff report: %q", got)
	}
}

func TestDiffReportsChange(t *testing.T) {
	a := []ContainerDefinition{{"name": "app", "image": "repo/app:v1"}}
	b := []ContainerDefinition{{"name": "app", "image": "repo/app:v2"}}

	got := Diff(a, b)
	if got == "Container Definition is not changed" {
		t.Fatalf("expected a change report, got unchanged")
	}
}
