package model

import "testing"

func envContainer(pairs ...EnvPair) ContainerDefinition {
	return ContainerDefinition{"environment": pairs}
}

func TestParseTaskEnvironmentServiceRequiredKeys(t *testing.T) {
	cd := envContainer(
		EnvPair{Name: "ENVIRONMENT", Value: "stg"},
		EnvPair{Name: "CLUSTER_NAME", Value: "main"},
		EnvPair{Name: "DESIRED_COUNT", Value: "2"},
	)
	env, err := parseTaskEnvironment(cd, EnvironmentService)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.DesiredCount != 2 || env.MinimumHealthyPercent != DefaultMinimumHealthyPercent {
		t.Fatalf("unexpected env: %+v", env)
	}
}

func TestParseTaskEnvironmentMissingDesiredCount(t *testing.T) {
	cd := envContainer(
		EnvPair{Name: "ENVIRONMENT", Value: "stg"},
		EnvPair{Name: "CLUSTER_NAME", Value: "main"},
	)
	if _, err := parseTaskEnvironment(cd, EnvironmentService); err != ErrMissingDesiredCount {
		t.Fatalf("expected ErrMissingDesiredCount, got %v", err)
	}
}

func TestParseTaskEnvironmentScheduledTaskRequiredKeys(t *testing.T) {
	cd := envContainer(
		EnvPair{Name: "ENVIRONMENT", Value: "stg"},
		EnvPair{Name: "CLUSTER_NAME", Value: "main"},
		EnvPair{Name: "TASK_COUNT", Value: "1"},
		EnvPair{Name: "TARGET_LAMBDA_ARN", Value: "arn:aws:lambda:x"},
	)
	env, err := parseTaskEnvironment(cd, EnvironmentScheduledTask)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.TaskCount != 1 || env.TargetLambdaArn == "" {
		t.Fatalf("unexpected env: %+v", env)
	}
}

func TestParseTaskEnvironmentOptionalOverrides(t *testing.T) {
	cd := envContainer(
		EnvPair{Name: "ENVIRONMENT", Value: "stg"},
		EnvPair{Name: "CLUSTER_NAME", Value: "main"},
		EnvPair{Name: "DESIRED_COUNT", Value: "1"},
		EnvPair{Name: "MINIMUM_HEALTHY_PERCENT", Value: "75"},
		EnvPair{Name: "MAXIMUM_PERCENT", Value: "150"},
		EnvPair{Name: "DISTINCT_INSTANCE", Value: "true"},
	)
	env, err := parseTaskEnvironment(cd, EnvironmentService)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.MinimumHealthyPercent != 75 || env.MaximumPercent != 150 || !env.DistinctInstance {
		t.Fatalf("unexpected env: %+v", env)
	}
}

func TestEnvironmentNoContainers(t *testing.T) {
	td := &TaskDefinition{}
	if _, err := td.Environment(EnvironmentService); err != ErrNoContainers {
		t.Fatalf("expected ErrNoContainers, got %v", err)
	}
}
