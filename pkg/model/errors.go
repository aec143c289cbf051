package model

import "errors"

// Taxonomy errors produced while parsing a TaskEnvironment out of a
// registered (or about-to-be-registered) task definition. These are
// config errors: fatal at load/check-deploy time, never retried.
var (
	ErrMissingEnvironment   = errors.New("model: container environment is missing ENVIRONMENT")
	ErrMissingClusterName   = errors.New("model: container environment is missing CLUSTER_NAME")
	ErrMissingDesiredCount  = errors.New("model: container environment is missing DESIRED_COUNT")
	ErrMissingTaskCount     = errors.New("model: container environment is missing TASK_COUNT")
	ErrMissingLambdaArn     = errors.New("model: container environment is missing TARGET_LAMBDA_ARN")
	ErrNoContainers         = errors.New("model: task definition has no container definitions")
	ErrInvalidDesiredCount  = errors.New("model: DESIRED_COUNT is not an integer")
	ErrInvalidTaskCount     = errors.New("model: TASK_COUNT is not an integer")
	ErrInvalidMinHealthyPct = errors.New("model: MINIMUM_HEALTHY_PERCENT is not an integer")
	ErrInvalidMaxPercent    = errors.New("model: MAXIMUM_PERCENT is not an integer")
	ErrInvalidDistinctInst  = errors.New("model: DISTINCT_INSTANCE is not a boolean")
)
