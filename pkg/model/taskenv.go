package model

import "strconv"

// EnvironmentKind selects which required keys a TaskEnvironment must carry:
// a long-running Service additionally requires DESIRED_COUNT, a
// ScheduledTask additionally requires TASK_COUNT and TARGET_LAMBDA_ARN.
type EnvironmentKind int

const (
	EnvironmentService EnvironmentKind = iota
	EnvironmentScheduledTask
)

// Defaults for optional TaskEnvironment fields.
const (
	DefaultMinimumHealthyPercent = 50
	DefaultMaximumPercent        = 200
	DefaultDistinctInstance      = false
)

// TaskEnvironment is the set of environment variables taskctl reads back
// off a task definition to re-identify and configure its own resources.
type TaskEnvironment struct {
	Environment  string
	ClusterName  string
	DesiredCount int // services only
	TaskCount    int // scheduled tasks only

	ServiceGroup          string
	TemplateGroup         string
	MinimumHealthyPercent int
	MaximumPercent        int
	DistinctInstance      bool

	TargetLambdaArn string // scheduled tasks only
}

func parseTaskEnvironment(cd ContainerDefinition, kind EnvironmentKind) (TaskEnvironment, error) {
	vars := map[string]string{}
	for _, pair := range envList(cd) {
		vars[pair.Name] = pair.Value
	}

	env := TaskEnvironment{
		MinimumHealthyPercent: DefaultMinimumHealthyPercent,
		MaximumPercent:        DefaultMaximumPercent,
		DistinctInstance:      DefaultDistinctInstance,
	}

	var ok bool
	if env.Environment, ok = vars["ENVIRONMENT"]; !ok {
		return TaskEnvironment{}, ErrMissingEnvironment
	}
	if env.ClusterName, ok = vars["CLUSTER_NAME"]; !ok {
		return TaskEnvironment{}, ErrMissingClusterName
	}

	switch kind {
	case EnvironmentService:
		raw, ok := vars["DESIRED_COUNT"]
		if !ok {
			return TaskEnvironment{}, ErrMissingDesiredCount
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return TaskEnvironment{}, ErrInvalidDesiredCount
		}
		env.DesiredCount = n
	case EnvironmentScheduledTask:
		rawCount, ok := vars["TASK_COUNT"]
		if !ok {
			return TaskEnvironment{}, ErrMissingTaskCount
		}
		n, err := strconv.Atoi(rawCount)
		if err != nil {
			return TaskEnvironment{}, ErrInvalidTaskCount
		}
		env.TaskCount = n

		if env.TargetLambdaArn, ok = vars["TARGET_LAMBDA_ARN"]; !ok {
			return TaskEnvironment{}, ErrMissingLambdaArn
		}
	}

	env.ServiceGroup = vars["SERVICE_GROUP"]
	env.TemplateGroup = vars["TEMPLATE_GROUP"]

	if raw, ok := vars["MINIMUM_HEALTHY_PERCENT"]; ok {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return TaskEnvironment{}, ErrInvalidMinHealthyPct
		}
		env.MinimumHealthyPercent = n
	}
	if raw, ok := vars["MAXIMUM_PERCENT"]; ok {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return TaskEnvironment{}, ErrInvalidMaxPercent
		}
		env.MaximumPercent = n
	}
	if raw, ok := vars["DISTINCT_INSTANCE"]; ok {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return TaskEnvironment{}, ErrInvalidDistinctInst
		}
		env.DistinctInstance = b
	}

	return env, nil
}
