package model

// ScheduleState mirrors the EventRule's enabled/disabled state.
type ScheduleState string

const (
	ScheduleEnabled  ScheduleState = "enabled"
	ScheduleDisabled ScheduleState = "disabled"
)

// ManagedByMarker is the literal description every EventRule created by
// taskctl carries, and the only filter used to decide whether a live rule
// is owned by this tool.
const ManagedByMarker = "MANAGED BY TASK MANAGER"

// ScheduledTask is the desired-state record for a cron/rate-scheduled
// serverless invocation.
type ScheduledTask struct {
	Family             string
	Cluster            string
	TaskEnvironment    TaskEnvironment
	TaskDefinition     TaskDefinition
	ScheduleExpression string
	TargetLambdaArn    string
	PlacementStrategy  []PlacementStrategy
	State              ScheduleState
	Disabled           bool
	ServiceGroup       string
	TemplateGroup      string

	// Mutable, populated by fetch / check-deploy / deploy.
	OriginTaskDefinitionArn string
	TaskExists              bool
	IsSameTaskDefinition    *bool
	Status                  Status
	Err                     error
}

func (t *ScheduledTask) CheckDeploy(originDefs []ContainerDefinition) string {
	same := Equivalent(originDefs, t.TaskDefinition.ContainerDefinitions)
	t.IsSameTaskDefinition = &same
	return Diff(originDefs, t.TaskDefinition.ContainerDefinitions)
}

func (t *ScheduledTask) MarkError(err error) {
	t.Status = StatusError
	t.Err = err
}

// IsErrored reports whether a prior phase already flipped this record to
// StatusError.
func (t *ScheduledTask) IsErrored() bool {
	return t.Status == StatusError
}
