package model

// Status is the terminal per-record outcome the reconciliation engine
// writes back once a record leaves the pipeline. A
// record in StatusError short-circuits every subsequent phase mode for
// that record.
type Status int

const (
	StatusNormal Status = iota
	StatusError
)

func (s Status) String() string {
	if s == StatusError {
		return "error"
	}
	return "normal"
}

// PlacementStrategy and PlacementConstraint are passed through to the
// control plane unexamined; they are opaque maps because their shape is
// entirely the cloud API's concern, not taskctl's.
type PlacementStrategy map[string]any
type PlacementConstraint map[string]any
type LoadBalancer map[string]any

// Service is the desired-state record for a long-running deployment
//. Fields above the blank line are immutable once built from
// config; fields below are written back by the fetch/check-deploy/deploy
// phases of the reconciliation engine, each phase owning a disjoint set
// of writes per the single-writer-at-a-time queue protocol.
type Service struct {
	Family               string
	ServiceName          string
	Cluster              string
	TaskEnvironment      TaskEnvironment
	TaskDefinition       TaskDefinition
	PlacementStrategy    []PlacementStrategy
	PlacementConstraints []PlacementConstraint
	LoadBalancers        []LoadBalancer
	StopBeforeDeploy     bool
	IsPrimaryPlacement   bool
	ServiceGroup         string
	TemplateGroup        string

	// HealthCheckGracePeriodSeconds and PlatformVersion are passthrough
	// fields recovered from original_source/ecs/service.py; taskctl
	// forwards them on create/update but never interprets them.
	HealthCheckGracePeriodSeconds int
	PlatformVersion               string

	// Mutable, populated by fetch / check-deploy / deploy / wait.
	OriginTaskDefinition    *TaskDefinition
	OriginTaskDefinitionArn string
	OriginServiceExists     bool
	OriginDesiredCount      int
	RunningCount            int
	DesiredCount            int
	TaskDefinitionArn       string
	IsSameTaskDefinition    *bool
	Status                  Status
	Err                     error
}

// Bucket classifies a desired service into one of the four deploy
// buckets, partitioned on (stopBeforeDeploy ∧ originDesired>0) ×
// isPrimaryPlacement.
type Bucket int

const (
	BucketRemainDeploy Bucket = iota
	BucketStopBefore
	BucketPrimaryDeploy
	BucketPrimaryStopBefore
)

func (s *Service) Bucket() Bucket {
	needsStopBefore := s.StopBeforeDeploy && s.OriginDesiredCount > 0
	switch {
	case needsStopBefore && s.IsPrimaryPlacement:
		return BucketPrimaryStopBefore
	case needsStopBefore:
		return BucketStopBefore
	case s.IsPrimaryPlacement:
		return BucketPrimaryDeploy
	default:
		return BucketRemainDeploy
	}
}

// CheckDeploy compares the origin (observed) task definition against the
// desired one and records IsSameTaskDefinition, satisfying the invariant
// "after checkDeploy, isSameTaskDefinition is defined".
func (s *Service) CheckDeploy() string {
	var originDefs []ContainerDefinition
	if s.OriginTaskDefinition != nil {
		originDefs = s.OriginTaskDefinition.ContainerDefinitions
	}
	same := Equivalent(originDefs, s.TaskDefinition.ContainerDefinitions)
	s.IsSameTaskDefinition = &same
	return Diff(originDefs, s.TaskDefinition.ContainerDefinitions)
}

// MutationKind is create iff the service did not exist when observed,
// update otherwise.
type MutationKind int

const (
	MutationCreate MutationKind = iota
	MutationUpdate
)

func (s *Service) MutationKind() MutationKind {
	if !s.OriginServiceExists {
		return MutationCreate
	}
	return MutationUpdate
}

// ResolveDesiredCount applies the serviceZeroKeep policy: when the origin
// desired count is zero and the operator enabled serviceZeroKeep, the
// update call keeps the service parked at zero instead of resurrecting it
// to the configured count.
func (s *Service) ResolveDesiredCount(serviceZeroKeep bool) int {
	if s.MutationKind() == MutationUpdate && serviceZeroKeep && s.OriginDesiredCount == 0 {
		return 0
	}
	return s.TaskEnvironment.DesiredCount
}

func (s *Service) MarkError(err error) {
	s.Status = StatusError
	s.Err = err
}

// IsErrored reports whether a prior phase already flipped this record to
// StatusError, the short-circuit the reconciliation engine checks before
// submitting a record to any later phase.
func (s *Service) IsErrored() bool {
	return s.Status == StatusError
}
