package model

import "fmt"

// ContainerDefinition is an opaque mapping of ECS container-definition keys
// to scalars, lists, and nested mappings. We keep it as a generic map
// rather than a fixed struct because the template library and the control
// plane both treat it as free-form JSON; only a handful of keys (notably
// "environment") are semantically interpreted anywhere in this package.
type ContainerDefinition map[string]any

// EnvPair is a single {name, value} entry in a container's "environment"
// list, matching the control plane's wire shape.
type EnvPair struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// TaskDefinition is the desired or observed shape of an ECS task
// definition: a family name, the ordered container definitions that make
// up the task, and the handful of Fargate-style passthrough fields the
// tool preserves but never interprets.
type TaskDefinition struct {
	Family                  string
	ContainerDefinitions    []ContainerDefinition
	TaskRoleArn             string
	ExecutionRoleArn        string
	NetworkMode             string
	RequiresCompatibilities []string
	CPU                     string
	Memory                  string

	// Arn is populated once the definition has been registered with the
	// control plane; empty for a purely desired (unregistered) value.
	Arn string
}

// Environment extracts the first container's "environment" list into a
// TaskEnvironment, applying the key requirements for the given Kind.
// Missing required keys fail with the taxonomy errors in errors.go.
func (td *TaskDefinition) Environment(kind EnvironmentKind) (TaskEnvironment, error) {
	if len(td.ContainerDefinitions) == 0 {
		return TaskEnvironment{}, ErrNoContainers
	}
	return parseTaskEnvironment(td.ContainerDefinitions[0], kind)
}

func (td TaskDefinition) String() string {
	return fmt.Sprintf("%s (%d container(s))", td.Family, len(td.ContainerDefinitions))
}

// envList returns the "environment" key of a container definition decoded
// into EnvPair entries, tolerating both the []EnvPair shape produced by
// this package and the []any/map[string]any shape produced by decoding
// raw JSON from the control plane or a rendered template.
func envList(cd ContainerDefinition) []EnvPair {
	raw, ok := cd["environment"]
	if !ok || raw == nil {
		return nil
	}
	switch v := raw.(type) {
	case []EnvPair:
		return v
	case []any:
		out := make([]EnvPair, 0, len(v))
		for _, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			name, _ := m["name"].(string)
			value, _ := m["value"].(string)
			out = append(out, EnvPair{Name: name, Value: value})
		}
		return out
	default:
		return nil
	}
}
