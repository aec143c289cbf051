package config

import (
	"encoding/json"
	"fmt"

	"github.com/cuemby/taskctl/pkg/model"
)

// renderedTaskDefinition is the JSON shape a rendered task-definition
// template decodes into: a family name, the ordered container
// definitions, and the Fargate-style passthrough fields taskctl carries
// but never interprets.
type renderedTaskDefinition struct {
	Family                  string                     `json:"family"`
	ContainerDefinitions    []model.ContainerDefinition `json:"containerDefinitions"`
	TaskRoleArn             string                     `json:"taskRoleArn"`
	ExecutionRoleArn        string                     `json:"executionRoleArn"`
	NetworkMode             string                     `json:"networkMode"`
	RequiresCompatibilities []string                   `json:"requiresCompatibilities"`
	CPU                     string                     `json:"cpu"`
	Memory                  string                     `json:"memory"`
}

func decodeTaskDefinition(rendered string) (model.TaskDefinition, error) {
	var rtd renderedTaskDefinition
	if err := json.Unmarshal([]byte(rendered), &rtd); err != nil {
		return model.TaskDefinition{}, fmt.Errorf("config: decode rendered task definition: %w", err)
	}
	return model.TaskDefinition{
		Family:                  rtd.Family,
		ContainerDefinitions:    rtd.ContainerDefinitions,
		TaskRoleArn:             rtd.TaskRoleArn,
		ExecutionRoleArn:        rtd.ExecutionRoleArn,
		NetworkMode:             rtd.NetworkMode,
		RequiresCompatibilities: rtd.RequiresCompatibilities,
		CPU:                     rtd.CPU,
		Memory:                  rtd.Memory,
	}, nil
}
