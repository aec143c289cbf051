package config

// ServicesYAML is the top-level shape of services.yaml.
type ServicesYAML struct {
	TaskDefinitionTemplates map[string]string        `yaml:"taskDefinitionTemplates"`
	Services                map[string]ServiceConfig `yaml:"services"`
	ScheduledTasks          map[string]TaskConfig     `yaml:"scheduledTasks"`
}

// ServiceConfig is one entry of services.yaml's "services" map.
type ServiceConfig struct {
	Cluster                       string           `yaml:"cluster"`
	DesiredCount                  any              `yaml:"desiredCount"`
	TaskDefinitionTemplate        string           `yaml:"taskDefinitionTemplate"`
	Vars                          map[string]any   `yaml:"vars"`
	Registrator                   any              `yaml:"registrator"`
	ServiceGroup                  string           `yaml:"serviceGroup"`
	TemplateGroup                 string           `yaml:"templateGroup"`
	MinimumHealthyPercent         any              `yaml:"minimumHealthyPercent"`
	MaximumPercent                any              `yaml:"maximumPercent"`
	DistinctInstance              any              `yaml:"distinctInstance"`
	PlacementStrategy             []map[string]any `yaml:"placementStrategy"`
	PlacementConstraints          []map[string]any `yaml:"placementConstraints"`
	LoadBalancers                 []map[string]any `yaml:"loadBalancers"`
	StopBeforeDeploy              any              `yaml:"stopBeforeDeploy"`
	IsPrimaryPlacement            any              `yaml:"isPrimaryPlacement"`
	Disabled                      any              `yaml:"disabled"`
	HealthCheckGracePeriodSeconds any              `yaml:"healthCheckGracePeriodSeconds"`
	PlatformVersion               string           `yaml:"platformVersion"`
}

// CloudwatchEvent is the nested schedule descriptor of a TaskConfig.
type CloudwatchEvent struct {
	ScheduleExpression string `yaml:"scheduleExpression"`
	TargetLambdaArn    string `yaml:"targetLambdaArn"`
}

// TaskConfig is one entry of services.yaml's "scheduledTasks" map.
type TaskConfig struct {
	Cluster                string           `yaml:"cluster"`
	TaskCount              any              `yaml:"taskCount"`
	TaskDefinitionTemplate string           `yaml:"taskDefinitionTemplate"`
	CloudwatchEvent        CloudwatchEvent  `yaml:"cloudwatchEvent"`
	PlacementStrategy      []map[string]any `yaml:"placementStrategy"`
	Vars                   map[string]any   `yaml:"vars"`
	Disabled               any              `yaml:"disabled"`
	ServiceGroup           string           `yaml:"serviceGroup"`
	TemplateGroup          string           `yaml:"templateGroup"`
}

// EnvironmentYAML is the shape of environment.yaml: a name,
// a top-level overlay applied to every service/task, and per-service /
// per-task override maps.
type EnvironmentYAML struct {
	Environment    string                    `yaml:"environment"`
	Config         map[string]any            `yaml:",inline"`
	Services       map[string]map[string]any `yaml:"services"`
	ScheduledTasks map[string]map[string]any `yaml:"scheduledTasks"`
}

// Legacy mode's config.json decodes directly into a map[string]any (it
// carries no per-service scoping, so there is no struct shape to declare
// beyond "a flat bag of variables" — see LoadLegacy in legacy.go).
