package config

import (
	"fmt"
	"os"

	"github.com/cuemby/taskctl/pkg/model"
	"github.com/cuemby/taskctl/pkg/render"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// Options carries the CLI-level knobs that affect loading: the
// --task-definition-config-env overlay and the --template-group /
// --deploy-service-group filters applied after loading.
type Options struct {
	IncludeProcessEnv  bool
	TemplateGroup      string
	DeployServiceGroup string
}

// Result is the output of a load: the two full lists, plus the filtered
// deployTargets view.
type Result struct {
	AllServices          []*model.Service
	AllScheduledTasks    []*model.ScheduledTask
	DeployServices       []*model.Service
	DeployScheduledTasks []*model.ScheduledTask
}

// LoadModern parses services.yaml + environment.yaml and builds the two
// desired-state lists.
func LoadModern(servicesYAMLPath, environmentYAMLPath string, opts Options) (*Result, error) {
	svcYAML, err := readServicesYAML(servicesYAMLPath)
	if err != nil {
		return nil, err
	}
	envYAML, err := readEnvironmentYAML(environmentYAMLPath)
	if err != nil {
		return nil, err
	}

	var services []*model.Service
	for name, cfg := range svcYAML.Services {
		svc, disabled, err := buildService(name, cfg, svcYAML, envYAML, opts)
		if err != nil {
			return nil, fmt.Errorf("config: service %q: %w", name, err)
		}
		if disabled {
			continue
		}
		services = append(services, svc)
	}

	var tasks []*model.ScheduledTask
	for name, cfg := range svcYAML.ScheduledTasks {
		task, disabled, err := buildScheduledTask(name, cfg, svcYAML, envYAML, opts)
		if err != nil {
			return nil, fmt.Errorf("config: scheduled task %q: %w", name, err)
		}
		if disabled {
			continue
		}
		tasks = append(tasks, task)
	}

	if err := checkDuplicateFamilies(services, tasks); err != nil {
		return nil, err
	}

	return &Result{
		AllServices:          services,
		AllScheduledTasks:    tasks,
		DeployServices:       filterServices(services, opts),
		DeployScheduledTasks: filterScheduledTasks(tasks, opts),
	}, nil
}

func readServicesYAML(path string) (*ServicesYAML, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read services yaml: %w", err)
	}
	var out ServicesYAML
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("config: parse services yaml: %w", err)
	}
	return &out, nil
}

func readEnvironmentYAML(path string) (*EnvironmentYAML, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read environment yaml: %w", err)
	}
	var out EnvironmentYAML
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("config: parse environment yaml: %w", err)
	}
	// "environment" has its own struct field, so yaml's inline catch-all
	// never sees it; fold it back in so templates can reference {{
	// .environment }} like any other top-level key.
	if out.Config == nil {
		out.Config = map[string]any{}
	}
	out.Config["environment"] = out.Environment
	return &out, nil
}

// structToMap marshals a YAML-tagged struct to a plain map[string]any via
// a YAML round trip, so the layered-overlay merge in vars.go can treat the
// base config the same way as the environment override maps.
func structToMap(v any) (map[string]any, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func withoutVars(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if k == "vars" {
			continue
		}
		out[k] = v
	}
	return out
}

func buildService(name string, cfg ServiceConfig, svcYAML *ServicesYAML, envYAML *EnvironmentYAML, opts Options) (*model.Service, bool, error) {
	baseMap, err := structToMap(cfg)
	if err != nil {
		return nil, false, err
	}
	baseConfig := withoutVars(baseMap)
	baseVars := cfg.Vars

	envOverride := envYAML.Services[name]
	envOverrideConfig := withoutVars(envOverride)
	envOverrideVars, _ := envOverride["vars"].(map[string]any)

	scope, err := mergeScope(baseConfig, baseVars, envYAML.Config, envOverrideConfig, envOverrideVars)
	if err != nil {
		return nil, false, err
	}

	disabled, err := optionalBool(scope, "disabled", false)
	if err != nil {
		return nil, false, err
	}
	if disabled {
		return nil, true, nil
	}

	cluster, err := requireString(scope, "cluster")
	if err != nil {
		return nil, false, err
	}
	desiredCount, err := requireInt(scope, "desiredCount")
	if err != nil {
		return nil, false, err
	}
	templateName, err := requireString(scope, "taskDefinitionTemplate")
	if err != nil {
		return nil, false, err
	}

	minHealthy, err := optionalInt(scope, "minimumHealthyPercent", model.DefaultMinimumHealthyPercent)
	if err != nil {
		return nil, false, err
	}
	maxPercent, err := optionalInt(scope, "maximumPercent", model.DefaultMaximumPercent)
	if err != nil {
		return nil, false, err
	}
	distinctInstance, err := optionalBool(scope, "distinctInstance", model.DefaultDistinctInstance)
	if err != nil {
		return nil, false, err
	}
	if _, ok := scope["registrator"]; ok {
		if _, err := optionalBool(scope, "registrator", false); err != nil {
			return nil, false, err
		}
	}
	stopBeforeDeploy, err := optionalBool(scope, "stopBeforeDeploy", false)
	if err != nil {
		return nil, false, err
	}
	isPrimaryPlacement, err := optionalBool(scope, "isPrimaryPlacement", false)
	if err != nil {
		return nil, false, err
	}
	healthCheckGracePeriod, err := optionalInt(scope, "healthCheckGracePeriodSeconds", 0)
	if err != nil {
		return nil, false, err
	}
	platformVersion := stringOrField(scope, "platformVersion")

	templateText, ok := svcYAML.TaskDefinitionTemplates[templateName]
	if !ok {
		return nil, false, fmt.Errorf("%w: no such taskDefinitionTemplate %q", ErrParameterNotFound, templateName)
	}
	rendered, err := render.Render(templateText, scope, opts.IncludeProcessEnv)
	if err != nil {
		return nil, false, err
	}
	taskDef, err := decodeTaskDefinition(rendered)
	if err != nil {
		return nil, false, err
	}
	taskDef.Family = name

	taskEnv, err := taskDef.Environment(model.EnvironmentService)
	if err != nil {
		return nil, false, err
	}

	svc := &model.Service{
		Family:               name,
		ServiceName:          name + "-service",
		Cluster:              cluster,
		TaskEnvironment:      taskEnv,
		TaskDefinition:       taskDef,
		PlacementStrategy:    toPlacementStrategy(cfg.PlacementStrategy),
		PlacementConstraints: toPlacementConstraint(cfg.PlacementConstraints),
		LoadBalancers:        toLoadBalancer(cfg.LoadBalancers),
		StopBeforeDeploy:     stopBeforeDeploy,
		IsPrimaryPlacement:   isPrimaryPlacement,
		ServiceGroup:         stringOrField(scope, "serviceGroup"),
		TemplateGroup:        stringOrField(scope, "templateGroup"),

		HealthCheckGracePeriodSeconds: healthCheckGracePeriod,
		PlatformVersion:               platformVersion,
	}
	svc.TaskEnvironment.DesiredCount = desiredCount
	svc.TaskEnvironment.MinimumHealthyPercent = minHealthy
	svc.TaskEnvironment.MaximumPercent = maxPercent
	svc.TaskEnvironment.DistinctInstance = distinctInstance
	svc.DesiredCount = desiredCount
	return svc, false, nil
}

func buildScheduledTask(name string, cfg TaskConfig, svcYAML *ServicesYAML, envYAML *EnvironmentYAML, opts Options) (*model.ScheduledTask, bool, error) {
	baseMap, err := structToMap(cfg)
	if err != nil {
		return nil, false, err
	}
	baseConfig := withoutVars(baseMap)
	baseVars := cfg.Vars

	envOverride := envYAML.ScheduledTasks[name]
	envOverrideConfig := withoutVars(envOverride)
	envOverrideVars, _ := envOverride["vars"].(map[string]any)

	scope, err := mergeScope(baseConfig, baseVars, envYAML.Config, envOverrideConfig, envOverrideVars)
	if err != nil {
		return nil, false, err
	}

	disabled, err := optionalBool(scope, "disabled", false)
	if err != nil {
		return nil, false, err
	}
	if disabled {
		return nil, true, nil
	}

	cluster, err := requireString(scope, "cluster")
	if err != nil {
		return nil, false, err
	}
	taskCount, err := requireInt(scope, "taskCount")
	if err != nil {
		return nil, false, err
	}
	templateName, err := requireString(scope, "taskDefinitionTemplate")
	if err != nil {
		return nil, false, err
	}

	templateText, ok := svcYAML.TaskDefinitionTemplates[templateName]
	if !ok {
		return nil, false, fmt.Errorf("%w: no such taskDefinitionTemplate %q", ErrParameterNotFound, templateName)
	}
	rendered, err := render.Render(templateText, scope, opts.IncludeProcessEnv)
	if err != nil {
		return nil, false, err
	}
	taskDef, err := decodeTaskDefinition(rendered)
	if err != nil {
		return nil, false, err
	}
	taskDef.Family = name

	taskEnv, err := taskDef.Environment(model.EnvironmentScheduledTask)
	if err != nil {
		return nil, false, err
	}
	taskEnv.TaskCount = taskCount

	task := &model.ScheduledTask{
		Family:             name,
		Cluster:            cluster,
		TaskEnvironment:    taskEnv,
		TaskDefinition:     taskDef,
		ScheduleExpression: cfg.CloudwatchEvent.ScheduleExpression,
		TargetLambdaArn:    cfg.CloudwatchEvent.TargetLambdaArn,
		PlacementStrategy:  toPlacementStrategy(cfg.PlacementStrategy),
		State:              model.ScheduleEnabled,
		ServiceGroup:       stringOrField(scope, "serviceGroup"),
		TemplateGroup:      stringOrField(scope, "templateGroup"),
	}
	return task, false, nil
}

func checkDuplicateFamilies(services []*model.Service, tasks []*model.ScheduledTask) error {
	seen := map[string]bool{}
	for _, s := range services {
		if seen[s.Family] {
			return fmt.Errorf("%w: %s", ErrDuplicateFamilyName, s.Family)
		}
		seen[s.Family] = true
	}
	for _, t := range tasks {
		if seen[t.Family] {
			return fmt.Errorf("%w: %s", ErrDuplicateFamilyName, t.Family)
		}
		seen[t.Family] = true
	}
	return nil
}

func filterServices(services []*model.Service, opts Options) []*model.Service {
	return lo.Filter(services, func(s *model.Service, _ int) bool {
		return matchesGroup(s.TemplateGroup, opts.TemplateGroup) && matchesGroup(s.ServiceGroup, opts.DeployServiceGroup)
	})
}

func filterScheduledTasks(tasks []*model.ScheduledTask, opts Options) []*model.ScheduledTask {
	return lo.Filter(tasks, func(t *model.ScheduledTask, _ int) bool {
		return matchesGroup(t.TemplateGroup, opts.TemplateGroup) && matchesGroup(t.ServiceGroup, opts.DeployServiceGroup)
	})
}

func matchesGroup(value, filter string) bool {
	return filter == "" || value == filter
}

func stringOrField(scope map[string]any, key string) string {
	s, _ := scope[key].(string)
	return s
}

func toPlacementStrategy(in []map[string]any) []model.PlacementStrategy {
	return lo.Map(in, func(m map[string]any, _ int) model.PlacementStrategy { return model.PlacementStrategy(m) })
}

func toPlacementConstraint(in []map[string]any) []model.PlacementConstraint {
	return lo.Map(in, func(m map[string]any, _ int) model.PlacementConstraint { return model.PlacementConstraint(m) })
}

func toLoadBalancer(in []map[string]any) []model.LoadBalancer {
	return lo.Map(in, func(m map[string]any, _ int) model.LoadBalancer { return model.LoadBalancer(m) })
}
