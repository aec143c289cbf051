package reconciler

import (
	"github.com/cuemby/taskctl/pkg/config"
	"github.com/cuemby/taskctl/pkg/model"
)

// deleteServiceTarget names a live service classify decided has no
// matching desired record and so belongs in deleteServices.
type deleteServiceTarget struct {
	Cluster     string
	ServiceName string
}

// deleteScheduledTaskTarget names a live managed rule with no matching
// desired scheduled task.
type deleteScheduledTaskTarget struct {
	Rule       model.EventRule
	TaskDefArn string
}

// classify is phase 2: orchestrator-local, single-threaded. It binds
// every observed record to its matching desired record by
// (cluster, serviceName) for services / family for scheduled tasks,
// writing the observed fields back onto the desired model.Service or
// model.ScheduledTask. Observed records that match the target
// environment/template-group but bind to nothing go to deleteServices /
// deleteScheduledTasks.
func (e *Engine) classify(result *config.Result, observedServices []observedService, observedTasks []observedScheduledTask, targetEnvironment, templateGroup string) ([]deleteServiceTarget, []deleteScheduledTaskTarget) {
	desiredByKey := make(map[string]*model.Service, len(result.AllServices))
	for _, s := range result.AllServices {
		desiredByKey[s.Cluster+"/"+s.ServiceName] = s
	}

	var deleteServices []deleteServiceTarget
	for _, obs := range observedServices {
		key := obs.Cluster + "/" + obs.Name
		if desired, ok := desiredByKey[key]; ok {
			bindService(desired, obs)
			continue
		}
		if matchesScope(obs.HasEnv, obs.Environment.Environment, obs.Environment.TemplateGroup, targetEnvironment, templateGroup) {
			deleteServices = append(deleteServices, deleteServiceTarget{Cluster: obs.Cluster, ServiceName: obs.Name})
		}
	}

	desiredTaskByFamily := make(map[string]*model.ScheduledTask, len(result.AllScheduledTasks))
	for _, t := range result.AllScheduledTasks {
		desiredTaskByFamily[t.Family] = t
	}

	var deleteScheduledTasks []deleteScheduledTaskTarget
	for _, obs := range observedTasks {
		family := families(obs.TaskDef)
		if desired, ok := desiredTaskByFamily[family]; ok {
			bindScheduledTask(desired, obs)
			continue
		}
		if matchesScope(obs.HasEnv, obs.Environment.Environment, obs.Environment.TemplateGroup, targetEnvironment, templateGroup) {
			deleteScheduledTasks = append(deleteScheduledTasks, deleteScheduledTaskTarget{Rule: obs.Rule, TaskDefArn: obs.TaskDefArn})
		}
	}

	return deleteServices, deleteScheduledTasks
}

func families(td *model.TaskDefinition) string {
	if td == nil {
		return ""
	}
	return td.Family
}

func bindService(desired *model.Service, obs observedService) {
	desired.OriginServiceExists = true
	desired.OriginTaskDefinitionArn = obs.TaskDefArn
	desired.OriginTaskDefinition = obs.TaskDef
	desired.OriginDesiredCount = obs.Describe.DesiredCount
	desired.RunningCount = obs.Describe.RunningCount
}

func bindScheduledTask(desired *model.ScheduledTask, obs observedScheduledTask) {
	desired.TaskExists = true
	desired.OriginTaskDefinitionArn = obs.TaskDefArn
}

// matchesScope decides whether an observed, unbound record is "ours" for
// this environment/template-group and so eligible for deleteServices
// rather than silently ignored as someone else's resource.
func matchesScope(hasEnv bool, environment, templateGroup, targetEnvironment, targetTemplateGroup string) bool {
	if !hasEnv {
		return false
	}
	if environment != targetEnvironment {
		return false
	}
	if targetTemplateGroup != "" && templateGroup != targetTemplateGroup {
		return false
	}
	return true
}
