package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/cuemby/taskctl/pkg/model"
	"github.com/cuemby/taskctl/pkg/render"
)

// LoadLegacy implements the legacy directory-of-templates mode: a single
// flat config.json supplies the variable scope for every template in
// templateDir, which is scanned non-recursively and
// processed in lexical filename order (matching the original tool's
// os.listdir + sequential-render behavior). Legacy mode predates
// scheduledTasks, stopBeforeDeploy, placementStrategy, placementConstraints
// and loadBalancers, so none of those are populated here.
func LoadLegacy(templateDir, configJSONPath string, opts Options) (*Result, error) {
	scope, err := readLegacyConfigJSON(configJSONPath)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(templateDir)
	if err != nil {
		return nil, fmt.Errorf("config: read template dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var services []*model.Service
	for _, name := range names {
		svc, err := buildLegacyService(templateDir, name, scope, opts)
		if err != nil {
			return nil, fmt.Errorf("config: template %q: %w", name, err)
		}
		services = append(services, svc)
	}

	if err := checkDuplicateFamilies(services, nil); err != nil {
		return nil, err
	}

	deploy := filterServices(services, opts)
	return &Result{
		AllServices:       services,
		DeployServices:    deploy,
	}, nil
}

func readLegacyConfigJSON(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read legacy config json: %w", err)
	}
	var scope map[string]any
	if err := json.Unmarshal(data, &scope); err != nil {
		return nil, fmt.Errorf("config: parse legacy config json: %w", err)
	}
	return scope, nil
}

func buildLegacyService(templateDir, fileName string, scope map[string]any, opts Options) (*model.Service, error) {
	templateText, err := os.ReadFile(filepath.Join(templateDir, fileName))
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}
	rendered, err := render.Render(string(templateText), scope, opts.IncludeProcessEnv)
	if err != nil {
		return nil, err
	}
	taskDef, err := decodeTaskDefinition(rendered)
	if err != nil {
		return nil, err
	}

	taskEnv, err := taskDef.Environment(model.EnvironmentService)
	if err != nil {
		return nil, err
	}

	return &model.Service{
		Family:          taskDef.Family,
		ServiceName:     taskDef.Family + "-service",
		Cluster:         taskEnv.ClusterName,
		TaskEnvironment: taskEnv,
		TaskDefinition:  taskDef,
		ServiceGroup:    taskEnv.ServiceGroup,
		TemplateGroup:   taskEnv.TemplateGroup,
		DesiredCount:    taskEnv.DesiredCount,
	}, nil
}
