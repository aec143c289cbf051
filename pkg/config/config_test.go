package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

const servicesYAMLFixture = `
taskDefinitionTemplates:
  web: |
    {
      "family": "web",
      "containerDefinitions": [
        {
          "name": "app",
          "environment": [
            {"name": "ENVIRONMENT", "value": "{{ .environment }}"},
            {"name": "CLUSTER_NAME", "value": "{{ .cluster }}"},
            {"name": "DESIRED_COUNT", "value": "{{ .desiredCount }}"}
          ]
        }
      ]
    }
services:
  web:
    cluster: main
    desiredCount: 2
    taskDefinitionTemplate: web
    vars:
      greeting: hello
  disabled-web:
    cluster: main
    desiredCount: 1
    taskDefinitionTemplate: web
    disabled: true
scheduledTasks: {}
`

const environmentYAMLFixture = `
environment: stg
services: {}
scheduledTasks: {}
`

func TestLoadModernBuildsServiceFromTemplate(t *testing.T) {
	dir := t.TempDir()
	svcPath := writeFile(t, dir, "services.yaml", servicesYAMLFixture)
	envPath := writeFile(t, dir, "environment.yaml", environmentYAMLFixture)

	result, err := LoadModern(svcPath, envPath, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.AllServices) != 1 {
		t.Fatalf("expected disabled-web filtered out, got %d services", len(result.AllServices))
	}
	svc := result.AllServices[0]
	if svc.Family != "web" || svc.Cluster != "main" {
		t.Fatalf("unexpected service: %+v", svc)
	}
	if svc.TaskEnvironment.Environment != "stg" {
		t.Fatalf("expected environment.yaml's 'environment' key to flow into the scope, got %q", svc.TaskEnvironment.Environment)
	}
	if svc.DesiredCount != 2 {
		t.Fatalf("expected desiredCount 2, got %d", svc.DesiredCount)
	}
}

func TestLoadModernMissingRequiredKeyFails(t *testing.T) {
	dir := t.TempDir()
	const broken = `
taskDefinitionTemplates:
  web: "{}"
services:
  web:
    taskDefinitionTemplate: web
scheduledTasks: {}
`
	svcPath := writeFile(t, dir, "services.yaml", broken)
	envPath := writeFile(t, dir, "environment.yaml", environmentYAMLFixture)

	if _, err := LoadModern(svcPath, envPath, Options{}); err == nil {
		t.Fatal("expected error for missing cluster key")
	}
}

func TestLoadModernDuplicateFamilyNameFails(t *testing.T) {
	dir := t.TempDir()
	const dup = `
taskDefinitionTemplates:
  web: |
    {"family": "web", "containerDefinitions": [{"name": "app", "environment": [
      {"name": "ENVIRONMENT", "value": "stg"},
      {"name": "CLUSTER_NAME", "value": "main"},
      {"name": "DESIRED_COUNT", "value": "1"}
    ]}]}
  web-task: |
    {"family": "web", "containerDefinitions": [{"name": "app", "environment": [
      {"name": "ENVIRONMENT", "value": "stg"},
      {"name": "CLUSTER_NAME", "value": "main"},
      {"name": "TASK_COUNT", "value": "1"},
      {"name": "TARGET_LAMBDA_ARN", "value": "arn:aws:lambda:x"}
    ]}]}
services:
  web:
    cluster: main
    desiredCount: 1
    taskDefinitionTemplate: web
scheduledTasks:
  web:
    cluster: main
    taskCount: 1
    taskDefinitionTemplate: web-task
`
	svcPath := writeFile(t, dir, "services.yaml", dup)
	envPath := writeFile(t, dir, "environment.yaml", environmentYAMLFixture)

	_, err := LoadModern(svcPath, envPath, Options{})
	if err == nil {
		t.Fatal("expected duplicate family name error")
	}
}

func TestLoadModernFiltersByTemplateGroup(t *testing.T) {
	dir := t.TempDir()
	const grouped = `
taskDefinitionTemplates:
  web: |
    {"family": "{{ .name }}", "containerDefinitions": [{"name": "app", "environment": [
      {"name": "ENVIRONMENT", "value": "stg"},
      {"name": "CLUSTER_NAME", "value": "main"},
      {"name": "DESIRED_COUNT", "value": "1"},
      {"name": "TEMPLATE_GROUP", "value": "{{ .templateGroup }}"}
    ]}]}
services:
  a:
    cluster: main
    desiredCount: 1
    taskDefinitionTemplate: web
    templateGroup: blue
    vars:
      name: a
  b:
    cluster: main
    desiredCount: 1
    taskDefinitionTemplate: web
    templateGroup: green
    vars:
      name: b
scheduledTasks: {}
`
	svcPath := writeFile(t, dir, "services.yaml", grouped)
	envPath := writeFile(t, dir, "environment.yaml", environmentYAMLFixture)

	result, err := LoadModern(svcPath, envPath, Options{TemplateGroup: "blue"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.AllServices) != 2 {
		t.Fatalf("expected both services loaded, got %d", len(result.AllServices))
	}
	if len(result.DeployServices) != 1 || result.DeployServices[0].Family != "a" {
		t.Fatalf("expected only 'a' in deploy targets, got %+v", result.DeployServices)
	}
}

func TestLoadLegacyOrdersTemplatesLexically(t *testing.T) {
	dir := t.TempDir()
	configPath := writeFile(t, dir, "config.json", `{"environment": "stg", "cluster": "main"}`)

	templateDir := t.TempDir()
	writeFile(t, templateDir, "b-service.json", `{"family": "b", "containerDefinitions": [{"name": "app", "environment": [
		{"name": "ENVIRONMENT", "value": "{{ .environment }}"},
		{"name": "CLUSTER_NAME", "value": "{{ .cluster }}"},
		{"name": "DESIRED_COUNT", "value": "1"}
	]}]}`)
	writeFile(t, templateDir, "a-service.json", `{"family": "a", "containerDefinitions": [{"name": "app", "environment": [
		{"name": "ENVIRONMENT", "value": "{{ .environment }}"},
		{"name": "CLUSTER_NAME", "value": "{{ .cluster }}"},
		{"name": "DESIRED_COUNT", "value": "1"}
	]}]}`)

	result, err := LoadLegacy(templateDir, configPath, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.AllServices) != 2 {
		t.Fatalf("expected 2 services, got %d", len(result.AllServices))
	}
	if result.AllServices[0].Family != "a" || result.AllServices[1].Family != "b" {
		t.Fatalf("expected lexical order a,b, got %s,%s", result.AllServices[0].Family, result.AllServices[1].Family)
	}
}

func TestLoadLegacyHasNoScheduledTaskSupport(t *testing.T) {
	dir := t.TempDir()
	configPath := writeFile(t, dir, "config.json", `{"environment": "stg", "cluster": "main"}`)
	templateDir := t.TempDir()
	writeFile(t, templateDir, "a-service.json", `{"family": "a", "containerDefinitions": [{"name": "app", "environment": [
		{"name": "ENVIRONMENT", "value": "{{ .environment }}"},
		{"name": "CLUSTER_NAME", "value": "{{ .cluster }}"},
		{"name": "DESIRED_COUNT", "value": "1"}
	]}]}`)

	result, err := LoadLegacy(templateDir, configPath, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.AllScheduledTasks) != 0 {
		t.Fatalf("legacy mode must not produce scheduled tasks, got %d", len(result.AllScheduledTasks))
	}
}

func TestMergeScopeResolvesVariableReferencingVariable(t *testing.T) {
	scope, err := mergeScope(
		map[string]any{"base": "{{ .derived }}"},
		map[string]any{"derived": "value"},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if scope["base"] != "value" {
		t.Fatalf("expected base to resolve to 'value', got %v", scope["base"])
	}
}

func TestRequireIntAcceptsRenderedStringAndNativeType(t *testing.T) {
	n, err := requireInt(map[string]any{"n": "5"}, "n")
	if err != nil || n != 5 {
		t.Fatalf("expected 5, got %d, %v", n, err)
	}
	n, err = requireInt(map[string]any{"n": 5}, "n")
	if err != nil || n != 5 {
		t.Fatalf("expected 5, got %d, %v", n, err)
	}
	if _, err := requireInt(map[string]any{"n": "not-a-number"}, "n"); err == nil {
		t.Fatal("expected error for non-numeric string")
	}
}
