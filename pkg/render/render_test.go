package render

import (
	"errors"
	"strings"
	"testing"
)

func TestRenderLosslessForBoundKeys(t *testing.T) {
	out, err := Render(`{"family":"{{.family}}","count":{{.count}}}`, map[string]any{
		"family": "api",
		"count":  2,
	}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `{"family":"api","count":2}` {
		t.Fatalf("unexpected render output: %s", out)
	}
}

func TestRenderUndefinedVariableFails(t *testing.T) {
	_, err := Render(`{{.missing}}`, map[string]any{"present": "x"}, false)
	if !errors.Is(err, ErrUndefinedVariable) {
		t.Fatalf("expected ErrUndefinedVariable, got %v", err)
	}
}

func TestRenderProcessEnvOverlayLowestPrecedence(t *testing.T) {
	t.Setenv("TASKCTL_TEST_VAR", "from-env")

	out, err := Render(`{{.TASKCTL_TEST_VAR}}`, map[string]any{}, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "from-env" {
		t.Fatalf("expected process env value, got %q", out)
	}

	out, err = Render(`{{.TASKCTL_TEST_VAR}}`, map[string]any{"TASKCTL_TEST_VAR": "from-vars"}, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "from-vars" {
		t.Fatalf("expected explicit variable to win over process env, got %q", out)
	}
}

func TestRenderSprigFunction(t *testing.T) {
	out, err := Render(`{{upper .name}}`, map[string]any{"name": "api"}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "API" {
		t.Fatalf("expected sprig upper function to apply, got %q", out)
	}
}

func TestRenderNoSideEffectsOnRepeat(t *testing.T) {
	tpl := `{{.a}}-{{.b}}`
	vars := map[string]any{"a": "x", "b": "y"}

	first, err := Render(tpl, vars, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Render(tpl, vars, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second || !strings.Contains(first, "x-y") {
		t.Fatalf("expected deterministic repeat renders, got %q and %q", first, second)
	}
}
