package render

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// ErrUndefinedVariable is returned when a template references a key that
// is not present in the merged variable scope.
var ErrUndefinedVariable = errors.New("render: undefined variable")

// Render expands templateText against vars. Templates use the standard
// Go {{var}} / conditional / range dialect, enriched with the sprig
// function library (the same pairing giantswarm-muster uses for its own
// template rendering) for string, math, and list helpers. When
// includeProcessEnv is true the process environment is overlaid into the
// scope at the lowest precedence, i.e. it never shadows an explicit
// variable.
func Render(templateText string, vars map[string]any, includeProcessEnv bool) (string, error) {
	scope := vars
	if includeProcessEnv {
		scope = withProcessEnv(vars)
	}

	tmpl, err := template.New("taskctl").
		Option("missingkey=error").
		Funcs(sprig.TxtFuncMap()).
		Parse(templateText)
	if err != nil {
		return "", fmt.Errorf("render: parse template: %w", err)
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, scope); err != nil {
		if isMissingKeyError(err) {
			return "", fmt.Errorf("%w: %s", ErrUndefinedVariable, err)
		}
		return "", fmt.Errorf("render: execute template: %w", err)
	}
	return buf.String(), nil
}

// withProcessEnv returns a new scope with os.Environ() copied in first,
// then vars overlaid on top, so explicit variables always win.
func withProcessEnv(vars map[string]any) map[string]any {
	merged := make(map[string]any, len(vars)+16)
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		merged[name] = value
	}
	for k, v := range vars {
		merged[k] = v
	}
	return merged
}

// isMissingKeyError sniffs text/template's "missingkey=error" message,
// which is not exposed as a typed error by the standard library.
func isMissingKeyError(err error) bool {
	return strings.Contains(err.Error(), "map has no entry for key")
}
