package model

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/samber/lo"
)

// Equivalent decides whether two container-definition lists are
// semantically the same: same length, and every pair structurally equal
// after canonicalization. This predicate is the
// deregistration gate (the prior revision is only deregistered if a
// genuinely different one was registered) and backs the check-deploy
// report.
func Equivalent(a, b []ContainerDefinition) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !equivalentMap(canonicalize(a[i]), canonicalize(b[i])) {
			return false
		}
	}
	return true
}

// canonicalize drops empty-list-valued keys (the control plane omits them
// from DescribeTaskDefinition responses) and sorts the "environment" list
// by name (the control plane does not preserve declaration order).
func canonicalize(cd ContainerDefinition) map[string]any {
	out := make(map[string]any, len(cd))
	for k, v := range cd {
		if isEmptyList(v) {
			continue
		}
		if k == "environment" {
			out[k] = canonicalEnv(envList(cd))
			continue
		}
		out[k] = canonicalizeValue(v)
	}
	return out
}

func canonicalizeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			if isEmptyList(inner) {
				continue
			}
			out[k] = canonicalizeValue(inner)
		}
		return out
	case ContainerDefinition:
		return canonicalize(val)
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = canonicalizeValue(inner)
		}
		return out
	default:
		return val
	}
}

func canonicalEnv(pairs []EnvPair) []EnvPair {
	sorted := make([]EnvPair, len(pairs))
	copy(sorted, pairs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	return sorted
}

func isEmptyList(v any) bool {
	switch val := v.(type) {
	case []any:
		return len(val) == 0
	case []string:
		return len(val) == 0
	case []EnvPair:
		return len(val) == 0
	case []ContainerDefinition:
		return len(val) == 0
	default:
		return false
	}
}

func equivalentMap(a, b map[string]any) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok {
			return false
		}
		if !equivalentValue(av, bv) {
			return false
		}
	}
	return true
}

func equivalentValue(a, b any) bool {
	switch av := a.(type) {
	case map[string]any:
		bv, ok := b.(map[string]any)
		return ok && equivalentMap(av, bv)
	case []EnvPair:
		bv, ok := b.([]EnvPair)
		return ok && reflect.DeepEqual(av, bv)
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !equivalentValue(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return reflect.DeepEqual(a, b)
	}
}

// Diff renders a multiline human-readable report of the structural
// difference between two container-definition lists, used by the
// check-deploy phase. It reports only top-level keys that
// differ after canonicalization, keyed by container index.
func Diff(origin, desired []ContainerDefinition) string {
	if Equivalent(origin, desired) {
		return "Container Definition is not changed"
	}

	report := "Container is changed. Diff:\n"
	n := len(desired)
	if len(origin) > n {
		n = len(origin)
	}
	for i := 0; i < n; i++ {
		var o, d map[string]any
		if i < len(origin) {
			o = canonicalize(origin[i])
		}
		if i < len(desired) {
			d = canonicalize(desired[i])
		}
		keys := lo.Uniq(append(lo.Keys(o), lo.Keys(d)...))
		sort.Strings(keys)
		for _, k := range keys {
			ov, oOk := o[k]
			dv, dOk := d[k]
			if oOk && dOk && equivalentValue(ov, dv) {
				continue
			}
			report += diffLine(i, k, oOk, ov, dOk, dv)
		}
	}
	return report
}

func diffLine(container int, key string, oOk bool, ov any, dOk bool, dv any) string {
	switch {
	case oOk && dOk:
		return fmt.Sprintf("  [%d] %s: %s -> %s\n", container, key, toStr(ov), toStr(dv))
	case oOk && !dOk:
		return fmt.Sprintf("  [%d] %s: %s -> (removed)\n", container, key, toStr(ov))
	default:
		return fmt.Sprintf("  [%d] %s: (absent) -> %s\n", container, key, toStr(dv))
	}
}

func toStr(v any) string {
	switch val := v.(type) {
	case nil:
		return "<nil>"
	case string:
		return val
	case []EnvPair:
		out := ""
		for i, p := range val {
			if i > 0 {
				out += ","
			}
			out += p.Name + "=" + p.Value
		}
		return out
	default:
		return fmt.Sprintf("%v", val)
	}
}
