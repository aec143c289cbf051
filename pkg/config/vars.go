package config

import (
	"fmt"
	"strconv"

	"github.com/cuemby/taskctl/pkg/render"
	"github.com/samber/lo"
)

// mergeScope builds the five-level variable scope, low to
// high precedence, then recursively renders the merged mapping against
// itself so a variable may refer to another variable. lo.Assign applies
// each layer left-to-right, later maps winning on key collision — the
// same shape the precedence list describes.
func mergeScope(layers ...map[string]any) (map[string]any, error) {
	merged := lo.Assign(map[string]any{}, layers...)
	return resolveSelfReferences(merged)
}

// resolveSelfReferences renders every string-valued entry of scope against
// scope itself, repeating until a fixed point (bounded to avoid infinite
// loops on a cyclic reference) so "vars refer to vars" works regardless of
// declaration order.
func resolveSelfReferences(scope map[string]any) (map[string]any, error) {
	const maxPasses = 8
	current := scope
	for pass := 0; pass < maxPasses; pass++ {
		next := make(map[string]any, len(current))
		changed := false
		var passErr error
		for k, v := range current {
			s, ok := v.(string)
			if !ok {
				next[k] = v
				continue
			}
			rendered, err := render.Render(s, current, false)
			if err != nil {
				// Leave unresolved-on-this-pass values as-is; a value
				// resolved elsewhere on this pass may make it renderable
				// on the next. If a pass changes nothing, that pass's
				// error (if any) is what the caller sees below.
				passErr = err
				next[k] = v
				continue
			}
			if rendered != s {
				changed = true
			}
			next[k] = rendered
		}
		current = next
		if !changed {
			return current, passErr
		}
	}
	return current, nil
}

// requireString returns a required string key or ErrParameterNotFound.
func requireString(m map[string]any, key string) (string, error) {
	v, ok := m[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrParameterNotFound, key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string", ErrParameterInvalid, key)
	}
	return s, nil
}

// toInt coerces YAML's native int/float64 decode or a rendered string
// into an int, per the "must parse as integers" requirement.
func toInt(v any) (int, bool) {
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	case float64:
		return int(val), true
	case string:
		n, err := strconv.Atoi(val)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// toBool coerces YAML's native bool decode or a rendered string into a
// bool, per the "must parse as booleans" requirement.
func toBool(v any) (bool, bool) {
	switch val := v.(type) {
	case bool:
		return val, true
	case string:
		b, err := strconv.ParseBool(val)
		if err != nil {
			return false, false
		}
		return b, true
	default:
		return false, false
	}
}

func requireInt(m map[string]any, key string) (int, error) {
	v, ok := m[key]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrParameterNotFound, key)
	}
	n, ok := toInt(v)
	if !ok {
		return 0, fmt.Errorf("%w: %s must be an integer", ErrParameterInvalid, key)
	}
	return n, nil
}

func optionalInt(m map[string]any, key string, def int) (int, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return def, nil
	}
	n, ok := toInt(v)
	if !ok {
		return 0, fmt.Errorf("%w: %s must be an integer", ErrParameterInvalid, key)
	}
	return n, nil
}

func optionalBool(m map[string]any, key string, def bool) (bool, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return def, nil
	}
	b, ok := toBool(v)
	if !ok {
		return false, fmt.Errorf("%w: %s must be a boolean", ErrParameterInvalid, key)
	}
	return b, nil
}
