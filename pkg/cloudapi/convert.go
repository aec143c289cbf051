package cloudapi

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	ecstypes "github.com/aws/aws-sdk-go-v2/service/ecs/types"
	"github.com/cuemby/taskctl/pkg/model"
)

// toECSContainerDefinitions converts the generic model.ContainerDefinition
// maps into the SDK's typed shape. This is a best-effort subset covering
// the long-stable, commonly used ECS fields rather than full fidelity to
// every possible container-definition key: the model type is free-form
// JSON by design (see model.ContainerDefinition's doc comment), and a
// blind marshal/unmarshal round trip through the SDK type isn't safe
// since the generated types don't guarantee encoding/json tags matching
// the wire protocol.
func toECSContainerDefinitions(defs []model.ContainerDefinition) []ecstypes.ContainerDefinition {
	out := make([]ecstypes.ContainerDefinition, 0, len(defs))
	for _, cd := range defs {
		out = append(out, toECSContainerDefinition(cd))
	}
	return out
}

func toECSContainerDefinition(cd model.ContainerDefinition) ecstypes.ContainerDefinition {
	var out ecstypes.ContainerDefinition

	if v, ok := cd["name"].(string); ok {
		out.Name = aws.String(v)
	}
	if v, ok := cd["image"].(string); ok {
		out.Image = aws.String(v)
	}
	if v, ok := toInt32(cd["cpu"]); ok {
		out.Cpu = v
	}
	if v, ok := toInt32(cd["memory"]); ok {
		out.Memory = aws.Int32(v)
	}
	if v, ok := toInt32(cd["memoryReservation"]); ok {
		out.MemoryReservation = aws.Int32(v)
	}
	if v, ok := cd["essential"].(bool); ok {
		out.Essential = aws.Bool(v)
	}
	out.EntryPoint = toStringSlice(cd["entryPoint"])
	out.Command = toStringSlice(cd["command"])
	out.Environment = toKeyValuePairs(cd["environment"])

	if rawPorts, ok := cd["portMappings"].([]any); ok {
		for _, rp := range rawPorts {
			m, ok := rp.(map[string]any)
			if !ok {
				continue
			}
			var pm ecstypes.PortMapping
			if v, ok := toInt32(m["containerPort"]); ok {
				pm.ContainerPort = aws.Int32(v)
			}
			if v, ok := toInt32(m["hostPort"]); ok {
				pm.HostPort = aws.Int32(v)
			}
			if v, ok := m["protocol"].(string); ok {
				pm.Protocol = ecstypes.TransportProtocol(v)
			}
			out.PortMappings = append(out.PortMappings, pm)
		}
	}

	if rawMounts, ok := cd["mountPoints"].([]any); ok {
		for _, rm := range rawMounts {
			m, ok := rm.(map[string]any)
			if !ok {
				continue
			}
			var mp ecstypes.MountPoint
			if v, ok := m["sourceVolume"].(string); ok {
				mp.SourceVolume = aws.String(v)
			}
			if v, ok := m["containerPath"].(string); ok {
				mp.ContainerPath = aws.String(v)
			}
			if v, ok := m["readOnly"].(bool); ok {
				mp.ReadOnly = aws.Bool(v)
			}
			out.MountPoints = append(out.MountPoints, mp)
		}
	}

	if rawLog, ok := cd["logConfiguration"].(map[string]any); ok {
		lc := &ecstypes.LogConfiguration{}
		if v, ok := rawLog["logDriver"].(string); ok {
			lc.LogDriver = ecstypes.LogDriver(v)
		}
		if rawOpts, ok := rawLog["options"].(map[string]any); ok {
			lc.Options = map[string]string{}
			for k, v := range rawOpts {
				if s, ok := v.(string); ok {
					lc.Options[k] = s
				}
			}
		}
		out.LogConfiguration = lc
	}

	return out
}

// fromECSContainerDefinitions converts observed SDK container definitions
// back into the generic model shape so they can be compared against a
// desired definition with model.Equivalent / model.Diff.
func fromECSContainerDefinitions(defs []ecstypes.ContainerDefinition) []model.ContainerDefinition {
	out := make([]model.ContainerDefinition, 0, len(defs))
	for _, d := range defs {
		cd := model.ContainerDefinition{}
		if d.Name != nil {
			cd["name"] = *d.Name
		}
		if d.Image != nil {
			cd["image"] = *d.Image
		}
		if d.Cpu != 0 {
			cd["cpu"] = int(d.Cpu)
		}
		if d.Memory != nil {
			cd["memory"] = int(*d.Memory)
		}
		if d.MemoryReservation != nil {
			cd["memoryReservation"] = int(*d.MemoryReservation)
		}
		if d.Essential != nil {
			cd["essential"] = *d.Essential
		}
		if len(d.EntryPoint) > 0 {
			cd["entryPoint"] = toAnySlice(d.EntryPoint)
		}
		if len(d.Command) > 0 {
			cd["command"] = toAnySlice(d.Command)
		}
		if len(d.Environment) > 0 {
			env := make([]model.EnvPair, 0, len(d.Environment))
			for _, kv := range d.Environment {
				var name, value string
				if kv.Name != nil {
					name = *kv.Name
				}
				if kv.Value != nil {
					value = *kv.Value
				}
				env = append(env, model.EnvPair{Name: name, Value: value})
			}
			cd["environment"] = env
		}
		out = append(out, cd)
	}
	return out
}

func toAnySlice(s []string) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

func toInt32(v any) (int32, bool) {
	switch n := v.(type) {
	case int:
		return int32(n), true
	case int32:
		return n, true
	case int64:
		return int32(n), true
	case float64:
		return int32(n), true
	default:
		return 0, false
	}
}

func toStringSlice(v any) []string {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func toKeyValuePairs(v any) []ecstypes.KeyValuePair {
	pairs := envPairsFrom(v)
	if len(pairs) == 0 {
		return nil
	}
	out := make([]ecstypes.KeyValuePair, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, ecstypes.KeyValuePair{Name: aws.String(p.Name), Value: aws.String(p.Value)})
	}
	return out
}

func envPairsFrom(v any) []model.EnvPair {
	switch val := v.(type) {
	case []model.EnvPair:
		return val
	case []any:
		out := make([]model.EnvPair, 0, len(val))
		for _, item := range val {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			name, _ := m["name"].(string)
			value, _ := m["value"].(string)
			out = append(out, model.EnvPair{Name: name, Value: value})
		}
		return out
	default:
		return nil
	}
}
