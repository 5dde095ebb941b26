package rbac

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// SpecSchemaV1 identifies the capability spec format.
const SpecSchemaV1 = "atrium.rbac.v1"

// Spec is the on-disk form of a capability table. Deployments use it to
// narrow the built-in table without code changes; the parsed result is the
// immutable Table everything else consumes.
type Spec struct {
	Schema string  `yaml:"schema" json:"schema"`
	Grants []Grant `yaml:"grants" json:"grants"`
}

type Grant struct {
	Role    string   `yaml:"role" json:"role"`
	Actions []string `yaml:"actions" json:"actions"`
}

// ParseTable decodes and validates a YAML capability spec.
func ParseTable(input []byte) (Table, error) {
	var spec Spec
	if err := yaml.Unmarshal(input, &spec); err != nil {
		return Table{}, fmt.Errorf("decode rbac spec: %w", err)
	}
	if err := spec.Validate(); err != nil {
		return Table{}, err
	}

	grants := make(map[Role][]Action, len(spec.Grants))
	for _, grant := range spec.Grants {
		role, _ := NormalizeRole(grant.Role)
		actions := make([]Action, 0, len(grant.Actions))
		for _, raw := range grant.Actions {
			if raw == "*" {
				actions = append(actions, allActions...)
				continue
			}
			actions = append(actions, Action(strings.TrimSpace(raw)))
		}
		grants[role] = actions
	}
	return newTable(grants), nil
}

func (s Spec) Validate() error {
	if strings.TrimSpace(s.Schema) != SpecSchemaV1 {
		return fmt.Errorf("rbac spec schema must be %q", SpecSchemaV1)
	}
	if len(s.Grants) == 0 {
		return fmt.Errorf("rbac spec grants must be non-empty")
	}
	seen := make(map[Role]struct{}, len(s.Grants))
	for i, grant := range s.Grants {
		role, ok := NormalizeRole(grant.Role)
		if !ok {
			return fmt.Errorf("rbac spec grants[%d].role unknown: %q", i, grant.Role)
		}
		if _, dup := seen[role]; dup {
			return fmt.Errorf("rbac spec grants[%d].role duplicated: %q", i, grant.Role)
		}
		seen[role] = struct{}{}

		for j, raw := range grant.Actions {
			if raw == "*" {
				continue
			}
			if !knownAction(Action(strings.TrimSpace(raw))) {
				return fmt.Errorf("rbac spec grants[%d].actions[%d] unknown: %q", i, j, raw)
			}
		}
	}
	return nil
}
