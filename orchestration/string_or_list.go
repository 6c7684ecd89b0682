package orchestration

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// StringOrList models the runbook schema's `inputs: str | list[str] | None`
// field: a single artifact reference or a fan-in list of them, both valid
// YAML/JSON shapes.
type StringOrList []string

// UnmarshalYAML accepts either a scalar string or a sequence of strings.
func (s *StringOrList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var single string
		if err := node.Decode(&single); err != nil {
			return err
		}
		if single == "" {
			*s = nil
			return nil
		}
		*s = StringOrList{single}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*s = StringOrList(list)
		return nil
	default:
		return fmt.Errorf("inputs must be a string or a list of strings")
	}
}

// MarshalYAML emits a scalar for single-element lists, a sequence otherwise.
func (s StringOrList) MarshalYAML() (any, error) {
	if len(s) == 1 {
		return s[0], nil
	}
	return []string(s), nil
}

// UnmarshalJSON accepts either a JSON string or an array of strings.
func (s *StringOrList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "" {
			*s = nil
			return nil
		}
		*s = StringOrList{single}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*s = StringOrList(list)
	return nil
}

// MarshalJSON emits a JSON string for single-element lists, an array
// otherwise.
func (s StringOrList) MarshalJSON() ([]byte, error) {
	if len(s) == 1 {
		return json.Marshal(s[0])
	}
	return json.Marshal([]string(s))
}
