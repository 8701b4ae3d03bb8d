package ops

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Step is a serializable op: an object carrying the op name under "op" next
// to the descriptor's parameters, e.g. {"op": "gaussianBlur", "sigma": 2}.
// Parameters left out keep the defaults of New.
type Step struct {
	Op Op
}

// Decode parses a single JSON or YAML step. Empty or null input is
// ErrUnknownOp.
func Decode(data []byte) (Op, error) {
	var s Step
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	if s.Op == nil {
		return nil, fmt.Errorf("%w: empty step", ErrUnknownOp)
	}
	return s.Op, nil
}

func decodeWith(name string, decode func(Op) error) (Op, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: missing \"op\"", ErrUnknownOp)
	}
	op, err := New(name)
	if err != nil {
		return nil, err
	}
	if err := decode(op); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", name, err)
	}
	return op, nil
}

func (s *Step) UnmarshalJSON(b []byte) error {
	var head struct {
		Op string `json:"op"`
	}
	if err := json.Unmarshal(b, &head); err != nil {
		return err
	}
	op, err := decodeWith(head.Op, func(op Op) error { return json.Unmarshal(b, op) })
	if err != nil {
		return err
	}
	s.Op = op
	return nil
}

func (s Step) MarshalJSON() ([]byte, error) {
	name := Name(s.Op)
	if name == "" {
		return nil, fmt.Errorf("%w: %T", ErrUnknownOp, s.Op)
	}
	body, err := json.Marshal(s.Op)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	fields["op"], _ = json.Marshal(name)
	return json.Marshal(fields)
}

func (s *Step) UnmarshalYAML(n *yaml.Node) error {
	var head struct {
		Op string `yaml:"op"`
	}
	if err := n.Decode(&head); err != nil {
		return err
	}
	op, err := decodeWith(head.Op, func(op Op) error { return n.Decode(op) })
	if err != nil {
		return err
	}
	s.Op = op
	return nil
}

func (s Step) MarshalYAML() (any, error) {
	name := Name(s.Op)
	if name == "" {
		return nil, fmt.Errorf("%w: %T", ErrUnknownOp, s.Op)
	}
	body, err := yaml.Marshal(s.Op)
	if err != nil {
		return nil, err
	}
	fields := map[string]any{}
	if err := yaml.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	fields["op"] = name
	return fields, nil
}

// DecodePipeline parses a pipeline document. YAML is a superset of JSON, so
// both are accepted:
//
//	steps:
//	  - op: dynamicBackground
//	    gridX: 12
//	  - op: gaussianBlur
//	    sigma: 2
func DecodePipeline(data []byte) (*Pipeline, error) {
	var p Pipeline
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	return &p, nil
}

// LoadPipeline reads and decodes a pipeline file.
func LoadPipeline(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := DecodePipeline(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}
