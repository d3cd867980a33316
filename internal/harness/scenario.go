package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/fieldsync/internal/store"
)

// Scenario is a sequence of store operations plus the expected outcome.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// KeyPrefix overrides store.DefaultKeyPrefix.
	KeyPrefix string `yaml:"key_prefix,omitempty"`

	// Steps run in order against one fresh store.
	Steps []Step `yaml:"steps"`

	// Assertions are checked after every step has run.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one operation.
type Step struct {
	Op         string           `yaml:"op"`
	RecordType string           `yaml:"record_type,omitempty"`
	Record     map[string]any   `yaml:"record,omitempty"`
	Records    []map[string]any `yaml:"records,omitempty"`
	Form       map[string]any   `yaml:"form,omitempty"`
	Raw        *string          `yaml:"raw,omitempty"`
	Message    string           `yaml:"message,omitempty"`
}

// Step operations.
const (
	OpAppend           = "append"
	OpConcurrentAppend = "concurrent_append"
	OpSubmit           = "submit"
	OpFailWrites       = "fail_writes"
	OpFailReads        = "fail_reads"
	OpHeal             = "heal"
	OpCorrupt          = "corrupt"
)

// Assertion checks the final state or a step outcome.
type Assertion struct {
	Type       string           `yaml:"type"`
	RecordType string           `yaml:"record_type,omitempty"`
	Records    []map[string]any `yaml:"records,omitempty"`
	Count      *int             `yaml:"count,omitempty"`
	Field      string           `yaml:"field,omitempty"`
	Value      any              `yaml:"value,omitempty"`
	Expect     *bool            `yaml:"expect,omitempty"`
	Step       *int             `yaml:"step,omitempty"`
	Kind       string           `yaml:"kind,omitempty"`
}

// Assertion types.
const (
	AssertLogEquals = "log_equals"
	AssertLogCount  = "log_count"
	AssertExists    = "exists"
	AssertErrorKind = "error_kind"
)

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected so typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a, len(s.Steps)); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, s *Step) error {
	needsType := func() error {
		if s.RecordType == "" {
			return fmt.Errorf("steps[%d]: record_type is required for %s", index, s.Op)
		}
		return nil
	}

	switch s.Op {
	case OpAppend:
		if err := needsType(); err != nil {
			return err
		}
		if s.Record == nil {
			return fmt.Errorf("steps[%d]: record is required for append", index)
		}
	case OpConcurrentAppend:
		if err := needsType(); err != nil {
			return err
		}
		if len(s.Records) == 0 {
			return fmt.Errorf("steps[%d]: records list is required for concurrent_append", index)
		}
	case OpSubmit:
		if err := needsType(); err != nil {
			return err
		}
		if s.Form == nil {
			return fmt.Errorf("steps[%d]: form is required for submit", index)
		}
	case OpCorrupt:
		if err := needsType(); err != nil {
			return err
		}
		if s.Raw == nil {
			return fmt.Errorf("steps[%d]: raw is required for corrupt", index)
		}
	case OpFailWrites, OpFailReads, OpHeal:
	case "":
		return fmt.Errorf("steps[%d]: op is required", index)
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, s.Op)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, steps int) error {
	switch a.Type {
	case AssertLogEquals:
		if a.RecordType == "" {
			return fmt.Errorf("assertions[%d]: record_type is required for log_equals", index)
		}
		if a.Records == nil {
			return fmt.Errorf("assertions[%d]: records is required for log_equals (use [] for empty)", index)
		}
	case AssertLogCount:
		if a.RecordType == "" {
			return fmt.Errorf("assertions[%d]: record_type is required for log_count", index)
		}
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for log_count", index)
		}
	case AssertExists:
		if a.RecordType == "" || a.Field == "" {
			return fmt.Errorf("assertions[%d]: record_type and field are required for exists", index)
		}
	case AssertErrorKind:
		if a.Step == nil || *a.Step < 0 || *a.Step >= steps {
			return fmt.Errorf("assertions[%d]: step must index one of the %d steps", index, steps)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

// Deterministic reports whether every run of s produces the same snapshot.
// Concurrent appends land in scheduler order, so scenarios using them are
// checked by assertions only.
func (s *Scenario) Deterministic() bool {
	for _, step := range s.Steps {
		if step.Op == OpConcurrentAppend {
			return false
		}
	}
	return true
}

func (s *Scenario) prefix() string {
	if s.KeyPrefix != "" {
		return s.KeyPrefix
	}
	return store.DefaultKeyPrefix
}
