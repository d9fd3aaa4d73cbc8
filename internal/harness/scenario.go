package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Reserved base labels.
const (
	BaseSeed = "seed" // the seed revision
	BaseHead = "head" // the head at the time the step runs
)

// Scenario defines an edit scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Initial is the seed text.
	Initial string `yaml:"initial,omitempty"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state.
	// Supported types: head, rev, union_len, revisions, undo_set
	Assertions []Assertion `yaml:"assertions"`
}

// Step is exactly one of Edit, Undo, Toggle or Expect.
type Step struct {
	Edit   *EditStep  `yaml:"edit,omitempty"`
	Undo   *GroupStep `yaml:"undo,omitempty"`
	Toggle *GroupStep `yaml:"toggle,omitempty"`

	// Expect is the head text required after the previous step.
	Expect *string `yaml:"expect,omitempty"`
}

// EditStep submits one replace/insert/delete computed against Base.
type EditStep struct {
	// Label names the resulting revision for later bases and assertions.
	Label string `yaml:"label,omitempty"`

	// Base is "seed", "head" or an earlier edit label.
	Base string `yaml:"base"`

	Priority int `yaml:"priority"`
	Group    int `yaml:"group"`

	Insert  *InsertOp  `yaml:"insert,omitempty"`
	Delete  *RangeOp   `yaml:"delete,omitempty"`
	Replace *ReplaceOp `yaml:"replace,omitempty"`
}

// InsertOp inserts Text at byte offset At of the base text.
type InsertOp struct {
	At   int    `yaml:"at"`
	Text string `yaml:"text"`
}

// RangeOp deletes [Start, End) of the base text.
type RangeOp struct {
	Start int `yaml:"start"`
	End   int `yaml:"end"`
}

// ReplaceOp replaces [Start, End) of the base text with Text.
type ReplaceOp struct {
	Start int    `yaml:"start"`
	End   int    `yaml:"end"`
	Text  string `yaml:"text"`
}

// GroupStep lists undo groups.
type GroupStep struct {
	Groups []int `yaml:"groups"`
}

// Assertion validates the final state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Text is the expected text (head, rev).
	Text *string `yaml:"text,omitempty"`

	// Label names the revision (rev).
	Label string `yaml:"label,omitempty"`

	// Value is the expected union length (union_len).
	Value *int `yaml:"value,omitempty"`

	// Count is the expected number of revisions (revisions).
	Count *int `yaml:"count,omitempty"`

	// Groups is the expected current undo set (undo_set).
	Groups []int `yaml:"groups,omitempty"`
}

// Assertion type constants.
const (
	AssertHead      = "head"
	AssertRev       = "rev"
	AssertUnionLen  = "union_len"
	AssertRevisions = "revisions"
	AssertUndoSet   = "undo_set"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or fails validation.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
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

// validateScenario checks structure and label references. It does not
// check offsets: those depend on the base text and fail at run time.
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

	labels := map[string]bool{}
	for i, step := range s.Steps {
		if err := validateStep(i, step, labels); err != nil {
			return err
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a, labels); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(i int, step Step, labels map[string]bool) error {
	n := 0
	for _, set := range []bool{step.Edit != nil, step.Undo != nil, step.Toggle != nil, step.Expect != nil} {
		if set {
			n++
		}
	}
	if n != 1 {
		return fmt.Errorf("steps[%d]: exactly one of edit, undo, toggle, expect is required", i)
	}

	e := step.Edit
	if e == nil {
		return nil
	}

	if e.Base == "" {
		return fmt.Errorf("steps[%d]: edit base is required", i)
	}
	if e.Base != BaseSeed && e.Base != BaseHead && !labels[e.Base] {
		return fmt.Errorf("steps[%d]: unknown base %q", i, e.Base)
	}

	ops := 0
	for _, set := range []bool{e.Insert != nil, e.Delete != nil, e.Replace != nil} {
		if set {
			ops++
		}
	}
	if ops != 1 {
		return fmt.Errorf("steps[%d]: exactly one of insert, delete, replace is required", i)
	}

	if e.Label != "" {
		if e.Label == BaseSeed || e.Label == BaseHead {
			return fmt.Errorf("steps[%d]: label %q is reserved", i, e.Label)
		}
		if labels[e.Label] {
			return fmt.Errorf("steps[%d]: duplicate label %q", i, e.Label)
		}
		labels[e.Label] = true
	}
	return nil
}

func validateAssertion(index int, a Assertion, labels map[string]bool) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertHead:
		if a.Text == nil {
			return fmt.Errorf("assertions[%d]: text is required for head", index)
		}
	case AssertRev:
		if a.Text == nil {
			return fmt.Errorf("assertions[%d]: text is required for rev", index)
		}
		if a.Label != BaseSeed && !labels[a.Label] {
			return fmt.Errorf("assertions[%d]: unknown label %q", index, a.Label)
		}
	case AssertUnionLen:
		if a.Value == nil {
			return fmt.Errorf("assertions[%d]: value is required for union_len", index)
		}
	case AssertRevisions:
		if a.Count == nil {
			return fmt.Errorf("assertions[%d]: count is required for revisions", index)
		}
	case AssertUndoSet:
		// empty groups means nothing undone
	default:
		return fmt.Errorf("assertions[%d]: unknown type %q", index, a.Type)
	}
	return nil
}
