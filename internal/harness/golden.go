package harness

import (
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/weave/internal/canon"
	"github.com/roach88/weave/internal/engine"
)

// Snapshot converts a result to the canonical map stored in golden files.
func Snapshot(name string, result *Result) map[string]any {
	revs := make([]any, len(result.Revisions))
	for i, r := range result.Revisions {
		revs[i] = engine.CanonicalRevision(r)
	}
	return map[string]any{
		"name":      name,
		"head":      result.Head,
		"union":     result.Union,
		"revisions": revs,
	}
}

// MarshalSnapshot returns the golden file contents for a result.
func MarshalSnapshot(name string, result *Result) ([]byte, error) {
	data, err := canon.Marshal(Snapshot(name, result))
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot %s: %w", name, err)
	}
	return data, nil
}

// RunWithGolden executes a scenario and compares its revision log against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails. Test failure (via goldie)
// occurs if the log doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := MarshalSnapshot(name, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
