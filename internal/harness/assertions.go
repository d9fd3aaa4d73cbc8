package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/weave/internal/engine"
	"github.com/roach88/weave/internal/session"
)

// AssertionContext gives assertions access to the finished session.
type AssertionContext struct {
	Session *session.Session
	Labels  map[string]engine.RevID
}

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s", ev.Step, ev.Kind)
			if ev.Label != "" {
				fmt.Fprintf(&buf, " %s", ev.Label)
			}
			if ev.Rev != 0 {
				fmt.Fprintf(&buf, " rev=%d", ev.Rev)
			}
			fmt.Fprintf(&buf, " head=%q\n", ev.Head)
		}
	}
	return buf.String()
}

// EvaluateAssertions runs every assertion and returns one message per
// failure. All assertions run; there is no fail-fast.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluateAssertion(result, a, actx); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %s", i, err.Error()))
		}
	}
	return errs
}

func evaluateAssertion(result *Result, a Assertion, actx *AssertionContext) error {
	switch a.Type {
	case AssertHead:
		return assertHead(result, a)
	case AssertRev:
		return assertRev(result, a, actx)
	case AssertUnionLen:
		return assertUnionLen(result, a)
	case AssertRevisions:
		return assertRevisions(result, a)
	case AssertUndoSet:
		return assertUndoSet(result, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertHead(result *Result, a Assertion) error {
	if result.Head == *a.Text {
		return nil
	}
	return &AssertionError{
		Type:     AssertHead,
		Expected: fmt.Sprintf("%q", *a.Text),
		Actual:   fmt.Sprintf("%q", result.Head),
		Trace:    result.Trace,
	}
}

// assertRev reconstructs the labelled revision's text.
func assertRev(result *Result, a Assertion, actx *AssertionContext) error {
	var id engine.RevID
	if a.Label == BaseSeed {
		id = result.Revisions[0].ID
	} else {
		var ok bool
		if id, ok = actx.Labels[a.Label]; !ok {
			return fmt.Errorf("label %q was never applied", a.Label)
		}
	}

	ix, ok := actx.Session.FindRev(id)
	if !ok {
		return fmt.Errorf("revision %d not in log", id)
	}
	got, err := actx.Session.Rev(ix)
	if err != nil {
		return err
	}
	if got.String() == *a.Text {
		return nil
	}
	return &AssertionError{
		Type:     AssertRev,
		Expected: fmt.Sprintf("%s = %q", a.Label, *a.Text),
		Actual:   fmt.Sprintf("%s = %q", a.Label, got.String()),
		Trace:    result.Trace,
	}
}

func assertUnionLen(result *Result, a Assertion) error {
	if got := len(result.Union); got != *a.Value {
		return &AssertionError{
			Type:     AssertUnionLen,
			Expected: fmt.Sprintf("%d", *a.Value),
			Actual:   fmt.Sprintf("%d", got),
		}
	}
	return nil
}

func assertRevisions(result *Result, a Assertion) error {
	if got := len(result.Revisions); got != *a.Count {
		return &AssertionError{
			Type:     AssertRevisions,
			Expected: fmt.Sprintf("%d revisions", *a.Count),
			Actual:   fmt.Sprintf("%d revisions", got),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertUndoSet compares the most recent undo set. A log without undo
// revisions has the empty set.
func assertUndoSet(result *Result, a Assertion) error {
	var got []int
	for i := len(result.Revisions) - 1; i >= 0; i-- {
		if u, ok := result.Revisions[i].Contents.(engine.Undo); ok {
			got = u.Groups.IDs()
			break
		}
	}
	want := engine.NewGroups(a.Groups...).IDs()
	if slices.Equal(got, want) {
		return nil
	}
	return &AssertionError{
		Type:     AssertUndoSet,
		Expected: fmt.Sprintf("%v", want),
		Actual:   fmt.Sprintf("%v", got),
		Trace:    result.Trace,
	}
}
