package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/weave/internal/delta"
	"github.com/roach88/weave/internal/engine"
	"github.com/roach88/weave/internal/session"
	"github.com/roach88/weave/internal/store"
)

// Harness executes one scenario against a session.
type Harness struct {
	session *session.Session
	labels  map[string]engine.RevID
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation. The
// session id is the scenario name, so runs are reproducible.
//
// Execution flow:
//  1. Create fresh in-memory database and session
//  2. Execute steps, checking expect steps as they come
//  3. Reload the session from the store and compare digests
//  4. Evaluate assertions
//
// A returned error means the scenario could not run (for example an
// offset outside the base text). Failed expectations are reported in
// Result.Errors instead.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests

	sess, err := session.New(ctx, st, scenario.Initial,
		session.WithIDGenerator(session.NewFixedGenerator(scenario.Name)),
		session.WithName(scenario.Description),
		session.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	h := &Harness{
		session: sess,
		labels:  map[string]engine.RevID{},
	}

	result := NewResult()
	if err := h.executeSteps(ctx, scenario.Steps, result); err != nil {
		return nil, fmt.Errorf("failed to execute steps: %w", err)
	}

	digest, err := sess.Verify(ctx)
	if err != nil {
		result.AddError(err.Error())
	}

	head, _ := sess.Head()
	snap := sess.Revisions()
	result.Head = head.String()
	result.Revisions = snap
	result.Digest = digest
	stored, err := st.LoadSession(ctx, sess.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	result.Union = stored.Union.String()

	actx := &AssertionContext{Session: sess, Labels: h.labels}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

func (h *Harness) executeSteps(ctx context.Context, steps []Step, result *Result) error {
	for i, step := range steps {
		ev := TraceEvent{Step: i}
		var err error

		switch {
		case step.Edit != nil:
			ev.Kind = "edit"
			ev.Label = step.Edit.Label
			ev.Rev, err = h.executeEdit(ctx, step.Edit)
		case step.Undo != nil:
			ev.Kind = "undo"
			ev.Rev, err = h.session.Undo(ctx, engine.NewGroups(step.Undo.Groups...))
		case step.Toggle != nil:
			ev.Kind = "toggle"
			ev.Rev, err = h.session.Toggle(ctx, engine.NewGroups(step.Toggle.Groups...))
		case step.Expect != nil:
			ev.Kind = "expect"
			head, _ := h.session.Head()
			if head.String() != *step.Expect {
				result.AddError(fmt.Sprintf("steps[%d]: expected head %q, got %q", i, *step.Expect, head.String()))
			}
		}
		if err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}

		head, _ := h.session.Head()
		ev.Head = head.String()
		result.Trace = append(result.Trace, ev)
	}
	return nil
}

func (h *Harness) executeEdit(ctx context.Context, step *EditStep) (engine.RevID, error) {
	base, err := h.resolveBase(step.Base)
	if err != nil {
		return 0, err
	}
	ix, ok := h.session.FindRev(base)
	if !ok {
		return 0, fmt.Errorf("base %q: revision %d not in log", step.Base, base)
	}
	baseText, err := h.session.Rev(ix)
	if err != nil {
		return 0, err
	}

	d, err := buildDelta(baseText.Len(), step)
	if err != nil {
		return 0, fmt.Errorf("base %q: %w", step.Base, err)
	}

	id, err := h.session.Edit(ctx, step.Priority, step.Group, base, d)
	if err != nil {
		return 0, err
	}
	if step.Label != "" {
		h.labels[step.Label] = id
	}
	return id, nil
}

func (h *Harness) resolveBase(label string) (engine.RevID, error) {
	switch label {
	case BaseSeed:
		return h.session.Revisions()[0].ID, nil
	case BaseHead:
		_, id := h.session.Head()
		return id, nil
	}
	id, ok := h.labels[label]
	if !ok {
		return 0, fmt.Errorf("unknown base %q", label)
	}
	return id, nil
}

func buildDelta(baseLen int, step *EditStep) (delta.Delta, error) {
	switch {
	case step.Insert != nil:
		return delta.Simple(baseLen, step.Insert.At, step.Insert.At, step.Insert.Text)
	case step.Delete != nil:
		return delta.Simple(baseLen, step.Delete.Start, step.Delete.End, "")
	case step.Replace != nil:
		return delta.Simple(baseLen, step.Replace.Start, step.Replace.End, step.Replace.Text)
	}
	return delta.Delta{}, fmt.Errorf("edit has no operation")
}
