package harness

import "github.com/roach88/weave/internal/engine"

// TraceEvent records one executed step.
type TraceEvent struct {
	Step  int          // index into Scenario.Steps
	Kind  string       // "edit", "undo", "toggle" or "expect"
	Label string       // edit label, if any
	Rev   engine.RevID // revision appended by the step, 0 for expect
	Head  string       // head text after the step
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool

	// Trace lists executed steps in order.
	Trace []TraceEvent

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string

	// Head is the final head text.
	Head string

	// Union is the final union text.
	Union string

	// Revisions is the final revision log.
	Revisions []engine.Revision

	// Digest is the engine state digest, checked against the stored log.
	Digest string
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
