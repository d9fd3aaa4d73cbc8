package engine

import (
	"io"
	"log/slog"

	"github.com/roach88/weave/internal/delta"
	"github.com/roach88/weave/internal/subset"
	"github.com/roach88/weave/internal/text"
)

// Engine owns the union text and the revision log.
//
// Thread-safety model:
//   - EditRev(), Undo(): must be serialized by the caller
//   - reads: safe once the last mutation has returned; results are
//     immutable snapshots
//
// INVARIANTS:
//   - revs is never empty and is only ever appended to
//   - union.Len() == revs[len(revs)-1].UnionLen
type Engine struct {
	clock  *Clock
	union  text.Sequence
	revs   []Revision
	logger *slog.Logger
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithLogger sets the logger for revision events.
// Default: a logger that discards everything.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// ResumeAfter makes the engine issue ids above id, even when its log ends
// lower. Ids at or below the newest revision are ignored.
func ResumeAfter(id RevID) EngineOption {
	return func(e *Engine) {
		e.clock.Skip(id)
	}
}

// New creates an Engine whose seed revision shows initial.
func New(initial string, opts ...EngineOption) *Engine {
	e := &Engine{
		clock:  NewClock(),
		union:  text.New(initial),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.revs = []Revision{{
		ID:        e.clock.Next(),
		FromUnion: subset.Full(len(initial)),
		UnionLen:  len(initial),
		Contents:  Edit{Inserts: subset.Empty(len(initial)), Deletes: subset.Empty(len(initial))},
	}}
	return e
}

// Head returns the text of the most recent revision.
func (e *Engine) Head() text.Sequence {
	return e.rev(len(e.revs) - 1)
}

// HeadRevID returns the id of the most recent revision. Edits computed
// against Head() should use it as their base.
func (e *Engine) HeadRevID() RevID {
	return e.revs[len(e.revs)-1].ID
}

// Len returns the number of revisions in the log.
func (e *Engine) Len() int {
	return len(e.revs)
}

// Union returns the union text.
func (e *Engine) Union() text.Sequence {
	return e.union
}

// UnionLen returns the length of the union text.
func (e *Engine) UnionLen() int {
	return e.union.Len()
}

// Revisions returns a copy of the log. Revisions are values with
// immutable fields, so the copy shares nothing mutable with the engine.
func (e *Engine) Revisions() []Revision {
	out := make([]Revision, len(e.revs))
	copy(out, e.revs)
	return out
}

// Rev reconstructs the text of the revision at log index.
//
// Cost is linear in the number of later revisions that inserted text.
func (e *Engine) Rev(index int) (text.Sequence, error) {
	if index < 0 || index >= len(e.revs) {
		return text.Sequence{}, newOutOfRangeError(index, len(e.revs))
	}
	return e.rev(index), nil
}

func (e *Engine) rev(index int) text.Sequence {
	fromUnion := e.revs[index].FromUnion
	for _, r := range e.revs[index+1:] {
		if edit, ok := r.Contents.(Edit); ok && !edit.Inserts.IsTrivial() {
			fromUnion = fromUnion.TransformIntersect(edit.Inserts)
		}
	}
	return fromUnion.Apply(e.union)
}

// FindRev returns the log index of the revision with the given id.
// Searches newest first: edits are almost always based on recent history.
func (e *Engine) FindRev(id RevID) (int, bool) {
	for i := len(e.revs) - 1; i >= 0; i-- {
		if e.revs[i].ID == id {
			return i, true
		}
	}
	return 0, false
}

// CurrentUndo returns the group set of the most recent Undo revision, or
// false if undo has never been invoked.
func (e *Engine) CurrentUndo() (Groups, bool) {
	for i := len(e.revs) - 1; i >= 0; i-- {
		if u, ok := e.revs[i].Contents.(Undo); ok {
			return u.Groups, true
		}
	}
	return Groups{}, false
}

// DeltaHead returns the delta that turns the previous head into the
// current head.
func (e *Engine) DeltaHead() (delta.Delta, error) {
	if len(e.revs) < 2 {
		return delta.Delta{}, newNoPreviousRevisionError()
	}
	prevFromUnion := e.revs[len(e.revs)-2].FromUnion
	last := e.revs[len(e.revs)-1]
	if edit, ok := last.Contents.(Edit); ok && !edit.Inserts.IsTrivial() {
		prevFromUnion = prevFromUnion.TransformIntersect(edit.Inserts)
	}
	return delta.Synthesize(e.union, prevFromUnion, last.FromUnion), nil
}

// EditRev rebases d, expressed against the text of revision base, onto the
// log and appends it. Returns the id of the new revision.
//
// A precondition error leaves the engine unchanged.
func (e *Engine) EditRev(priority, undoGroup int, base RevID, d delta.Delta) (RevID, error) {
	rev, union, err := e.mkNewRev(priority, undoGroup, base, d)
	if err != nil {
		return 0, err
	}
	e.revs = append(e.revs, rev)
	e.union = union

	e.logger.Debug("revision appended",
		"rev", rev.ID,
		"base", base,
		"priority", priority,
		"group", undoGroup,
		"union_len", rev.UnionLen,
	)
	return rev.ID, nil
}

func (e *Engine) mkNewRev(priority, undoGroup int, base RevID, d delta.Delta) (Revision, text.Sequence, error) {
	ix, ok := e.FindRev(base)
	if !ok {
		return Revision{}, text.Sequence{}, newUnknownRevisionError(base)
	}
	baseRev := e.revs[ix]
	if want := baseRev.FromUnion.Count(); d.BaseLen() != want {
		return Revision{}, text.Sequence{}, newDeltaBaseMismatchError(base, d.BaseLen(), want)
	}

	// Base text positions are the visible union positions, so the hidden
	// ones play the role of "already inserted elsewhere".
	ins, deletes := d.Factor()
	hidden := baseRev.FromUnion.Complement()
	unionIns := ins.TransformExpand(hidden, true)
	newDeletes := deletes.TransformIntersect(hidden)

	for _, r := range e.revs[ix+1:] {
		edit, ok := r.Contents.(Edit)
		if !ok || edit.Inserts.IsTrivial() {
			continue
		}
		after := priority >= edit.Priority
		unionIns = unionIns.TransformExpand(edit.Inserts, after)
		newDeletes = newDeletes.TransformIntersect(edit.Inserts)
	}

	newInserts := unionIns.InvertInsert()
	newUnion := unionIns.Apply(e.union)
	if !newInserts.IsTrivial() {
		newDeletes = newDeletes.TransformIntersect(newInserts)
	}

	undone := false
	if groups, ok := e.CurrentUndo(); ok {
		undone = groups.Contains(undoGroup)
	}

	// Visibility starts from the head, not the base: the base FromUnion
	// predates every later revision and lives in an older union.
	fromUnion := e.revs[len(e.revs)-1].FromUnion
	if undone {
		if !newInserts.IsTrivial() {
			fromUnion = fromUnion.TransformIntersect(newInserts)
		}
	} else {
		if !newInserts.IsTrivial() {
			fromUnion = fromUnion.TransformExpand(newInserts)
		}
		if !newDeletes.IsTrivial() {
			fromUnion = fromUnion.Subtract(newDeletes)
		}
	}

	return Revision{
		ID:        e.clock.Next(),
		FromUnion: fromUnion,
		UnionLen:  newUnion.Len(),
		Contents: Edit{
			Priority:  priority,
			UndoGroup: undoGroup,
			Inserts:   newInserts,
			Deletes:   newDeletes,
		},
	}, newUnion, nil
}
