package engine

import (
	"io"
	"log/slog"

	"github.com/roach88/weave/internal/canon"
	"github.com/roach88/weave/internal/text"
)

// Snapshot is the complete persisted state of an engine: the union text
// and the revision log, verbatim.
type Snapshot struct {
	Union     text.Sequence
	Revisions []Revision
}

// Snapshot captures the engine state.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{Union: e.union, Revisions: e.Revisions()}
}

// Restore rebuilds an engine from a snapshot. The log is checked against
// the engine invariants; the clock resumes after the newest id.
func Restore(s Snapshot, opts ...EngineOption) (*Engine, error) {
	if len(s.Revisions) == 0 {
		return nil, newInvalidSnapshotError("empty revision log")
	}

	prevLen := 0
	var prevID RevID
	for i, r := range s.Revisions {
		if i > 0 && r.ID <= prevID {
			return nil, newInvalidSnapshotError("revision %d: id %d not after %d", i, r.ID, prevID)
		}
		if r.UnionLen < prevLen {
			return nil, newInvalidSnapshotError("revision %d: union shrank from %d to %d", i, prevLen, r.UnionLen)
		}
		if r.FromUnion.Len() != r.UnionLen {
			return nil, newInvalidSnapshotError("revision %d: visibility covers %d of %d", i, r.FromUnion.Len(), r.UnionLen)
		}
		if r.Contents == nil {
			return nil, newInvalidSnapshotError("revision %d: missing contents", i)
		}
		prevID, prevLen = r.ID, r.UnionLen
	}
	if prevLen != s.Union.Len() {
		return nil, newInvalidSnapshotError("union text has %d bytes, log expects %d", s.Union.Len(), prevLen)
	}
	if err := checkContents(s.Revisions); err != nil {
		return nil, err
	}

	e := &Engine{
		clock:  NewClockAt(prevID),
		union:  s.Union,
		revs:   append([]Revision(nil), s.Revisions...),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// checkContents verifies that edit subsets span the union of their
// revision and that the union only grows by the positions an edit inserts.
func checkContents(revs []Revision) error {
	prevLen := 0
	for i, r := range revs {
		switch c := r.Contents.(type) {
		case Edit:
			if c.Inserts.Len() != r.UnionLen || c.Deletes.Len() != r.UnionLen {
				return newInvalidSnapshotError("revision %d: edit subsets cover %d and %d of %d",
					i, c.Inserts.Len(), c.Deletes.Len(), r.UnionLen)
			}
			if i > 0 && c.Inserts.Count() != r.UnionLen-prevLen {
				return newInvalidSnapshotError("revision %d: inserts %d positions, union grew by %d",
					i, c.Inserts.Count(), r.UnionLen-prevLen)
			}
		case Undo:
			if i > 0 && r.UnionLen != prevLen {
				return newInvalidSnapshotError("revision %d: undo changed union from %d to %d", i, prevLen, r.UnionLen)
			}
		}
		prevLen = r.UnionLen
	}
	return nil
}

// Digest returns a SHA-256 over the canonical revision log and the union
// text. Two engines with equal digests hold bit-identical state.
func (e *Engine) Digest() (string, error) {
	revs := make([]any, len(e.revs))
	for i, r := range e.revs {
		revs[i] = CanonicalRevision(r)
	}
	return canon.HashValue(canon.DomainEngineState, map[string]any{
		"revisions": revs,
		"union":     canon.Hash(canon.DomainUnionText, []byte(e.union.String())),
	})
}

// CanonicalRevision converts r to the map form used for digests and
// golden snapshots.
func CanonicalRevision(r Revision) map[string]any {
	m := map[string]any{
		"id":         int64(r.ID),
		"from_union": r.FromUnion.Runs(),
		"union_len":  r.UnionLen,
	}
	switch c := r.Contents.(type) {
	case Edit:
		m["edit"] = map[string]any{
			"priority":   c.Priority,
			"undo_group": c.UndoGroup,
			"inserts":    c.Inserts.Runs(),
			"deletes":    c.Deletes.Runs(),
		}
	case Undo:
		m["undo"] = map[string]any{
			"groups": c.Groups.IDs(),
		}
	}
	return m
}
