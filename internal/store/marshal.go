package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/roach88/weave/internal/canon"
	"github.com/roach88/weave/internal/engine"
	"github.com/roach88/weave/internal/subset"
)

const (
	kindEdit = "edit"
	kindUndo = "undo"
)

// revisionRow is the column form of an engine.Revision.
type revisionRow struct {
	seq       int
	revID     int64
	unionLen  int
	fromUnion string
	kind      string
	priority  sql.NullInt64
	undoGroup sql.NullInt64
	inserts   sql.NullString
	deletes   sql.NullString
	groups    sql.NullString
}

// marshalSubset converts a subset to canonical JSON run lengths.
func marshalSubset(s subset.Subset) (string, error) {
	data, err := canon.Marshal(s.Runs())
	if err != nil {
		return "", fmt.Errorf("marshal subset: %w", err)
	}
	return string(data), nil
}

// unmarshalSubset parses run lengths and checks the decoded length.
func unmarshalSubset(data string, wantLen int) (subset.Subset, error) {
	var runs []int
	if err := json.Unmarshal([]byte(data), &runs); err != nil {
		return subset.Subset{}, fmt.Errorf("unmarshal subset: %w", err)
	}
	s, err := subset.FromRuns(runs)
	if err != nil {
		return subset.Subset{}, fmt.Errorf("unmarshal subset: %w", err)
	}
	if s.Len() != wantLen {
		return subset.Subset{}, fmt.Errorf("unmarshal subset: covers %d positions, want %d", s.Len(), wantLen)
	}
	return s, nil
}

func marshalGroups(g engine.Groups) (string, error) {
	data, err := canon.Marshal(g.IDs())
	if err != nil {
		return "", fmt.Errorf("marshal groups: %w", err)
	}
	return string(data), nil
}

func unmarshalGroups(data string) (engine.Groups, error) {
	var ids []int
	if err := json.Unmarshal([]byte(data), &ids); err != nil {
		return engine.Groups{}, fmt.Errorf("unmarshal groups: %w", err)
	}
	return engine.NewGroups(ids...), nil
}

// toRow flattens r for the revisions table. seq is the log index.
func toRow(seq int, r engine.Revision) (revisionRow, error) {
	from, err := marshalSubset(r.FromUnion)
	if err != nil {
		return revisionRow{}, err
	}
	row := revisionRow{
		seq:       seq,
		revID:     int64(r.ID),
		unionLen:  r.UnionLen,
		fromUnion: from,
	}

	switch c := r.Contents.(type) {
	case engine.Edit:
		ins, err := marshalSubset(c.Inserts)
		if err != nil {
			return revisionRow{}, err
		}
		del, err := marshalSubset(c.Deletes)
		if err != nil {
			return revisionRow{}, err
		}
		row.kind = kindEdit
		row.priority = sql.NullInt64{Int64: int64(c.Priority), Valid: true}
		row.undoGroup = sql.NullInt64{Int64: int64(c.UndoGroup), Valid: true}
		row.inserts = sql.NullString{String: ins, Valid: true}
		row.deletes = sql.NullString{String: del, Valid: true}
	case engine.Undo:
		groups, err := marshalGroups(c.Groups)
		if err != nil {
			return revisionRow{}, err
		}
		row.kind = kindUndo
		row.groups = sql.NullString{String: groups, Valid: true}
	default:
		return revisionRow{}, fmt.Errorf("revision %d: unknown contents %T", r.ID, r.Contents)
	}
	return row, nil
}

// toRevision rebuilds an engine.Revision from its row.
func (row revisionRow) toRevision() (engine.Revision, error) {
	from, err := unmarshalSubset(row.fromUnion, row.unionLen)
	if err != nil {
		return engine.Revision{}, fmt.Errorf("revision %d: from_union: %w", row.revID, err)
	}
	r := engine.Revision{
		ID:        engine.RevID(row.revID),
		FromUnion: from,
		UnionLen:  row.unionLen,
	}

	switch row.kind {
	case kindEdit:
		if !row.priority.Valid || !row.undoGroup.Valid || !row.inserts.Valid || !row.deletes.Valid {
			return engine.Revision{}, fmt.Errorf("revision %d: incomplete edit row", row.revID)
		}
		ins, err := unmarshalSubset(row.inserts.String, row.unionLen)
		if err != nil {
			return engine.Revision{}, fmt.Errorf("revision %d: inserts: %w", row.revID, err)
		}
		del, err := unmarshalSubset(row.deletes.String, row.unionLen)
		if err != nil {
			return engine.Revision{}, fmt.Errorf("revision %d: deletes: %w", row.revID, err)
		}
		r.Contents = engine.Edit{
			Priority:  int(row.priority.Int64),
			UndoGroup: int(row.undoGroup.Int64),
			Inserts:   ins,
			Deletes:   del,
		}
	case kindUndo:
		if !row.groups.Valid {
			return engine.Revision{}, fmt.Errorf("revision %d: undo row without groups", row.revID)
		}
		groups, err := unmarshalGroups(row.groups.String)
		if err != nil {
			return engine.Revision{}, fmt.Errorf("revision %d: %w", row.revID, err)
		}
		r.Contents = engine.Undo{Groups: groups}
	default:
		return engine.Revision{}, fmt.Errorf("revision %d: unknown kind %q", row.revID, row.kind)
	}
	return r, nil
}
