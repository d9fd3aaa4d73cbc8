package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/weave/internal/engine"
	"github.com/roach88/weave/internal/text"
)

var (
	// ErrSessionNotFound is returned when a session id has no row.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExists is returned by CreateSession for a duplicate id.
	ErrSessionExists = errors.New("session already exists")

	// ErrStaleAppend is returned by AppendRevision when the caller's log
	// index does not match the stored revision count.
	ErrStaleAppend = errors.New("append does not extend the stored log")
)

// CreateSession inserts a new session together with every revision in
// snap. Typically snap holds only the seed revision.
func (s *Store) CreateSession(ctx context.Context, id, name string, snap engine.Snapshot) error {
	if len(snap.Revisions) == 0 {
		return fmt.Errorf("create session %s: empty revision log", id)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("create session %s: begin tx: %w", id, err)
	}
	defer tx.Rollback() // No-op if committed

	head := snap.Revisions[len(snap.Revisions)-1]
	result, err := tx.ExecContext(ctx, `
		INSERT INTO sessions (id, name, union_text, union_len, head_rev, revision_count)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, name, snap.Union.String(), snap.Union.Len(), int64(head.ID), len(snap.Revisions))
	if err != nil {
		return fmt.Errorf("create session %s: %w", id, err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("create session %s: rows affected: %w", id, err)
	} else if n == 0 {
		return fmt.Errorf("create session %s: %w", id, ErrSessionExists)
	}

	for i, r := range snap.Revisions {
		if err := insertRevision(ctx, tx, id, i, r); err != nil {
			return fmt.Errorf("create session %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("create session %s: commit: %w", id, err)
	}
	return nil
}

// AppendRevision stores r at log index seq and replaces the session's
// union text, atomically.
//
// seq must equal the number of revisions already stored; anything else
// fails with ErrStaleAppend and leaves the session unchanged.
func (s *Store) AppendRevision(ctx context.Context, id string, seq int, r engine.Revision, union text.Sequence) error {
	if union.Len() != r.UnionLen {
		return fmt.Errorf("append revision %d: union text has %d bytes, revision expects %d", r.ID, union.Len(), r.UnionLen)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("append revision %d: begin tx: %w", r.ID, err)
	}
	defer tx.Rollback() // No-op if committed

	result, err := tx.ExecContext(ctx, `
		UPDATE sessions
		SET union_text = ?, union_len = ?, head_rev = ?, revision_count = revision_count + 1
		WHERE id = ? AND revision_count = ?
	`, union.String(), union.Len(), int64(r.ID), id, seq)
	if err != nil {
		return fmt.Errorf("append revision %d: %w", r.ID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("append revision %d: rows affected: %w", r.ID, err)
	}
	if n == 0 {
		if _, err := getSession(ctx, tx, id); err != nil {
			return fmt.Errorf("append revision %d: %w", r.ID, err)
		}
		return fmt.Errorf("append revision %d at %d: %w", r.ID, seq, ErrStaleAppend)
	}

	if err := insertRevision(ctx, tx, id, seq, r); err != nil {
		return fmt.Errorf("append revision %d: %w", r.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("append revision %d: commit: %w", r.ID, err)
	}
	return nil
}

// DeleteSession removes a session and its revisions.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete session %s: rows affected: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete session %s: %w", id, ErrSessionNotFound)
	}
	return nil
}

func insertRevision(ctx context.Context, tx *sql.Tx, id string, seq int, r engine.Revision) error {
	row, err := toRow(seq, r)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO revisions
		(session_id, seq, rev_id, union_len, from_union, kind, priority, undo_group, inserts, deletes, undo_groups)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		id,
		row.seq,
		row.revID,
		row.unionLen,
		row.fromUnion,
		row.kind,
		row.priority,
		row.undoGroup,
		row.inserts,
		row.deletes,
		row.groups,
	)
	if err != nil {
		return fmt.Errorf("insert revision %d: %w", r.ID, err)
	}
	return nil
}
