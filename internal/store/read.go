package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/weave/internal/engine"
	"github.com/roach88/weave/internal/text"
)

// SessionInfo summarizes a stored session without loading its log.
type SessionInfo struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	HeadRev   engine.RevID `json:"head_rev"`
	Revisions int          `json:"revisions"`
	UnionLen  int          `json:"union_len"`
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// GetSession returns the summary of one session.
// Returns ErrSessionNotFound if the id has no row.
func (s *Store) GetSession(ctx context.Context, id string) (SessionInfo, error) {
	info, err := getSession(ctx, s.db, id)
	if err != nil {
		return SessionInfo{}, fmt.Errorf("get session: %w", err)
	}
	return info, nil
}

func getSession(ctx context.Context, q queryer, id string) (SessionInfo, error) {
	var info SessionInfo
	var head int64
	err := q.QueryRowContext(ctx, `
		SELECT id, name, head_rev, revision_count, union_len
		FROM sessions
		WHERE id = ?
	`, id).Scan(&info.ID, &info.Name, &head, &info.Revisions, &info.UnionLen)
	if errors.Is(err, sql.ErrNoRows) {
		return SessionInfo{}, fmt.Errorf("%s: %w", id, ErrSessionNotFound)
	}
	if err != nil {
		return SessionInfo{}, fmt.Errorf("scan session %s: %w", id, err)
	}
	info.HeadRev = engine.RevID(head)
	return info, nil
}

// ListSessions returns every session ordered by id.
// Returns an empty slice (not nil) if there are none.
func (s *Store) ListSessions(ctx context.Context) ([]SessionInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, head_rev, revision_count, union_len
		FROM sessions
		ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []SessionInfo{}
	for rows.Next() {
		var info SessionInfo
		var head int64
		if err := rows.Scan(&info.ID, &info.Name, &head, &info.Revisions, &info.UnionLen); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		info.HeadRev = engine.RevID(head)
		sessions = append(sessions, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// LoadSession reads the union text and full revision log of a session,
// ready for engine.Restore.
func (s *Store) LoadSession(ctx context.Context, id string) (engine.Snapshot, error) {
	var union string
	err := s.db.QueryRowContext(ctx, `SELECT union_text FROM sessions WHERE id = ?`, id).Scan(&union)
	if errors.Is(err, sql.ErrNoRows) {
		return engine.Snapshot{}, fmt.Errorf("load session %s: %w", id, ErrSessionNotFound)
	}
	if err != nil {
		return engine.Snapshot{}, fmt.Errorf("load session %s: %w", id, err)
	}

	revs, err := s.ReadRevisions(ctx, id)
	if err != nil {
		return engine.Snapshot{}, fmt.Errorf("load session %s: %w", id, err)
	}
	return engine.Snapshot{Union: text.New(union), Revisions: revs}, nil
}

// ReadRevisions returns the revision log of a session in log order.
// Returns an empty slice (not nil) if the session has no revisions.
func (s *Store) ReadRevisions(ctx context.Context, id string) ([]engine.Revision, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, rev_id, union_len, from_union, kind, priority, undo_group, inserts, deletes, undo_groups
		FROM revisions
		WHERE session_id = ?
		ORDER BY seq ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query revisions: %w", err)
	}
	defer rows.Close()

	revs := []engine.Revision{}
	for rows.Next() {
		r, err := scanRevision(rows)
		if err != nil {
			return nil, err
		}
		if r.seq != len(revs) {
			return nil, fmt.Errorf("revision log has a gap at seq %d", len(revs))
		}
		rev, err := r.toRevision()
		if err != nil {
			return nil, err
		}
		revs = append(revs, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate revisions: %w", err)
	}
	return revs, nil
}

func scanRevision(rows *sql.Rows) (revisionRow, error) {
	var row revisionRow
	err := rows.Scan(
		&row.seq,
		&row.revID,
		&row.unionLen,
		&row.fromUnion,
		&row.kind,
		&row.priority,
		&row.undoGroup,
		&row.inserts,
		&row.deletes,
		&row.groups,
	)
	if err != nil {
		return revisionRow{}, fmt.Errorf("scan revision: %w", err)
	}
	return row, nil
}
