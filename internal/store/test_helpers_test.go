package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/weave/internal/delta"
	"github.com/roach88/weave/internal/engine"
)

// createTestStore creates a new file-backed store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// editHead applies a single replace to the engine head.
func editHead(t *testing.T, e *engine.Engine, priority, group, start, end int, s string) engine.Revision {
	t.Helper()
	d, err := delta.Simple(e.Head().Len(), start, end, s)
	require.NoError(t, err)
	_, err = e.EditRev(priority, group, e.HeadRevID(), d)
	require.NoError(t, err)
	revs := e.Revisions()
	return revs[len(revs)-1]
}
