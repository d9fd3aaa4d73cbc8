package session

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/weave/internal/delta"
	"github.com/roach88/weave/internal/engine"
	"github.com/roach88/weave/internal/store"
)

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "weave.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func insertAt(t *testing.T, n, pos int, s string) delta.Delta {
	t.Helper()
	d, err := delta.Simple(n, pos, pos, s)
	require.NoError(t, err)
	return d
}

func newTestSession(t *testing.T, st *store.Store, initial string, opts ...Option) *Session {
	t.Helper()
	opts = append([]Option{WithIDGenerator(NewFixedGenerator("s-1"))}, opts...)
	s, err := New(context.Background(), st, initial, opts...)
	require.NoError(t, err)
	return s
}

func TestSession_NewAndOpen(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()

	s := newTestSession(t, st, "hello", WithName("greeting"))
	assert.Equal(t, "s-1", s.ID())
	assert.Equal(t, "greeting", s.Name())

	head, base := s.Head()
	_, err := s.Edit(ctx, 0, 0, base, insertAt(t, head.Len(), 5, " world"))
	require.NoError(t, err)

	reopened, err := Open(ctx, st, "s-1")
	require.NoError(t, err)
	got, gotBase := reopened.Head()
	assert.Equal(t, "hello world", got.String())
	assert.Equal(t, "greeting", reopened.Name())

	_, wantBase := s.Head()
	assert.Equal(t, wantBase, gotBase)
}

func TestSession_OpenMissing(t *testing.T) {
	st := setupTestStore(t)

	_, err := Open(context.Background(), st, "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrSessionNotFound)
}

func TestSession_NewDuplicateID(t *testing.T) {
	st := setupTestStore(t)
	gen := NewFixedGenerator("dup", "dup")

	_, err := New(context.Background(), st, "a", WithIDGenerator(gen))
	require.NoError(t, err)
	_, err = New(context.Background(), st, "b", WithIDGenerator(gen))
	assert.ErrorIs(t, err, store.ErrSessionExists)
}

func TestSession_StaleEditsConverge(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()
	s := newTestSession(t, st, "abc")
	_, seed := s.Head()

	_, err := s.Edit(ctx, 0, 0, seed, insertAt(t, 3, 1, "1"))
	require.NoError(t, err)
	_, err = s.Edit(ctx, 1, 0, seed, insertAt(t, 3, 1, "2"))
	require.NoError(t, err)

	head, _ := s.Head()
	assert.Equal(t, "a12bc", head.String())
}

func TestSession_UndoAndToggle(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()
	s := newTestSession(t, st, "")

	head, base := s.Head()
	_, err := s.Edit(ctx, 0, 1, base, insertAt(t, head.Len(), 0, "A"))
	require.NoError(t, err)
	head, base = s.Head()
	_, err = s.Edit(ctx, 1, 2, base, insertAt(t, head.Len(), 1, "B"))
	require.NoError(t, err)

	_, err = s.Undo(ctx, engine.NewGroups(1))
	require.NoError(t, err)
	head, _ = s.Head()
	assert.Equal(t, "B", head.String())

	_, err = s.Toggle(ctx, engine.NewGroups(1, 2))
	require.NoError(t, err)
	head, _ = s.Head()
	assert.Equal(t, "A", head.String())

	reopened, err := Open(ctx, st, s.ID())
	require.NoError(t, err)
	head, _ = reopened.Head()
	assert.Equal(t, "A", head.String())
}

func TestSession_PreconditionErrorPersistsNothing(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()
	s := newTestSession(t, st, "abc")

	_, err := s.Edit(ctx, 0, 0, engine.RevID(99), insertAt(t, 3, 0, "x"))
	require.Error(t, err)
	assert.True(t, engine.IsUnknownRevision(err))

	info, err := st.GetSession(ctx, s.ID())
	require.NoError(t, err)
	assert.Equal(t, 1, info.Revisions)
	assert.Len(t, s.Revisions(), 1)
}

func TestSession_PersistFailureRollsBack(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()
	s := newTestSession(t, st, "abc")
	before, err := s.Digest()
	require.NoError(t, err)

	require.NoError(t, st.DeleteSession(ctx, s.ID()))

	head, base := s.Head()
	_, err = s.Edit(ctx, 0, 0, base, insertAt(t, head.Len(), 0, "x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrSessionNotFound)

	after, err := s.Digest()
	require.NoError(t, err)
	assert.Equal(t, before, after)
	head, _ = s.Head()
	assert.Equal(t, "abc", head.String())
}

func TestSession_RollbackDoesNotReissueID(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()
	s := newTestSession(t, st, "abc")

	snap, err := st.LoadSession(ctx, s.ID())
	require.NoError(t, err)
	require.NoError(t, st.DeleteSession(ctx, s.ID()))

	head, base := s.Head()
	_, err = s.Edit(ctx, 0, 0, base, insertAt(t, head.Len(), 0, "x"))
	require.Error(t, err)

	// Store is back; the next revision skips the id the failed edit took.
	require.NoError(t, st.CreateSession(ctx, s.ID(), "", snap))
	id, err := s.Edit(ctx, 0, 0, base, insertAt(t, head.Len(), 0, "y"))
	require.NoError(t, err)
	assert.Equal(t, engine.RevID(3), id)

	reopened, err := Open(ctx, st, s.ID())
	require.NoError(t, err)
	head, headID := reopened.Head()
	assert.Equal(t, "yabc", head.String())
	assert.Equal(t, engine.RevID(3), headID)
}

func TestSession_ReadAccessors(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()
	s := newTestSession(t, st, "ab")

	_, seed := s.Head()
	id, err := s.Edit(ctx, 0, 0, seed, insertAt(t, 2, 1, "X"))
	require.NoError(t, err)

	ix, ok := s.FindRev(id)
	require.True(t, ok)
	assert.Equal(t, 1, ix)

	q, err := s.Rev(0)
	require.NoError(t, err)
	assert.Equal(t, "ab", q.String())

	d, err := s.DeltaHead()
	require.NoError(t, err)
	assert.Equal(t, "aXb", d.Apply(q).String())
	assert.Equal(t, 3, s.UnionLen())
}

func TestSession_Verify(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()
	s := newTestSession(t, st, "abc")

	head, base := s.Head()
	_, err := s.Edit(ctx, 0, 4, base, insertAt(t, head.Len(), 3, "def"))
	require.NoError(t, err)
	_, err = s.Undo(ctx, engine.NewGroups(4))
	require.NoError(t, err)

	digest, err := s.Verify(ctx)
	require.NoError(t, err)

	want, err := s.Digest()
	require.NoError(t, err)
	assert.Equal(t, want, digest)
}

func TestSession_ConcurrentEdits(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()
	s := newTestSession(t, st, "")

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			head, base := s.Head()
			_, err := s.Edit(ctx, i, i, base, insertAt(t, head.Len(), 0, "x"))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	head, _ := s.Head()
	assert.Equal(t, "xxxxxxxx", head.String())

	info, err := st.GetSession(ctx, s.ID())
	require.NoError(t, err)
	assert.Equal(t, writers+1, info.Revisions)
}

func TestSession_RunProcessesQueue(t *testing.T) {
	st := setupTestStore(t)
	s := newTestSession(t, st, "abc")
	_, seed := s.Head()

	replies := make(chan Result, 3)
	require.True(t, s.Enqueue(Event{Type: EventTypeEdit, Priority: 0, Base: seed, Delta: insertAt(t, 3, 1, "1"), Reply: replies}))
	require.True(t, s.Enqueue(Event{Type: EventTypeEdit, Priority: 1, Base: seed, Delta: insertAt(t, 3, 1, "2"), Reply: replies}))
	require.True(t, s.Enqueue(Event{Type: EventTypeUndo, Groups: engine.NewGroups(), Reply: replies}))
	s.Stop()

	err := s.Run(context.Background())
	require.NoError(t, err)

	var ids []engine.RevID
	for range 3 {
		r := <-replies
		require.NoError(t, r.Err)
		ids = append(ids, r.Rev)
	}
	assert.Equal(t, []engine.RevID{2, 3, 4}, ids)

	head, _ := s.Head()
	assert.Equal(t, "a12bc", head.String())
	assert.False(t, s.Enqueue(Event{Type: EventTypeUndo}), "enqueue after stop")
}

func TestSession_RunLogsAndContinues(t *testing.T) {
	st := setupTestStore(t)
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	s := newTestSession(t, st, "abc", WithLogger(logger))
	_, seed := s.Head()

	replies := make(chan Result, 2)
	s.Enqueue(Event{Type: EventTypeEdit, Base: 42, Delta: insertAt(t, 3, 0, "x"), Reply: replies})
	s.Enqueue(Event{Type: EventTypeEdit, Base: seed, Delta: insertAt(t, 3, 0, "y"), Reply: replies})
	s.Stop()

	require.NoError(t, s.Run(context.Background()))

	first := <-replies
	assert.True(t, engine.IsUnknownRevision(first.Err))
	second := <-replies
	assert.NoError(t, second.Err)

	head, _ := s.Head()
	assert.Equal(t, "yabc", head.String())
	assert.Contains(t, buf.String(), "edit processing failed")
	assert.Contains(t, buf.String(), "session loop stopping: queue closed")
}

func TestSession_RunStopsOnCancel(t *testing.T) {
	st := setupTestStore(t)
	s := newTestSession(t, st, "")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	head, base := s.Head()
	replies := make(chan Result, 1)
	s.Enqueue(Event{Type: EventTypeEdit, Base: base, Delta: insertAt(t, head.Len(), 0, "z"), Reply: replies})

	select {
	case r := <-replies:
		require.NoError(t, r.Err)
	case <-time.After(5 * time.Second):
		t.Fatal("event not processed")
	}

	cancel()
	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop")
	}

	head, _ = s.Head()
	assert.Equal(t, "z", head.String())
}

func TestSession_UnknownEventType(t *testing.T) {
	st := setupTestStore(t)
	s := newTestSession(t, st, "")

	replies := make(chan Result, 1)
	s.Enqueue(Event{Type: EventType(9), Reply: replies})
	s.Stop()
	require.NoError(t, s.Run(context.Background()))

	r := <-replies
	require.Error(t, r.Err)
	assert.Contains(t, r.Err.Error(), "unknown event type")
}
