package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/roach88/weave/internal/delta"
	"github.com/roach88/weave/internal/engine"
	"github.com/roach88/weave/internal/store"
	"github.com/roach88/weave/internal/text"
)

// Session owns one engine and its persisted log.
//
// Thread-safety: all methods are safe for concurrent use. Mutations are
// serialized; reads observe the state after the last completed mutation.
type Session struct {
	mu     sync.Mutex
	id     string
	name   string
	eng    *engine.Engine
	store  *store.Store
	queue  *eventQueue
	logger *slog.Logger
	idGen  IDGenerator
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger for the session and its engine.
// Default: a logger that discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithIDGenerator sets the session id generator used by New.
// Default: UUIDv7Generator.
func WithIDGenerator(gen IDGenerator) Option {
	return func(s *Session) {
		if gen != nil {
			s.idGen = gen
		}
	}
}

// WithName sets the display name recorded by New.
func WithName(name string) Option {
	return func(s *Session) {
		s.name = name
	}
}

func newSession(st *store.Store, opts []Option) *Session {
	s := &Session{
		store:  st,
		queue:  newEventQueue(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		idGen:  UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// New creates a session whose seed revision shows initial and stores it.
func New(ctx context.Context, st *store.Store, initial string, opts ...Option) (*Session, error) {
	s := newSession(st, opts)
	s.id = s.idGen.Generate()
	s.eng = engine.New(initial, engine.WithLogger(s.logger))

	if err := st.CreateSession(ctx, s.id, s.name, s.eng.Snapshot()); err != nil {
		return nil, fmt.Errorf("new session: %w", err)
	}
	s.logger.Info("session created", "session", s.id, "len", len(initial))
	return s, nil
}

// Open loads a stored session and rebuilds its engine verbatim.
func Open(ctx context.Context, st *store.Store, id string, opts ...Option) (*Session, error) {
	s := newSession(st, opts)
	s.id = id

	info, err := st.GetSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	s.name = info.Name

	eng, err := load(ctx, st, id, s.logger)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	s.eng = eng
	return s, nil
}

func load(ctx context.Context, st *store.Store, id string, logger *slog.Logger) (*engine.Engine, error) {
	snap, err := st.LoadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	eng, err := engine.Restore(snap, engine.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("restore %s: %w", id, err)
	}
	return eng, nil
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Name returns the display name.
func (s *Session) Name() string {
	return s.name
}

// Edit rebases d, computed against revision base, and persists the result.
func (s *Session) Edit(ctx context.Context, priority, group int, base engine.RevID, d delta.Delta) (engine.RevID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mutate(ctx, func(e *engine.Engine) (engine.RevID, error) {
		return e.EditRev(priority, group, base, d)
	})
}

// Undo makes exactly groups undone and persists the Undo revision.
func (s *Session) Undo(ctx context.Context, groups engine.Groups) (engine.RevID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mutate(ctx, func(e *engine.Engine) (engine.RevID, error) {
		return e.Undo(groups), nil
	})
}

// Toggle flips the undone state of groups and persists the Undo revision.
func (s *Session) Toggle(ctx context.Context, groups engine.Groups) (engine.RevID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mutate(ctx, func(e *engine.Engine) (engine.RevID, error) {
		return e.Toggle(groups), nil
	})
}

// mutate applies fn and stores the appended revision. If the store write
// fails the engine is reverted to the pre-call snapshot; the id the failed
// revision took is not issued again.
// Caller must hold s.mu.
func (s *Session) mutate(ctx context.Context, fn func(*engine.Engine) (engine.RevID, error)) (engine.RevID, error) {
	before := s.eng.Snapshot()

	id, err := fn(s.eng)
	if err != nil {
		return 0, err
	}

	seq := s.eng.Len() - 1
	revs := s.eng.Revisions()
	if err := s.store.AppendRevision(ctx, s.id, seq, revs[seq], s.eng.Union()); err != nil {
		restored, rerr := engine.Restore(before, engine.WithLogger(s.logger), engine.ResumeAfter(id))
		if rerr != nil {
			// before came from a live engine, so it is always restorable
			panic(fmt.Sprintf("session %s: rollback failed: %v", s.id, rerr))
		}
		s.eng = restored
		return 0, fmt.Errorf("persist revision %d: %w", id, err)
	}
	return id, nil
}

// Head returns the current text and the id to base new edits on.
func (s *Session) Head() (text.Sequence, engine.RevID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eng.Head(), s.eng.HeadRevID()
}

// DeltaHead returns the delta from the previous head to the current one.
func (s *Session) DeltaHead() (delta.Delta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eng.DeltaHead()
}

// Rev reconstructs the text of the revision at log index.
func (s *Session) Rev(index int) (text.Sequence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eng.Rev(index)
}

// FindRev returns the log index of a revision id.
func (s *Session) FindRev(id engine.RevID) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eng.FindRev(id)
}

// Revisions returns a copy of the revision log.
func (s *Session) Revisions() []engine.Revision {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eng.Revisions()
}

// UnionLen returns the union text length.
func (s *Session) UnionLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eng.UnionLen()
}

// Digest returns the engine state digest.
func (s *Session) Digest() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eng.Digest()
}

// Verify reloads the session from the store twice and checks that both
// reloads and the in-memory engine share one digest.
func (s *Session) Verify(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	want, err := s.eng.Digest()
	if err != nil {
		return "", fmt.Errorf("verify: %w", err)
	}
	for i := range 2 {
		eng, err := load(ctx, s.store, s.id, s.logger)
		if err != nil {
			return "", fmt.Errorf("verify: reload %d: %w", i+1, err)
		}
		got, err := eng.Digest()
		if err != nil {
			return "", fmt.Errorf("verify: reload %d: %w", i+1, err)
		}
		if got != want {
			return "", fmt.Errorf("verify: reload %d digest %s, in memory %s", i+1, got, want)
		}
	}
	return want, nil
}
