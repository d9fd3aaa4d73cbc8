package session

import (
	"context"
	"fmt"

	"github.com/roach88/weave/internal/engine"
)

// Enqueue submits an event for the Run loop.
// Thread-safe: may be called from any goroutine.
// Returns false if the session has been stopped.
func (s *Session) Enqueue(ev Event) bool {
	return s.queue.Enqueue(ev)
}

// Run processes queued events until ctx is cancelled or Stop is called.
//
// Failed events are logged with their full context and skipped. Retrying
// would reorder them relative to later events.
func (s *Session) Run(ctx context.Context) error {
	s.logger.Info("session loop starting", "session", s.id)

	for {
		event, ok := s.queue.TryDequeue()
		if ok {
			rev, err := s.processEvent(ctx, event)
			if err != nil {
				s.logEventError(event, err)
			}
			if event.Reply != nil {
				select {
				case event.Reply <- Result{Rev: rev, Err: err}:
				default:
					s.logger.Warn("reply dropped", "session", s.id, "event_type", event.Type.String())
				}
			}
			continue
		}

		select {
		case <-ctx.Done():
			s.logger.Info("session loop stopping: context cancelled", "session", s.id)
			s.queue.Close()
			return ctx.Err()

		case <-s.queue.Wait():
			// The signal channel closes with the queue, so this fires
			// immediately once stopped.
			if s.queue.closedAndEmpty() {
				s.logger.Info("session loop stopping: queue closed", "session", s.id)
				return nil
			}
		}
	}
}

// Stop closes the queue. Run drains what is already queued, then returns.
func (s *Session) Stop() {
	s.queue.Close()
}

func (s *Session) processEvent(ctx context.Context, ev Event) (rev engine.RevID, err error) {
	switch ev.Type {
	case EventTypeEdit:
		return s.Edit(ctx, ev.Priority, ev.Group, ev.Base, ev.Delta)
	case EventTypeUndo:
		return s.Undo(ctx, ev.Groups)
	default:
		return 0, fmt.Errorf("unknown event type %d", ev.Type)
	}
}

func (s *Session) logEventError(ev Event, err error) {
	switch ev.Type {
	case EventTypeEdit:
		s.logger.Error("edit processing failed",
			"error", err,
			"session", s.id,
			"base", ev.Base,
			"priority", ev.Priority,
			"group", ev.Group,
		)
	case EventTypeUndo:
		s.logger.Error("undo processing failed",
			"error", err,
			"session", s.id,
			"groups", ev.Groups.IDs(),
		)
	default:
		s.logger.Error("event processing failed",
			"error", err,
			"session", s.id,
			"event_type", int(ev.Type),
		)
	}
}
