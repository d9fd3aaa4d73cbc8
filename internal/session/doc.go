// Package session is the single owner of one document's engine.
//
// ARCHITECTURE:
//
// A Session wraps an engine.Engine, serializes every mutation behind one
// mutex and persists each new revision to the store before the call
// returns. Remote edits may instead be enqueued from any goroutine and
// applied by the Run loop in arrival order.
//
// INVARIANTS:
//   - The stored log and the in-memory log are equal after every call
//     that returns; a failed persist rolls the engine back.
//   - Revisions are appended to the store in log order (seq = log index).
//   - Processing errors in Run are logged and skipped; the loop continues.
package session
