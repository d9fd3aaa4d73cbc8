// Package engine implements the weave merge engine: an append-only log of
// revisions over a growing union text.
//
// The engine accepts edits computed against any revision it has issued,
// not only the head. Each edit is rebased into the coordinate space of the
// union text, the synthetic text holding every character ever inserted,
// and appended as a new revision. Deleted characters stay in the union;
// each revision records which union positions it shows (FromUnion).
//
// ARCHITECTURE:
//
// Single Writer:
// Engine is a sequential state machine. EditRev and Undo must be
// serialized by the caller (see internal/session). Reads return immutable
// values that later mutations never touch.
//
// Rebase:
//  1. Factor the incoming delta into insertions and deletions
//  2. Expand both from base text coordinates into base union coordinates
//  3. Expand both through the inserts of every later revision; inserts at
//     the same gap are ordered by priority
//  4. Append the revision and grow the union text
//
// Undo:
// Undo records the set of groups that are undone and recomputes
// visibility by replaying every edit from the seed revision. It is a state
// ("these groups are hidden"), not a stack of inverse operations.
//
// INVARIANTS:
//   - Revision ids strictly increase in log order and are never reused
//   - Union length never decreases
//   - FromUnion.Count() equals the length of the revision's text
//   - The log always holds the seed revision
//
// Priorities of edits that may be concurrent must be distinct. Equal
// priorities produce a deterministic but unspecified order.
package engine
