// Package harness runs YAML edit scenarios against a real session.
//
// A scenario seeds a document, applies a list of steps (edits against a
// labelled base revision, undo sets, group toggles, head expectations)
// and then evaluates assertions on the final state. Each run uses a fresh
// in-memory store, so the persisted log is exercised too: the run ends by
// reloading the session and comparing digests.
//
// Example scenario:
//
//	name: concurrent_insert
//	description: two edits computed against the seed
//	steps:
//	  - edit: {label: a, base: seed, priority: 0, insert: {at: 0, text: "abc"}}
//	  - edit: {label: b, base: seed, priority: 1, insert: {at: 0, text: "XY"}}
//	  - expect: "abcXY"
//	assertions:
//	  - {type: rev, label: a, text: "abc"}
//
// Golden files hold the canonical JSON revision log of a run and live in
// testdata/golden. Regenerate them with:
//
//	go test ./internal/harness -update
package harness
