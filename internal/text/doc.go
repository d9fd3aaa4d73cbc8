// Package text provides the immutable text sequence the merge engine
// slices and rebuilds.
//
// A Sequence is a value: every operation returns a new Sequence and never
// modifies the receiver, so snapshots handed to readers stay valid after
// later edits. Positions are byte offsets into the UTF-8 encoding.
package text
