// Package delta describes edits to a text sequence.
//
// A Delta is a left-to-right list of elements over a base sequence: Copy
// elements keep a range of the base, Insert elements add new text. Any
// base range not copied is deleted. The merge engine splits a delta into
// its insertions and its deletions (Factor), moves the insertions into a
// larger coordinate space (TransformExpand), and records where new text
// landed (InvertInsert).
package delta
