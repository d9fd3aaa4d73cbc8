// Package subset implements position subsets: a marking of which
// positions in a coordinate space of length N are selected.
//
// Subsets are stored as normalized runs (adjacent runs always differ in
// marking, no run is empty), so a subset over a long union text that
// changes in only a few places stays small.
//
// # Coordinate transforms
//
// The merge engine moves subsets between coordinate spaces as text is
// inserted. Given a subset S over length n and a subset X over length m
// with exactly n unmarked positions, S.TransformExpand(X) and
// S.TransformIntersect(X) both map position i of S onto the i-th unmarked
// position of X. They differ only in how they treat the positions X
// marks: TransformExpand marks them, TransformIntersect leaves them out.
//
//	S:  ab        (marked: a)
//	X:  .XX.      (marked: the two X)
//	TransformExpand(X):    aXXb -> marked a, X, X
//	TransformIntersect(X): aXXb -> marked a
package subset
