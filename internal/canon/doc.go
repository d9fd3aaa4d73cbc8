// Package canon produces canonical JSON (RFC 8785 subset) and
// domain-separated SHA-256 digests.
//
// Canonical bytes are used for anything compared across processes:
// persisted revision metadata and the engine state digest that proves two
// replays converged. Floats and null are rejected.
package canon
