package engine

import (
	"errors"
	"fmt"
)

// PreconditionError reports a caller bug: the request refers to engine
// state the caller never received, or asks for something the log cannot
// provide. The engine is left unchanged; callers should treat these as
// fatal for the session rather than retry.
type PreconditionError struct {
	// Code identifies the error category.
	Code PreconditionCode

	// Message is a human-readable description.
	Message string

	// Rev is the revision id involved, when there is one.
	Rev RevID
}

// PreconditionCode categorizes precondition errors.
type PreconditionCode string

const (
	// ErrCodeUnknownRevision indicates a base revision id the engine never issued.
	ErrCodeUnknownRevision PreconditionCode = "UNKNOWN_REVISION"

	// ErrCodeNoPreviousRevision indicates DeltaHead on a log with only the seed.
	ErrCodeNoPreviousRevision PreconditionCode = "NO_PREVIOUS_REVISION"

	// ErrCodeRevisionOutOfRange indicates a log index past either end.
	ErrCodeRevisionOutOfRange PreconditionCode = "REVISION_OUT_OF_RANGE"

	// ErrCodeDeltaBaseMismatch indicates a delta whose base length differs
	// from the text of the revision it claims to be based on.
	ErrCodeDeltaBaseMismatch PreconditionCode = "DELTA_BASE_MISMATCH"

	// ErrCodeInvalidSnapshot indicates a persisted log that breaks a log invariant.
	ErrCodeInvalidSnapshot PreconditionCode = "INVALID_SNAPSHOT"
)

// Error implements the error interface.
func (e *PreconditionError) Error() string {
	if e.Rev != 0 {
		return fmt.Sprintf("%s: %s (rev=%d)", e.Code, e.Message, e.Rev)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsUnknownRevision returns true if err is an unknown base revision error.
// Uses errors.As to handle wrapped errors.
func IsUnknownRevision(err error) bool {
	return hasCode(err, ErrCodeUnknownRevision)
}

// IsNoPreviousRevision returns true if err came from DeltaHead on a
// single-revision log.
func IsNoPreviousRevision(err error) bool {
	return hasCode(err, ErrCodeNoPreviousRevision)
}

// IsInvalidSnapshot returns true if err came from Restore rejecting a
// persisted log.
func IsInvalidSnapshot(err error) bool {
	return hasCode(err, ErrCodeInvalidSnapshot)
}

// IsPrecondition returns true for any precondition error.
func IsPrecondition(err error) bool {
	var pe *PreconditionError
	return errors.As(err, &pe)
}

func hasCode(err error, code PreconditionCode) bool {
	var pe *PreconditionError
	if errors.As(err, &pe) {
		return pe.Code == code
	}
	return false
}

func newUnknownRevisionError(id RevID) *PreconditionError {
	return &PreconditionError{
		Code:    ErrCodeUnknownRevision,
		Message: "base revision not found",
		Rev:     id,
	}
}

func newNoPreviousRevisionError() *PreconditionError {
	return &PreconditionError{
		Code:    ErrCodeNoPreviousRevision,
		Message: "delta requires at least two revisions",
	}
}

func newOutOfRangeError(index, n int) *PreconditionError {
	return &PreconditionError{
		Code:    ErrCodeRevisionOutOfRange,
		Message: fmt.Sprintf("revision index %d outside log of %d", index, n),
	}
}

func newDeltaBaseMismatchError(id RevID, got, want int) *PreconditionError {
	return &PreconditionError{
		Code:    ErrCodeDeltaBaseMismatch,
		Message: fmt.Sprintf("delta base length %d, revision text length %d", got, want),
		Rev:     id,
	}
}

func newInvalidSnapshotError(format string, args ...any) *PreconditionError {
	return &PreconditionError{
		Code:    ErrCodeInvalidSnapshot,
		Message: fmt.Sprintf(format, args...),
	}
}
