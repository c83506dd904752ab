package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound         = errors.New("resource not found")
	ErrSnapshotNotFound = fmt.Errorf("%w: snapshot", ErrNotFound)

	// Contract violations
	ErrKindMismatch = errors.New("analysis kind mismatch")
	ErrUnknownKind  = errors.New("unknown analysis kind")
	ErrNoBinding    = errors.New("analysis has no agent binding")

	// Persistence errors
	ErrCorruptSnapshot = errors.New("corrupt analysis snapshot")
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewKindMismatchError(got, want string) error {
	return fmt.Errorf("%w: got %s, want %s", ErrKindMismatch, got, want)
}

func NewUnknownKindError(kind string) error {
	return fmt.Errorf("%w: %s", ErrUnknownKind, kind)
}

func NewCorruptSnapshotError(detail string, cause error) error {
	if cause != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorruptSnapshot, detail, cause)
	}
	return fmt.Errorf("%w: %s", ErrCorruptSnapshot, detail)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsContractViolation reports whether err is one of the analysis contract
// violations: calling across unlike kinds, decoding an unregistered kind, or
// using a loaded analysis before rebinding its collaborators.
func IsContractViolation(err error) bool {
	return errors.Is(err, ErrKindMismatch) ||
		errors.Is(err, ErrUnknownKind) ||
		errors.Is(err, ErrNoBinding)
}

func IsCorruptSnapshot(err error) bool {
	return errors.Is(err, ErrCorruptSnapshot)
}
