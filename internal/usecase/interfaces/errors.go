package interfaces

import "errors"

// Errors every catalog store implementation must surface so use cases can
// tell conflicts apart from unexpected failures.
var (
	// ErrStaleWrite is returned when a conditional write observes a version
	// different from the one the caller read.
	ErrStaleWrite = errors.New("stale write: entity changed since it was read")
	// ErrInUse is returned when a delete would orphan referencing entities.
	ErrInUse = errors.New("entity is referenced by other entities")
)
