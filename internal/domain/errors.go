package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists signals a duplicate resource.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidQuestion signals a question that fails validation.
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrReferenceParse signals a reference solution with a syntax error.
	ErrReferenceParse = errors.New("reference does not parse")
	// ErrSourceTooLarge signals source text above the configured limit.
	ErrSourceTooLarge = errors.New("source too large")
	// ErrInternalScoring signals an unexpected failure inside the grader.
	ErrInternalScoring = errors.New("internal scoring error")

	// ErrRevisionConflict signals an optimistic locking conflict.
	ErrRevisionConflict = errors.New("revision conflict")
)

// RevisionConflictError wraps ErrRevisionConflict with the current resource revision.
type RevisionConflictError struct {
	CurrentRevision int
}

func (e *RevisionConflictError) Error() string {
	return fmt.Sprintf("%s: current revision is %d", ErrRevisionConflict.Error(), e.CurrentRevision)
}

func (e *RevisionConflictError) Unwrap() error { return ErrRevisionConflict }

// NewRevisionConflict creates a revision conflict error.
func NewRevisionConflict(currentRevision int) error {
	return &RevisionConflictError{CurrentRevision: currentRevision}
}
