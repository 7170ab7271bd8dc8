package domain

import "fmt"

// ValidationError reports malformed input. It aborts the single operation
// and is never retried.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

// StateTransitionError reports an illegal lifecycle move.
type StateTransitionError struct {
	From ShiftStatus
	To   ShiftStatus
}

func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("illegal shift transition %s -> %s", e.From, e.To)
}

// NotFoundError reports a referenced entity that is absent.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// PersistenceError wraps a failed durable write. Remote persistence failures
// are recovered via the offline queue and never surface to callers; a local
// store failure has no further fallback and is fatal to the operation.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
