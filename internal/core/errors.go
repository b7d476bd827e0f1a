package core

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidSelection = errors.New("invalid selection")
	ErrEmptyColumnName  = errors.New("column name is empty")
	ErrDuplicateColumn  = errors.New("duplicate column name")
	ErrUnknownColumn    = errors.New("unknown column")
	ErrRowOutOfRange    = errors.New("row index out of range")
	ErrUnknownDataset   = errors.New("unknown dataset")
	ErrDuplicateDataset = errors.New("dataset already registered")
	ErrSessionNotFound  = errors.New("session not found")
	ErrSnapshotNotFound = errors.New("snapshot not found")
	ErrTooManySessions  = errors.New("too many open sessions")
)

// InvalidSelectionError reports a programmatic selection that violates the
// ledger's cardinality or contains something that is not a row index.
type InvalidSelectionError struct {
	Reason string
	Value  any
}

func (e *InvalidSelectionError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("invalid selection: %s", e.Reason)
	}
	return fmt.Sprintf("invalid selection: %s: %v", e.Reason, e.Value)
}

// Is makes errors.Is(err, ErrInvalidSelection) hold for every InvalidSelectionError.
func (e *InvalidSelectionError) Is(target error) bool {
	return target == ErrInvalidSelection
}

func invalidSelection(reason string, value any) error {
	return &InvalidSelectionError{Reason: reason, Value: value}
}
