package review

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a suggestion ID does not exist.
	ErrNotFound = errors.New("suggestion not found")
	// ErrNotPending is returned when a transition is attempted on a
	// suggestion that has already been approved or rejected.
	ErrNotPending = errors.New("suggestion is not pending")
	// ErrAnalysisNotFound is returned by catalog stores when an update
	// targets an analysis that does not exist.
	ErrAnalysisNotFound = errors.New("analysis not found")
)

// ValidationError lists every input field that failed validation.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "invalid fields: " + strings.Join(e.Fields, ", ")
}

// StoreError wraps a failure of the underlying catalog or suggestion store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// PartialApprovalError is returned when an approval wrote to the catalog
// but could not mark the suggestion as approved. The catalog and the
// suggestion list disagree until an admin resolves it.
type PartialApprovalError struct {
	SuggestionID int64
	AnalysisID   int64
	Err          error
}

func (e *PartialApprovalError) Error() string {
	return fmt.Sprintf("suggestion %d applied to analysis %d but not marked approved: %v",
		e.SuggestionID, e.AnalysisID, e.Err)
}

func (e *PartialApprovalError) Unwrap() error { return e.Err }
