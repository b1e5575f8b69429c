package store

import "errors"

var (
	// ErrNotFound is returned by writes that target a row that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a conditional write finds the row in an unexpected state.
	ErrConflict = errors.New("conflict")
)

// nullable maps empty strings to SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
