package model

import "time"

// Suggestion is a visitor-submitted proposal to add or edit an analysis.
type Suggestion struct {
	ID          int64     `json:"id"`
	Type        string    `json:"type"`
	Analysis    Analysis  `json:"analysis"`
	AuthorName  string    `json:"author_name"`
	AuthorLab   string    `json:"author_lab"`
	AuthorEmail string    `json:"author_email"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// Suggestion types.
const (
	SuggestionTypeAdd  = "add"
	SuggestionTypeEdit = "edit"
)

// Suggestion statuses.
const (
	SuggestionStatusPending  = "pending"
	SuggestionStatusApproved = "approved"
	SuggestionStatusRejected = "rejected"
)

// ValidSuggestionType reports whether t is a known suggestion type.
func ValidSuggestionType(t string) bool {
	return t == SuggestionTypeAdd || t == SuggestionTypeEdit
}
