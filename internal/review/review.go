// Package review implements the suggestion lifecycle. Visitors submit
// suggestions, an admin reviews them, and approval merges the suggested
// analysis into the catalog.
package review

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/erazemk/compendium/internal/model"
)

// CatalogStore is the catalog as seen by the lifecycle manager.
type CatalogStore interface {
	// GetAnalysis returns nil, nil when the analysis does not exist.
	GetAnalysis(ctx context.Context, id int64) (*model.Analysis, error)
	InsertAnalysis(ctx context.Context, a model.Analysis) (int64, error)
	// UpdateAnalysis returns ErrAnalysisNotFound when a.ID does not exist.
	UpdateAnalysis(ctx context.Context, a model.Analysis) error
}

// SuggestionStore persists suggestions.
type SuggestionStore interface {
	ListSuggestions(ctx context.Context) ([]model.Suggestion, error)
	// GetSuggestion returns nil, nil when the suggestion does not exist.
	GetSuggestion(ctx context.Context, id int64) (*model.Suggestion, error)
	InsertSuggestion(ctx context.Context, s model.Suggestion) (int64, error)
	// SetSuggestionStatus returns ErrNotFound or ErrNotPending when the
	// suggestion is missing or not in status from.
	SetSuggestionStatus(ctx context.Context, id int64, from, to string) error
	SetSuggestionAnalysis(ctx context.Context, id int64, a model.Analysis) error
	DeleteSuggestion(ctx context.Context, id int64) error
}

// Author identifies who submitted a suggestion.
type Author struct {
	Name  string `json:"author_name"`
	Lab   string `json:"author_lab"`
	Email string `json:"author_email"`
}

// SubmitRequest is a visitor's suggestion before it is stored.
type SubmitRequest struct {
	Type     string
	Analysis model.Analysis
	Author   Author
}

// Manager owns suggestion status. It never caches suggestions; every
// operation re-reads the record from the store.
type Manager struct {
	Catalog     CatalogStore
	Suggestions SuggestionStore
	Clock       Clock
}

// NewManager creates a manager using the system clock.
func NewManager(catalog CatalogStore, suggestions SuggestionStore) *Manager {
	return &Manager{Catalog: catalog, Suggestions: suggestions, Clock: SystemClock{}}
}

// Submit validates and stores a new pending suggestion.
func (m *Manager) Submit(ctx context.Context, req SubmitRequest) (*model.Suggestion, error) {
	s := model.Suggestion{
		Type:        strings.TrimSpace(req.Type),
		Analysis:    req.Analysis.Trimmed(),
		AuthorName:  strings.TrimSpace(req.Author.Name),
		AuthorLab:   strings.TrimSpace(req.Author.Lab),
		AuthorEmail: strings.TrimSpace(req.Author.Email),
		Status:      model.SuggestionStatusPending,
	}

	fields := s.Analysis.MissingFields()
	if s.AuthorName == "" {
		fields = append(fields, "author_name")
	}
	if s.AuthorLab == "" {
		fields = append(fields, "author_lab")
	}
	if s.AuthorEmail == "" {
		fields = append(fields, "author_email")
	}
	if !model.ValidSuggestionType(s.Type) {
		fields = append(fields, "type")
	}

	switch s.Type {
	case model.SuggestionTypeAdd:
		s.Analysis.ID = 0
	case model.SuggestionTypeEdit:
		if s.Analysis.ID <= 0 {
			fields = append(fields, "id")
			break
		}
		target, err := m.Catalog.GetAnalysis(ctx, s.Analysis.ID)
		if err != nil {
			return nil, m.storeError("get analysis", err)
		}
		if target == nil {
			fields = append(fields, "id")
		}
	}

	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	s.CreatedAt = m.now()
	id, err := m.Suggestions.InsertSuggestion(ctx, s)
	if err != nil {
		return nil, m.storeError("insert suggestion", err)
	}
	s.ID = id

	slog.Info("suggestion submitted", "id", id, "type", s.Type, "analysis", s.Analysis.Name)
	return &s, nil
}

// List returns all suggestions, newest first.
func (m *Manager) List(ctx context.Context) ([]model.Suggestion, error) {
	suggestions, err := m.Suggestions.ListSuggestions(ctx)
	if err != nil {
		return nil, m.storeError("list suggestions", err)
	}
	if suggestions == nil {
		suggestions = []model.Suggestion{}
	}
	return suggestions, nil
}

// Get returns one suggestion.
func (m *Manager) Get(ctx context.Context, id int64) (*model.Suggestion, error) {
	s, err := m.Suggestions.GetSuggestion(ctx, id)
	if err != nil {
		return nil, m.storeError("get suggestion", err)
	}
	if s == nil {
		return nil, ErrNotFound
	}
	return s, nil
}

// Amend replaces the analysis payload of a pending suggestion. The type
// and author are left untouched.
func (m *Manager) Amend(ctx context.Context, id int64, a model.Analysis) (*model.Suggestion, error) {
	s, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Status != model.SuggestionStatusPending {
		return nil, ErrNotPending
	}

	a = a.Trimmed()
	if fields := a.MissingFields(); len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}
	if s.Type == model.SuggestionTypeAdd {
		a.ID = 0
	} else {
		// The edit target is fixed at submission.
		a.ID = s.Analysis.ID
	}

	if err := m.Suggestions.SetSuggestionAnalysis(ctx, id, a); err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrNotPending) {
			return nil, err
		}
		return nil, m.storeError("amend suggestion", err)
	}
	s.Analysis = a

	slog.Info("suggestion amended", "id", id)
	return s, nil
}

// Approve applies a pending suggestion to the catalog and marks it
// approved. It returns the ID of the inserted or updated analysis.
func (m *Manager) Approve(ctx context.Context, id int64) (int64, error) {
	s, err := m.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	if s.Status != model.SuggestionStatusPending {
		return 0, ErrNotPending
	}

	var analysisID int64
	switch s.Type {
	case model.SuggestionTypeAdd:
		a := s.Analysis
		a.ID = 0
		analysisID, err = m.Catalog.InsertAnalysis(ctx, a)
		if err != nil {
			return 0, m.storeError("insert analysis", err)
		}
	case model.SuggestionTypeEdit:
		analysisID = s.Analysis.ID
		if err := m.Catalog.UpdateAnalysis(ctx, s.Analysis); err != nil {
			if errors.Is(err, ErrAnalysisNotFound) {
				return 0, err
			}
			return 0, m.storeError("update analysis", err)
		}
	default:
		return 0, &ValidationError{Fields: []string{"type"}}
	}

	err = m.Suggestions.SetSuggestionStatus(ctx, id, model.SuggestionStatusPending, model.SuggestionStatusApproved)
	if err != nil {
		slog.Error("approval left catalog and suggestions inconsistent",
			"suggestion", id, "analysis", analysisID, "error", err)
		return analysisID, &PartialApprovalError{SuggestionID: id, AnalysisID: analysisID, Err: err}
	}

	slog.Info("suggestion approved", "id", id, "type", s.Type, "analysis", analysisID)
	return analysisID, nil
}

// Reject marks a pending suggestion rejected. The catalog is not touched.
func (m *Manager) Reject(ctx context.Context, id int64) error {
	err := m.Suggestions.SetSuggestionStatus(ctx, id, model.SuggestionStatusPending, model.SuggestionStatusRejected)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrNotPending) {
			return err
		}
		return m.storeError("reject suggestion", err)
	}

	slog.Info("suggestion rejected", "id", id)
	return nil
}

// Delete removes a suggestion in any status. The catalog is not touched.
func (m *Manager) Delete(ctx context.Context, id int64) error {
	if err := m.Suggestions.DeleteSuggestion(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return m.storeError("delete suggestion", err)
	}

	slog.Info("suggestion deleted", "id", id)
	return nil
}

func (m *Manager) now() time.Time {
	if m.Clock == nil {
		return SystemClock{}.Now()
	}
	return m.Clock.Now()
}

func (m *Manager) storeError(op string, err error) error {
	slog.Error("store failure", "op", op, "error", err)
	return &StoreError{Op: op, Err: err}
}
