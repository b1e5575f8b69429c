package store

import (
	"context"
	"errors"

	"github.com/erazemk/compendium/internal/db"
	"github.com/erazemk/compendium/internal/model"
	"github.com/erazemk/compendium/internal/review"
)

// Catalog exposes the analyses table to the review manager.
type Catalog struct {
	DB *db.DB
}

var _ review.CatalogStore = Catalog{}

func (c Catalog) GetAnalysis(ctx context.Context, id int64) (*model.Analysis, error) {
	return GetAnalysis(ctx, c.DB, id)
}

func (c Catalog) InsertAnalysis(ctx context.Context, a model.Analysis) (int64, error) {
	return CreateAnalysis(ctx, c.DB, a)
}

func (c Catalog) UpdateAnalysis(ctx context.Context, a model.Analysis) error {
	err := UpdateAnalysis(ctx, c.DB, a)
	if errors.Is(err, ErrNotFound) {
		return review.ErrAnalysisNotFound
	}
	return err
}

// Suggestions exposes the suggestions table to the review manager.
type Suggestions struct {
	DB *db.DB
}

var _ review.SuggestionStore = Suggestions{}

func (s Suggestions) ListSuggestions(ctx context.Context) ([]model.Suggestion, error) {
	return ListSuggestions(ctx, s.DB)
}

func (s Suggestions) GetSuggestion(ctx context.Context, id int64) (*model.Suggestion, error) {
	return GetSuggestion(ctx, s.DB, id)
}

func (s Suggestions) InsertSuggestion(ctx context.Context, sg model.Suggestion) (int64, error) {
	return CreateSuggestion(ctx, s.DB, sg)
}

func (s Suggestions) SetSuggestionStatus(ctx context.Context, id int64, from, to string) error {
	return reviewError(UpdateSuggestionStatus(ctx, s.DB, id, from, to))
}

func (s Suggestions) SetSuggestionAnalysis(ctx context.Context, id int64, a model.Analysis) error {
	return reviewError(UpdateSuggestionAnalysis(ctx, s.DB, id, a))
}

func (s Suggestions) DeleteSuggestion(ctx context.Context, id int64) error {
	return reviewError(DeleteSuggestion(ctx, s.DB, id))
}

func reviewError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return review.ErrNotFound
	case errors.Is(err, ErrConflict):
		return review.ErrNotPending
	}
	return err
}
