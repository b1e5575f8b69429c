package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/erazemk/compendium/internal/db"
	"github.com/erazemk/compendium/internal/model"
)

const suggestionColumns = `id, type, analysis, author_name, author_lab, author_email, status, created_at`

func scanSuggestion(row rowScanner) (model.Suggestion, error) {
	var s model.Suggestion
	var payload string
	if err := row.Scan(&s.ID, &s.Type, &payload, &s.AuthorName, &s.AuthorLab, &s.AuthorEmail, &s.Status, &s.CreatedAt); err != nil {
		return s, err
	}
	if err := json.Unmarshal([]byte(payload), &s.Analysis); err != nil {
		return s, fmt.Errorf("decoding suggestion %d payload: %w", s.ID, err)
	}
	return s, nil
}

// CreateSuggestion stores a new suggestion and returns its ID.
func CreateSuggestion(ctx context.Context, d *db.DB, s model.Suggestion) (int64, error) {
	payload, err := json.Marshal(s.Analysis)
	if err != nil {
		return 0, fmt.Errorf("encoding suggestion payload: %w", err)
	}
	if s.Status == "" {
		s.Status = model.SuggestionStatusPending
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}

	var id int64
	err = d.QueryRowContext(ctx,
		`INSERT INTO suggestions (type, analysis, author_name, author_lab, author_email, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		s.Type, string(payload), s.AuthorName, s.AuthorLab, s.AuthorEmail, s.Status, s.CreatedAt.UTC(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("creating suggestion: %w", err)
	}
	return id, nil
}

// GetSuggestion returns a suggestion by ID.
func GetSuggestion(ctx context.Context, d *db.DB, id int64) (*model.Suggestion, error) {
	row := d.QueryRowContext(ctx, `SELECT `+suggestionColumns+` FROM suggestions WHERE id = ?`, id)
	s, err := scanSuggestion(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting suggestion: %w", err)
	}
	return &s, nil
}

// ListSuggestions returns all suggestions, newest first.
func ListSuggestions(ctx context.Context, d *db.DB) ([]model.Suggestion, error) {
	rows, err := d.QueryContext(ctx,
		`SELECT `+suggestionColumns+` FROM suggestions ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing suggestions: %w", err)
	}
	defer rows.Close()

	var suggestions []model.Suggestion
	for rows.Next() {
		s, err := scanSuggestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning suggestion: %w", err)
		}
		suggestions = append(suggestions, s)
	}
	return suggestions, rows.Err()
}

// UpdateSuggestionStatus moves a suggestion from one status to another.
// It returns ErrNotFound if the suggestion does not exist and ErrConflict
// if its current status is not from.
func UpdateSuggestionStatus(ctx context.Context, d *db.DB, id int64, from, to string) error {
	result, err := d.ExecContext(ctx,
		`UPDATE suggestions SET status = ? WHERE id = ? AND status = ?`,
		to, id, from,
	)
	if err != nil {
		return fmt.Errorf("updating suggestion status: %w", err)
	}
	return checkSuggestionWrite(ctx, d, result, id)
}

// UpdateSuggestionAnalysis replaces the payload of a pending suggestion.
func UpdateSuggestionAnalysis(ctx context.Context, d *db.DB, id int64, a model.Analysis) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encoding suggestion payload: %w", err)
	}

	result, err := d.ExecContext(ctx,
		`UPDATE suggestions SET analysis = ? WHERE id = ? AND status = ?`,
		string(payload), id, model.SuggestionStatusPending,
	)
	if err != nil {
		return fmt.Errorf("updating suggestion payload: %w", err)
	}
	return checkSuggestionWrite(ctx, d, result, id)
}

func checkSuggestionWrite(ctx context.Context, d *db.DB, result sql.Result, id int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking suggestion update: %w", err)
	}
	if n > 0 {
		return nil
	}

	existing, err := GetSuggestion(ctx, d, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrNotFound
	}
	return ErrConflict
}

// DeleteSuggestion permanently removes a suggestion regardless of status.
func DeleteSuggestion(ctx context.Context, d *db.DB, id int64) error {
	result, err := d.ExecContext(ctx, `DELETE FROM suggestions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting suggestion: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting suggestion: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
