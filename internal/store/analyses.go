package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/erazemk/compendium/internal/db"
	"github.com/erazemk/compendium/internal/model"
)

const analysisColumns = `id, name, laboratory, sector, form, sample_type, device, frequency,
	tat, units, reference_values, stability, inami_code`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(row rowScanner) (model.Analysis, error) {
	var a model.Analysis
	var sector, form, sampleType, device, frequency, tat, units, refValues, stability, inami sql.NullString
	err := row.Scan(&a.ID, &a.Name, &a.Laboratory, &sector, &form, &sampleType, &device, &frequency,
		&tat, &units, &refValues, &stability, &inami)
	if err != nil {
		return a, err
	}
	a.Sector = sector.String
	a.Form = form.String
	a.SampleType = sampleType.String
	a.Device = device.String
	a.Frequency = frequency.String
	a.TAT = tat.String
	a.Units = units.String
	a.ReferenceValues = refValues.String
	a.Stability = stability.String
	a.InamiCode = inami.String
	return a, nil
}

func analysisArgs(a model.Analysis) []any {
	return []any{
		a.Name, a.Laboratory, nullable(a.Sector), nullable(a.Form), nullable(a.SampleType),
		nullable(a.Device), nullable(a.Frequency), nullable(a.TAT), nullable(a.Units),
		nullable(a.ReferenceValues), nullable(a.Stability), nullable(a.InamiCode),
	}
}

const insertAnalysisSQL = `INSERT INTO analyses (name, laboratory, sector, form, sample_type, device,
	frequency, tat, units, reference_values, stability, inami_code)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`

// CreateAnalysis inserts a new analysis and returns its ID. Any ID on a is ignored.
func CreateAnalysis(ctx context.Context, d *db.DB, a model.Analysis) (int64, error) {
	var id int64
	if err := d.QueryRowContext(ctx, insertAnalysisSQL, analysisArgs(a)...).Scan(&id); err != nil {
		return 0, fmt.Errorf("creating analysis: %w", err)
	}
	return id, nil
}

// GetAnalysis returns an analysis by ID.
func GetAnalysis(ctx context.Context, d *db.DB, id int64) (*model.Analysis, error) {
	row := d.QueryRowContext(ctx, `SELECT `+analysisColumns+` FROM analyses WHERE id = ?`, id)
	a, err := scanAnalysis(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting analysis: %w", err)
	}
	return &a, nil
}

// ListAnalyses returns the whole catalog in insertion order.
func ListAnalyses(ctx context.Context, d *db.DB) ([]model.Analysis, error) {
	rows, err := d.QueryContext(ctx, `SELECT `+analysisColumns+` FROM analyses ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing analyses: %w", err)
	}
	defer rows.Close()

	var analyses []model.Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning analysis: %w", err)
		}
		analyses = append(analyses, a)
	}
	return analyses, rows.Err()
}

// UpdateAnalysis overwrites every descriptive field of the analysis with a.ID.
// Empty optional fields in a clear the stored value.
func UpdateAnalysis(ctx context.Context, d *db.DB, a model.Analysis) error {
	result, err := d.ExecContext(ctx,
		`UPDATE analyses SET
			name = ?,
			laboratory = ?,
			sector = ?,
			form = ?,
			sample_type = ?,
			device = ?,
			frequency = ?,
			tat = ?,
			units = ?,
			reference_values = ?,
			stability = ?,
			inami_code = ?,
			updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		append(analysisArgs(a), a.ID)...,
	)
	if err != nil {
		return fmt.Errorf("updating analysis: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating analysis: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SearchAnalysesByName returns up to limit analyses whose name contains q,
// case-insensitively. Exact matches come first, then prefix matches, then
// shorter names.
func SearchAnalysesByName(ctx context.Context, d *db.DB, q string, limit int) ([]model.Analysis, error) {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return []model.Analysis{}, nil
	}
	escaped := escapeLike(q)

	rows, err := d.QueryContext(ctx,
		`SELECT `+analysisColumns+` FROM analyses
		 WHERE LOWER(name) LIKE ? ESCAPE '\'
		 ORDER BY
			CASE WHEN LOWER(name) = ? THEN 0
			     WHEN LOWER(name) LIKE ? ESCAPE '\' THEN 1
			     ELSE 2 END,
			LENGTH(name), name
		 LIMIT ?`,
		"%"+escaped+"%", q, escaped+"%", limit,
	)
	if err != nil {
		return nil, fmt.Errorf("searching analyses: %w", err)
	}
	defer rows.Close()

	analyses := []model.Analysis{}
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning analysis: %w", err)
		}
		analyses = append(analyses, a)
	}
	return analyses, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// ImportAnalyses inserts all analyses in a single transaction. Either every
// record is stored or none is.
func ImportAnalyses(ctx context.Context, d *db.DB, analyses []model.Analysis) (int, error) {
	for i, a := range analyses {
		if missing := a.MissingFields(); len(missing) > 0 {
			return 0, fmt.Errorf("analysis %d: missing %s", i, strings.Join(missing, ", "))
		}
	}

	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, d.Rebind(insertAnalysisSQL))
	if err != nil {
		return 0, fmt.Errorf("preparing import: %w", err)
	}
	defer stmt.Close()

	for i, a := range analyses {
		var id int64
		if err := stmt.QueryRowContext(ctx, analysisArgs(a.Trimmed())...).Scan(&id); err != nil {
			return 0, fmt.Errorf("importing analysis %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing import: %w", err)
	}
	return len(analyses), nil
}
