package report

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/dbpg"

	"github.com/aliskhannn/image-resizer/internal/model"
)

var ErrReportNotFound = errors.New("batch report not found")

// Repository persists finalized batch reports.
type Repository struct {
	db *dbpg.DB
}

// NewRepository creates a new Repository with the given DB connection.
func NewRepository(db *dbpg.DB) *Repository {
	return &Repository{db: db}
}

// SaveReport inserts the report, replacing a previously stored one with the same ID.
func (r *Repository) SaveReport(ctx context.Context, report model.BatchReport) error {
	query := `
		INSERT INTO batch_reports (id, entries, succeeded, failed, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET entries = EXCLUDED.entries,
		    succeeded = EXCLUDED.succeeded,
		    failed = EXCLUDED.failed,
		    started_at = EXCLUDED.started_at,
		    finished_at = EXCLUDED.finished_at
	`

	entriesJSON, err := json.Marshal(report.Entries)
	if err != nil {
		return fmt.Errorf("failed to marshal report entries: %w", err)
	}

	_, err = r.db.ExecContext(
		ctx, query, report.ID, entriesJSON, report.Succeeded(), report.Failed(), report.StartedAt, report.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("save: failed to save batch report: %w", err)
	}

	return nil
}

// GetReport retrieves a batch report by ID.
func (r *Repository) GetReport(ctx context.Context, id uuid.UUID) (model.BatchReport, error) {
	query := `
		SELECT entries, started_at, finished_at
		FROM batch_reports
		WHERE id = $1
	`

	var report model.BatchReport
	var entriesBytes []byte

	err := r.db.QueryRowContext(
		ctx, query, id,
	).Scan(&entriesBytes, &report.StartedAt, &report.FinishedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.BatchReport{}, ErrReportNotFound
		}

		return model.BatchReport{}, fmt.Errorf("get: failed to get batch report: %w", err)
	}

	if err := json.Unmarshal(entriesBytes, &report.Entries); err != nil {
		return model.BatchReport{}, fmt.Errorf("get: failed to unmarshal entries: %w", err)
	}

	report.ID = id

	return report, nil
}

// DeleteReport deletes a batch report by ID.
func (r *Repository) DeleteReport(ctx context.Context, id uuid.UUID) error {
	query := `
		DELETE FROM batch_reports WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete: failed to delete batch report: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete: failed to get number of rows affected: %w", err)
	}

	if n == 0 {
		return ErrReportNotFound
	}

	return nil
}
