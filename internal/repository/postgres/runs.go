package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/RMahshie/shmoo/internal/repository"
	"github.com/RMahshie/shmoo/pkg/models"
)

//go:embed schema.sql
var schema string

// Migrate creates the tables the repository needs
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// PostgresRunRepository implements RunRepository for PostgreSQL
type PostgresRunRepository struct {
	db *sql.DB
}

// NewPostgresRunRepository creates a new PostgreSQL run repository
func NewPostgresRunRepository(db *sql.DB) repository.RunRepository {
	return &PostgresRunRepository{db: db}
}

const runColumns = `id, dump_path, output_root, status, progress, report_path, error_message, created_at, updated_at, completed_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*models.Run, error) {
	var run models.Run
	var reportPath, errorMsg sql.NullString
	var completedAt sql.NullTime

	err := row.Scan(
		&run.ID,
		&run.DumpPath,
		&run.OutputRoot,
		&run.Status,
		&run.Progress,
		&reportPath,
		&errorMsg,
		&run.CreatedAt,
		&run.UpdatedAt,
		&completedAt)
	if err != nil {
		return nil, err
	}

	if reportPath.Valid {
		run.ReportPath = &reportPath.String
	}
	if errorMsg.Valid {
		run.ErrorMsg = &errorMsg.String
	}
	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}
	return &run, nil
}

// Create inserts a new run record
func (r *PostgresRunRepository) Create(ctx context.Context, run *models.Run) error {
	query := `
		INSERT INTO runs (id, dump_path, output_root, status, progress, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		run.ID,
		run.DumpPath,
		run.OutputRoot,
		run.Status,
		run.Progress,
		run.CreatedAt,
		run.UpdatedAt)

	return err
}

// GetByID retrieves a run by ID
func (r *PostgresRunRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE id = $1`

	run, err := scanRun(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return run, err
}

// List retrieves the most recent runs, newest first
func (r *PostgresRunRepository) List(ctx context.Context, limit int) ([]*models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// UpdateStatus updates the status and progress of a run
func (r *PostgresRunRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string, progress int) error {
	query := `
		UPDATE runs
		SET status = $1, progress = $2, updated_at = NOW()
		WHERE id = $3`

	return r.execOne(ctx, query, status, progress, id)
}

// UpdateError marks a run failed with a message
func (r *PostgresRunRepository) UpdateError(ctx context.Context, id uuid.UUID, errorMsg string) error {
	query := `
		UPDATE runs
		SET status = 'failed', error_message = $1, updated_at = NOW(), completed_at = NOW()
		WHERE id = $2`

	return r.execOne(ctx, query, errorMsg, id)
}

// Complete marks a run completed and records its report
func (r *PostgresRunRepository) Complete(ctx context.Context, id uuid.UUID, reportPath string) error {
	query := `
		UPDATE runs
		SET status = 'completed', progress = 100, report_path = NULLIF($1, ''),
		    updated_at = NOW(), completed_at = NOW()
		WHERE id = $2`

	return r.execOne(ctx, query, reportPath, id)
}

func (r *PostgresRunRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// StoreMargins replaces the margins stored for a run
func (r *PostgresRunRepository) StoreMargins(ctx context.Context, id uuid.UUID, tests []models.TestMargins) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM run_margins WHERE run_id = $1`, id); err != nil {
		return fmt.Errorf("failed to clear margins: %w", err)
	}

	query := `
		INSERT INTO run_margins (run_id, test, file, x_operation_center, y_operation_center, x_margin, y_margin)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	for _, t := range tests {
		for _, m := range t.Margins {
			_, err := tx.ExecContext(ctx, query,
				id,
				t.Test,
				m.File,
				m.XOperationCenter,
				m.YOperationCenter,
				m.XMargin,
				m.YMargin)
			if err != nil {
				return fmt.Errorf("failed to store margin for %s: %w", m.File, err)
			}
		}
	}
	return tx.Commit()
}

// GetMargins retrieves a run's margins grouped by test in name order
func (r *PostgresRunRepository) GetMargins(ctx context.Context, id uuid.UUID) ([]models.TestMargins, error) {
	query := `
		SELECT test, file, x_operation_center, y_operation_center, x_margin, y_margin
		FROM run_margins
		WHERE run_id = $1
		ORDER BY test, file`

	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tests []models.TestMargins
	for rows.Next() {
		var test string
		var m models.MarginResult
		if err := rows.Scan(&test, &m.File, &m.XOperationCenter, &m.YOperationCenter, &m.XMargin, &m.YMargin); err != nil {
			return nil, err
		}
		if len(tests) == 0 || tests[len(tests)-1].Test != test {
			tests = append(tests, models.TestMargins{Test: test})
		}
		last := &tests[len(tests)-1]
		last.Margins = append(last.Margins, m)
	}
	return tests, rows.Err()
}
