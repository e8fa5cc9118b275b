package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"homeport-qualifier/internal/models"
)

// RunRepository handles qualification run database operations.
type RunRepository struct {
	db *DB
}

// NewRunRepository creates a new run repository.
func NewRunRepository(db *DB) *RunRepository {
	return &RunRepository{db: db}
}

const runColumns = `id, source, file_name, sheet_name, liquid_assets, subject_value,
	non_subject_value_adjusted, down_payment_closing_cost, gift_amount, monthly_income,
	monthly_debt, residual, base_threshold, random_premium, final_threshold, verdict,
	defaulted_fields, created_at`

// Record inserts a finished run. Recording the same run twice is a no-op.
func (r *RunRepository) Record(ctx context.Context, run *models.QualificationRun) error {
	query := `
		INSERT INTO qualification_runs (` + runColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (id) DO NOTHING`

	defaulted := run.DefaultedFields
	if defaulted == nil {
		defaulted = []string{}
	}

	_, err := r.db.ExecContext(ctx, query,
		run.ID,
		string(run.Source),
		run.FileName,
		run.SheetName,
		run.LiquidAssets,
		run.SubjectValue,
		run.NonSubjectValueAdjusted,
		run.DownPaymentClosingCost,
		run.GiftAmount,
		run.MonthlyIncome,
		run.MonthlyDebt,
		run.Residual,
		run.BaseThreshold,
		run.RandomPremium,
		run.FinalThreshold,
		string(run.Verdict),
		defaulted,
		run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	return nil
}

// GetByID retrieves a run by its id.
func (r *RunRepository) GetByID(ctx context.Context, id string) (*models.QualificationRun, error) {
	query := `SELECT ` + runColumns + ` FROM qualification_runs WHERE id = $1`

	run, err := scanRun(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	return run, nil
}

// ListRecent returns the latest runs, newest first.
func (r *RunRepository) ListRecent(ctx context.Context, limit int) ([]*models.QualificationRun, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + runColumns + ` FROM qualification_runs ORDER BY created_at DESC LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := make([]*models.QualificationRun, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// CountByVerdict returns the number of recorded runs per verdict.
func (r *RunRepository) CountByVerdict(ctx context.Context) (map[models.Verdict]int, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT verdict, COUNT(*) FROM qualification_runs GROUP BY verdict")
	if err != nil {
		return nil, fmt.Errorf("failed to count runs: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.Verdict]int)
	for rows.Next() {
		var verdict string
		var count int
		if err := rows.Scan(&verdict, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[models.Verdict(verdict)] = count
	}

	return counts, rows.Err()
}

func scanRun(row pgx.Row) (*models.QualificationRun, error) {
	var run models.QualificationRun
	var source, verdict string

	err := row.Scan(
		&run.ID,
		&source,
		&run.FileName,
		&run.SheetName,
		&run.LiquidAssets,
		&run.SubjectValue,
		&run.NonSubjectValueAdjusted,
		&run.DownPaymentClosingCost,
		&run.GiftAmount,
		&run.MonthlyIncome,
		&run.MonthlyDebt,
		&run.Residual,
		&run.BaseThreshold,
		&run.RandomPremium,
		&run.FinalThreshold,
		&verdict,
		&run.DefaultedFields,
		&run.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	run.Source = models.RunSource(source)
	run.Verdict = models.Verdict(verdict)
	return &run, nil
}
