package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Rabea25/SISAPI/internal/models"
)

// TermClockRepository persists the single term clock row.
type TermClockRepository struct {
	db *sqlx.DB
}

// NewTermClockRepository constructs the repository.
func NewTermClockRepository(db *sqlx.DB) *TermClockRepository {
	return &TermClockRepository{db: db}
}

// Get returns the stored clock or sql.ErrNoRows when none was created yet.
func (r *TermClockRepository) Get(ctx context.Context) (*models.TermClock, error) {
	const query = `SELECT id, academic_year, term, registration_open, updated_at FROM term_clock WHERE id = $1`
	var clock models.TermClock
	if err := r.db.GetContext(ctx, &clock, query, models.TermClockID); err != nil {
		return nil, err
	}
	return &clock, nil
}

// Create inserts the clock row. It reports false when a row already exists.
func (r *TermClockRepository) Create(ctx context.Context, clock *models.TermClock) (bool, error) {
	clock.ID = models.TermClockID
	clock.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO term_clock (id, academic_year, term, registration_open, updated_at)
VALUES (:id, :academic_year, :term, :registration_open, :updated_at)
ON CONFLICT (id) DO NOTHING`
	res, err := r.db.NamedExecContext(ctx, query, clock)
	if err != nil {
		return false, fmt.Errorf("create term clock: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("create term clock: %w", err)
	}
	return rows == 1, nil
}

// Upsert writes the clock row, creating it when absent.
func (r *TermClockRepository) Upsert(ctx context.Context, clock *models.TermClock) error {
	clock.ID = models.TermClockID
	clock.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO term_clock (id, academic_year, term, registration_open, updated_at)
VALUES (:id, :academic_year, :term, :registration_open, :updated_at)
ON CONFLICT (id)
DO UPDATE SET academic_year = EXCLUDED.academic_year, term = EXCLUDED.term,
              registration_open = EXCLUDED.registration_open, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, clock); err != nil {
		return fmt.Errorf("upsert term clock: %w", err)
	}
	return nil
}
