package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Rabea25/SISAPI/internal/models"
)

// TermRepository reads per-student terms and stores their grade aggregates.
type TermRepository struct {
	db *sqlx.DB
}

// NewTermRepository constructs the repository.
func NewTermRepository(db *sqlx.DB) *TermRepository {
	return &TermRepository{db: db}
}

func (r *TermRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

const termSelect = `SELECT t.id, t.academic_year_id, t.student_id, y.name AS year_name, t.name, t.gpa, t.cgpa,
t.registered_hours, t.earned_hours, t.created_at, t.updated_at
FROM terms t JOIN academic_years y ON y.id = t.academic_year_id`

// LockByID loads a term row for update inside a finalization transaction.
func (r *TermRepository) LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Term, error) {
	var term models.Term
	if err := sqlx.GetContext(ctx, r.exec(exec), &term, termSelect+` WHERE t.id = $1 FOR UPDATE OF t`, id); err != nil {
		return nil, lookupErr(err)
	}
	return &term, nil
}

// ListByStudent returns the terms of a student in chronological order.
func (r *TermRepository) ListByStudent(ctx context.Context, exec sqlx.ExtContext, studentID string) ([]models.Term, error) {
	query := termSelect + ` WHERE t.student_id = $1
ORDER BY y.name, CASE t.name WHEN 'fall' THEN 1 WHEN 'spring' THEN 2 ELSE 3 END`
	var terms []models.Term
	if err := sqlx.SelectContext(ctx, r.exec(exec), &terms, query, studentID); err != nil {
		return nil, fmt.Errorf("list student terms: %w", err)
	}
	return terms, nil
}

// ListByYearAndName returns every student's term for an academic year and term name.
func (r *TermRepository) ListByYearAndName(ctx context.Context, yearName string, name models.TermName) ([]models.Term, error) {
	query := termSelect + ` WHERE y.name = $1 AND t.name = $2 ORDER BY t.student_id`
	var terms []models.Term
	if err := r.db.SelectContext(ctx, &terms, query, yearName, name); err != nil {
		return nil, fmt.Errorf("list terms by year: %w", err)
	}
	return terms, nil
}

// UpdateGrades stores the recomputed GPA, cumulative GPA and earned hours.
// Registered hours belong to the registration ledger and are left untouched.
func (r *TermRepository) UpdateGrades(ctx context.Context, exec sqlx.ExtContext, term *models.Term) error {
	term.UpdatedAt = time.Now().UTC()
	const query = `UPDATE terms SET gpa = :gpa, cgpa = :cgpa, earned_hours = :earned_hours, updated_at = :updated_at WHERE id = :id`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, term); err != nil {
		return fmt.Errorf("update term grades: %w", err)
	}
	return nil
}
