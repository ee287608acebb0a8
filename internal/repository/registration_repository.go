package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Rabea25/SISAPI/internal/models"
)

// RegistrationTx is the set of reads and writes one allocation performs
// atomically. Implementations must hold the section locks taken by
// LockOfferingSections until the transaction ends.
type RegistrationTx interface {
	FindOffering(ctx context.Context, offeringID string) (*models.Offering, error)
	LockOfferingSections(ctx context.Context, offeringID string) ([]models.Section, error)
	GetOrCreateAcademicYear(ctx context.Context, studentID, name string) (*models.AcademicYear, error)
	GetOrCreateTerm(ctx context.Context, year *models.AcademicYear, name models.TermName) (*models.Term, error)
	FindEnrollment(ctx context.Context, studentID, offeringID string) (*models.Enrollment, error)
	CreateEnrollment(ctx context.Context, enrollment *models.Enrollment) error
	DeleteEnrollment(ctx context.Context, enrollmentID string) error
	SelectedSectionIDs(ctx context.Context, enrollmentID string) ([]string, error)
	CountSectionHolders(ctx context.Context, sectionIDs []string) (map[string]int, error)
	ReplaceSelections(ctx context.Context, enrollmentID string, sectionIDs []string) error
	SumEnrolledCredits(ctx context.Context, termID string) (int, error)
	SetRegisteredHours(ctx context.Context, termID string, hours int) error
}

// RegistrationRepository runs allocations inside database transactions.
type RegistrationRepository struct {
	db *sqlx.DB
}

// NewRegistrationRepository constructs the repository.
func NewRegistrationRepository(db *sqlx.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// RunInTx executes fn in a transaction, committing when fn returns nil.
func (r *RegistrationRepository) RunInTx(ctx context.Context, fn func(tx RegistrationTx) error) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin registration tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(&sqlRegistrationTx{tx: tx}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit registration tx: %w", err)
	}
	return nil
}

type sqlRegistrationTx struct {
	tx *sqlx.Tx
}

func (t *sqlRegistrationTx) FindOffering(ctx context.Context, offeringID string) (*models.Offering, error) {
	var offering models.Offering
	if err := t.tx.GetContext(ctx, &offering, offeringSelect+` WHERE o.id = $1`, offeringID); err != nil {
		return nil, lookupErr(err)
	}
	return &offering, nil
}

// LockOfferingSections takes row locks on every section of the offering in id
// order, serialising concurrent allocations into the same offering.
func (t *sqlRegistrationTx) LockOfferingSections(ctx context.Context, offeringID string) ([]models.Section, error) {
	const query = `SELECT id, offering_id, name, section_type, capacity FROM sections
WHERE offering_id = $1 ORDER BY id FOR UPDATE`
	var sections []models.Section
	if err := t.tx.SelectContext(ctx, &sections, query, offeringID); err != nil {
		return nil, fmt.Errorf("lock offering sections: %w", err)
	}
	return sections, nil
}

func (t *sqlRegistrationTx) GetOrCreateAcademicYear(ctx context.Context, studentID, name string) (*models.AcademicYear, error) {
	const insert = `INSERT INTO academic_years (id, student_id, name, created_at) VALUES ($1, $2, $3, $4)
ON CONFLICT (student_id, name) DO NOTHING`
	if _, err := t.tx.ExecContext(ctx, insert, uuid.NewString(), studentID, name, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("create academic year: %w", err)
	}
	const query = `SELECT id, student_id, name, created_at FROM academic_years WHERE student_id = $1 AND name = $2`
	var year models.AcademicYear
	if err := t.tx.GetContext(ctx, &year, query, studentID, name); err != nil {
		return nil, fmt.Errorf("load academic year: %w", err)
	}
	return &year, nil
}

func (t *sqlRegistrationTx) GetOrCreateTerm(ctx context.Context, year *models.AcademicYear, name models.TermName) (*models.Term, error) {
	now := time.Now().UTC()
	const insert = `INSERT INTO terms (id, academic_year_id, student_id, name, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $5)
ON CONFLICT (academic_year_id, name) DO NOTHING`
	if _, err := t.tx.ExecContext(ctx, insert, uuid.NewString(), year.ID, year.StudentID, name, now); err != nil {
		return nil, fmt.Errorf("create term: %w", err)
	}
	var term models.Term
	if err := t.tx.GetContext(ctx, &term, termSelect+` WHERE t.academic_year_id = $1 AND t.name = $2`, year.ID, name); err != nil {
		return nil, fmt.Errorf("load term: %w", err)
	}
	return &term, nil
}

func (t *sqlRegistrationTx) FindEnrollment(ctx context.Context, studentID, offeringID string) (*models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments e WHERE e.student_id = $1 AND e.offering_id = $2 FOR UPDATE`
	var enrollment models.Enrollment
	if err := t.tx.GetContext(ctx, &enrollment, query, studentID, offeringID); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (t *sqlRegistrationTx) CreateEnrollment(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	enrollment.CreatedAt = now
	enrollment.UpdatedAt = now
	const query = `INSERT INTO enrollments (id, student_id, offering_id, term_id, coursework, coursework_max, exam, exam_max,
total, numeric_grade, letter_grade, created_at, updated_at)
VALUES (:id, :student_id, :offering_id, :term_id, :coursework, :coursework_max, :exam, :exam_max,
:total, :numeric_grade, :letter_grade, :created_at, :updated_at)`
	if _, err := t.tx.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

func (t *sqlRegistrationTx) DeleteEnrollment(ctx context.Context, enrollmentID string) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM enrollments WHERE id = $1`, enrollmentID); err != nil {
		return fmt.Errorf("delete enrollment: %w", err)
	}
	return nil
}

func (t *sqlRegistrationTx) SelectedSectionIDs(ctx context.Context, enrollmentID string) ([]string, error) {
	const query = `SELECT section_id FROM enrollment_sections WHERE enrollment_id = $1 ORDER BY section_id`
	var ids []string
	if err := t.tx.SelectContext(ctx, &ids, query, enrollmentID); err != nil {
		return nil, fmt.Errorf("list selected sections: %w", err)
	}
	return ids, nil
}

func (t *sqlRegistrationTx) CountSectionHolders(ctx context.Context, sectionIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(sectionIDs))
	if len(sectionIDs) == 0 {
		return counts, nil
	}
	const query = `SELECT section_id, COUNT(*) AS holders FROM enrollment_sections
WHERE section_id = ANY($1) GROUP BY section_id`
	var rows []struct {
		SectionID string `db:"section_id"`
		Holders   int    `db:"holders"`
	}
	if err := t.tx.SelectContext(ctx, &rows, query, pq.Array(sectionIDs)); err != nil {
		return nil, fmt.Errorf("count section holders: %w", err)
	}
	for _, row := range rows {
		counts[row.SectionID] = row.Holders
	}
	return counts, nil
}

func (t *sqlRegistrationTx) ReplaceSelections(ctx context.Context, enrollmentID string, sectionIDs []string) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM enrollment_sections WHERE enrollment_id = $1`, enrollmentID); err != nil {
		return fmt.Errorf("clear selections: %w", err)
	}
	if len(sectionIDs) == 0 {
		return nil
	}
	const insert = `INSERT INTO enrollment_sections (enrollment_id, section_id)
SELECT $1, UNNEST($2::uuid[])`
	if _, err := t.tx.ExecContext(ctx, insert, enrollmentID, pq.Array(sectionIDs)); err != nil {
		return fmt.Errorf("insert selections: %w", err)
	}
	return nil
}

func (t *sqlRegistrationTx) SumEnrolledCredits(ctx context.Context, termID string) (int, error) {
	const query = `SELECT COALESCE(SUM(c.credit_hours), 0) FROM enrollments e
JOIN offerings o ON o.id = e.offering_id
JOIN courses c ON c.code = o.course_code
WHERE e.term_id = $1`
	var total int
	if err := t.tx.GetContext(ctx, &total, query, termID); err != nil {
		return 0, fmt.Errorf("sum enrolled credits: %w", err)
	}
	return total, nil
}

func (t *sqlRegistrationTx) SetRegisteredHours(ctx context.Context, termID string, hours int) error {
	const query = `UPDATE terms SET registered_hours = $2, updated_at = $3 WHERE id = $1`
	if _, err := t.tx.ExecContext(ctx, query, termID, hours, time.Now().UTC()); err != nil {
		return fmt.Errorf("set registered hours: %w", err)
	}
	return nil
}
