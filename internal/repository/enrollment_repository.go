package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Rabea25/SISAPI/internal/models"
)

// EnrollmentRepository reads enrollments and persists score entry.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

func (r *EnrollmentRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

const enrollmentColumns = `e.id, e.student_id, e.offering_id, e.term_id, e.coursework, e.coursework_max, e.exam, e.exam_max,
e.total, e.numeric_grade, e.letter_grade, e.created_at, e.updated_at`

// FindByID returns a single enrollment.
func (r *EnrollmentRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments e WHERE e.id = $1`
	var enrollment models.Enrollment
	if err := sqlx.GetContext(ctx, r.exec(exec), &enrollment, query, id); err != nil {
		return nil, lookupErr(err)
	}
	return &enrollment, nil
}

// ListByStudent returns every enrollment of the student.
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments e WHERE e.student_id = $1 ORDER BY e.created_at`
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, studentID); err != nil {
		return nil, fmt.Errorf("list student enrollments: %w", err)
	}
	return enrollments, nil
}

const enrollmentViewSelect = `SELECT ` + enrollmentColumns + `, o.course_code, c.name AS course_name, c.credit_hours
FROM enrollments e
JOIN offerings o ON o.id = e.offering_id
JOIN courses c ON c.code = o.course_code`

// FindViewByID returns one enrollment joined with course details.
func (r *EnrollmentRepository) FindViewByID(ctx context.Context, id string) (*models.EnrollmentView, error) {
	var view models.EnrollmentView
	if err := r.db.GetContext(ctx, &view, enrollmentViewSelect+` WHERE e.id = $1`, id); err != nil {
		return nil, lookupErr(err)
	}
	return &view, nil
}

// ListViewsByTerm returns the enrollments of a term joined with course details.
func (r *EnrollmentRepository) ListViewsByTerm(ctx context.Context, exec sqlx.ExtContext, termID string) ([]models.EnrollmentView, error) {
	query := enrollmentViewSelect + ` WHERE e.term_id = $1 ORDER BY o.course_code`
	var views []models.EnrollmentView
	if err := sqlx.SelectContext(ctx, r.exec(exec), &views, query, termID); err != nil {
		return nil, fmt.Errorf("list term enrollments: %w", err)
	}
	return views, nil
}

// UpdateScores persists raw scores and the derived grade fields.
func (r *EnrollmentRepository) UpdateScores(ctx context.Context, exec sqlx.ExtContext, enrollment *models.Enrollment) error {
	enrollment.UpdatedAt = time.Now().UTC()
	const query = `UPDATE enrollments SET coursework = :coursework, coursework_max = :coursework_max, exam = :exam,
exam_max = :exam_max, total = :total, numeric_grade = :numeric_grade, letter_grade = :letter_grade, updated_at = :updated_at
WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, enrollment)
	if err != nil {
		return fmt.Errorf("update enrollment scores: %w", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("update enrollment scores: enrollment %s missing", enrollment.ID)
	}
	return nil
}

// SelectedSection is a section chosen by an enrollment.
type SelectedSection struct {
	EnrollmentID string `db:"enrollment_id"`
	models.Section
}

// ListSelectedSections returns the sections held by the enrollments.
func (r *EnrollmentRepository) ListSelectedSections(ctx context.Context, enrollmentIDs []string) ([]SelectedSection, error) {
	if len(enrollmentIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT es.enrollment_id, s.id, s.offering_id, s.name, s.section_type, s.capacity
FROM enrollment_sections es JOIN sections s ON s.id = es.section_id
WHERE es.enrollment_id = ANY($1)
ORDER BY es.enrollment_id, s.section_type, s.name`
	var rows []SelectedSection
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(enrollmentIDs)); err != nil {
		return nil, fmt.Errorf("list selected sections: %w", err)
	}
	return rows, nil
}
