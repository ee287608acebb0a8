package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Rabea25/SISAPI/internal/models"
)

// StudentRepository reads student records and maintains their earned-hours counter.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

func (r *StudentRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

const studentColumns = `s.id, s.full_name, s.department_id, d.code AS department_code, s.level, s.earned_hours, s.status, s.created_at, s.updated_at`

// FindByID returns a student with the code of its department.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := `SELECT ` + studentColumns + `
FROM students s JOIN departments d ON d.id = s.department_id WHERE s.id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// ListGradedCourses returns every enrollment of the student with course credits
// and letter grade, including ungraded ones.
func (r *StudentRepository) ListGradedCourses(ctx context.Context, exec sqlx.ExtContext, studentID string) ([]models.GradedCourse, error) {
	const query = `SELECT e.id AS enrollment_id, e.term_id, o.course_code, c.credit_hours, e.letter_grade
FROM enrollments e
JOIN offerings o ON o.id = e.offering_id
JOIN courses c ON c.code = o.course_code
WHERE e.student_id = $1
ORDER BY e.term_id, o.course_code`
	var courses []models.GradedCourse
	if err := sqlx.SelectContext(ctx, r.exec(exec), &courses, query, studentID); err != nil {
		return nil, fmt.Errorf("list graded courses: %w", err)
	}
	return courses, nil
}

// RaiseEarnedHours sets the cumulative earned hours to total unless the stored
// counter is already higher.
func (r *StudentRepository) RaiseEarnedHours(ctx context.Context, exec sqlx.ExtContext, studentID string, total int) error {
	const query = `UPDATE students SET earned_hours = GREATEST(earned_hours, $2), updated_at = $3 WHERE id = $1`
	if _, err := r.exec(exec).ExecContext(ctx, query, studentID, total, time.Now().UTC()); err != nil {
		return fmt.Errorf("raise student earned hours: %w", err)
	}
	return nil
}
