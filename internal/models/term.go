package models

import (
	"time"

	"github.com/Rabea25/SISAPI/internal/grading"
)

// TermName is the season of an academic term.
type TermName string

const (
	TermFall   TermName = "fall"
	TermSpring TermName = "spring"
	TermSummer TermName = "summer"
)

// Valid reports whether n is a known term name.
func (n TermName) Valid() bool {
	return n.Order() > 0
}

// Order positions the term inside its academic year.
func (n TermName) Order() int {
	switch n {
	case TermFall:
		return 1
	case TermSpring:
		return 2
	case TermSummer:
		return 3
	}
	return 0
}

// AcademicYear is owned by a student and created lazily on first enrollment.
type AcademicYear struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Term holds the cached per-term aggregates of one student.
type Term struct {
	ID              string    `db:"id" json:"id"`
	AcademicYearID  string    `db:"academic_year_id" json:"academic_year_id"`
	StudentID       string    `db:"student_id" json:"student_id"`
	YearName        string    `db:"year_name" json:"academic_year"`
	Name            TermName  `db:"name" json:"name"`
	GPA             float64   `db:"gpa" json:"gpa"`
	CGPA            float64   `db:"cgpa" json:"cgpa"`
	RegisteredHours int       `db:"registered_hours" json:"registered_hours"`
	EarnedHours     int       `db:"earned_hours" json:"earned_hours"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// TermView is the result of finalizing a term.
type TermView struct {
	Term
	Complete    bool                        `json:"complete"`
	Enrollments []EnrollmentView            `json:"enrollments"`
	Diagnostics []grading.UnrecognizedGrade `json:"diagnostics,omitempty"`
}

// TermFinalization summarises a whole-cohort finalization run.
type TermFinalization struct {
	AcademicYear string     `json:"academic_year"`
	Term         TermName   `json:"term"`
	Finalized    []TermView `json:"finalized"`
}
