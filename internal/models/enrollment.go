package models

import "time"

// Default score maxima.
const (
	DefaultCourseworkMax = 50
	DefaultExamMax       = 50
)

// Enrollment is a student's participation in one offering for one term.
type Enrollment struct {
	ID            string    `db:"id" json:"id"`
	StudentID     string    `db:"student_id" json:"student_id"`
	OfferingID    string    `db:"offering_id" json:"offering_id"`
	TermID        string    `db:"term_id" json:"term_id"`
	Coursework    int       `db:"coursework" json:"coursework"`
	CourseworkMax int       `db:"coursework_max" json:"coursework_max"`
	Exam          int       `db:"exam" json:"exam"`
	ExamMax       int       `db:"exam_max" json:"exam_max"`
	Total         int       `db:"total" json:"total"`
	NumericGrade  float64   `db:"numeric_grade" json:"numeric_grade"`
	LetterGrade   string    `db:"letter_grade" json:"letter_grade"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Graded reports whether a letter grade has been assigned.
func (e Enrollment) Graded() bool {
	return e.LetterGrade != ""
}

// GradedCourse is an enrollment joined with the credit weight of its course.
type GradedCourse struct {
	EnrollmentID string `db:"enrollment_id"`
	TermID       string `db:"term_id"`
	CourseCode   string `db:"course_code"`
	CreditHours  int    `db:"credit_hours"`
	LetterGrade  string `db:"letter_grade"`
}

// EnrollmentView is an enrollment with its course and selected sections.
type EnrollmentView struct {
	Enrollment
	CourseCode          string        `db:"course_code" json:"course_code"`
	CourseName          string        `db:"course_name" json:"course_name"`
	CreditHours         int           `db:"credit_hours" json:"credit_hours"`
	Sections            []SectionView `db:"-" json:"sections"`
	MissingSectionTypes []SectionType `db:"-" json:"missing_section_types"`
}

// ScoreInput carries raw scores for an enrollment. Nil maxima keep the stored values.
type ScoreInput struct {
	Coursework    int  `json:"coursework" validate:"min=0"`
	Exam          int  `json:"exam" validate:"min=0"`
	CourseworkMax *int `json:"coursework_max,omitempty" validate:"omitempty,min=0"`
	ExamMax       *int `json:"exam_max,omitempty" validate:"omitempty,min=0"`
}
