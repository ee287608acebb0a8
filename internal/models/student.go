package models

import "time"

// StudentStatus captures the lifecycle of a student record.
type StudentStatus string

const (
	StudentStatusActive    StudentStatus = "active"
	StudentStatusInactive  StudentStatus = "inactive"
	StudentStatusGraduated StudentStatus = "graduated"
)

// MaxStudentLevel is the highest level a student can reach.
const MaxStudentLevel = 4

// Department is an academic department; courses list the departments allowed to take them.
type Department struct {
	ID   string `db:"id" json:"id"`
	Code string `db:"code" json:"code"`
	Name string `db:"name" json:"name"`
}

// Student is the subset of the student record the registration engine reads.
type Student struct {
	ID             string        `db:"id" json:"id"`
	FullName       string        `db:"full_name" json:"full_name"`
	DepartmentID   string        `db:"department_id" json:"department_id"`
	DepartmentCode string        `db:"department_code" json:"department_code"`
	Level          int           `db:"level" json:"level"`
	EarnedHours    int           `db:"earned_hours" json:"earned_hours"`
	Status         StudentStatus `db:"status" json:"status"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updated_at"`
}

// IsActive reports whether the student may register.
func (s Student) IsActive() bool {
	return s.Status == "" || s.Status == StudentStatusActive
}
