package models

// CourseType distinguishes core from specialization courses.
type CourseType string

const (
	CourseTypeCore           CourseType = "core"
	CourseTypeSpecialization CourseType = "specialization"
)

// Course is a catalog entry.
type Course struct {
	Code        string     `db:"code" json:"code"`
	Name        string     `db:"name" json:"name"`
	CreditHours int        `db:"credit_hours" json:"credit_hours"`
	Level       int        `db:"level" json:"level"`
	Type        CourseType `db:"type" json:"type"`
}

// PrerequisiteEdge links a course to one of its prerequisite courses.
type PrerequisiteEdge struct {
	CourseCode       string `db:"course_code"`
	PrerequisiteCode string `db:"prerequisite_code"`
}

// CourseDepartment grants a department access to a course.
type CourseDepartment struct {
	CourseCode     string `db:"course_code"`
	DepartmentCode string `db:"department_code"`
}
