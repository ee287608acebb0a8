package models

import "time"

// TermClockID is the primary key of the only term clock row.
const TermClockID = 1

// TermClock records the active academic year, term and registration window.
type TermClock struct {
	ID               int       `db:"id" json:"-"`
	AcademicYear     string    `db:"academic_year" json:"academic_year"`
	Term             TermName  `db:"term" json:"term"`
	RegistrationOpen bool      `db:"registration_open" json:"registration_open"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// TermClockInput is the payload for creating or updating the term clock.
type TermClockInput struct {
	AcademicYear     string   `json:"academic_year" validate:"required,max=10"`
	Term             TermName `json:"term" validate:"required,oneof=fall spring summer"`
	RegistrationOpen bool     `json:"registration_open"`
}
