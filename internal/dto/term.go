package dto

import "github.com/Rabea25/SISAPI/internal/models"

// FinalizeTermRequest selects the student terms to finalize. Empty fields
// default to the current term clock.
type FinalizeTermRequest struct {
	AcademicYear string          `json:"academic_year" validate:"omitempty,max=10"`
	Term         models.TermName `json:"term" validate:"omitempty,oneof=fall spring summer"`
}
