package dto

import "github.com/Rabea25/SISAPI/internal/models"

// TimeSlotRequest describes one weekly meeting of a new section.
type TimeSlotRequest struct {
	Day         int     `json:"day" validate:"min=0,max=5"`
	StartPeriod int     `json:"start_period" validate:"required"`
	EndPeriod   int     `json:"end_period" validate:"required"`
	EducatorID  *string `json:"educator_id"`
	Location    *string `json:"location"`
}

// CreateSectionRequest is the payload for adding a section to an offering.
type CreateSectionRequest struct {
	Name      string             `json:"name" validate:"required,max=50"`
	Type      models.SectionType `json:"type" validate:"required,oneof=LEC LAB TUT"`
	Capacity  int                `json:"capacity" validate:"required,min=1"`
	TimeSlots []TimeSlotRequest  `json:"time_slots" validate:"dive"`
}

// SectionResponse is the created section with its meetings.
type SectionResponse struct {
	models.SectionView
	DayNames []string `json:"day_names"`
}
