package models

import (
	"fmt"
	"sort"
	"strings"

	appErrors "github.com/Rabea25/SISAPI/pkg/errors"
)

// SectionType is the component kind of a section.
type SectionType string

const (
	SectionTypeLecture  SectionType = "LEC"
	SectionTypeLab      SectionType = "LAB"
	SectionTypeTutorial SectionType = "TUT"
)

// Valid reports whether t is one of the known section types.
func (t SectionType) Valid() bool {
	switch t {
	case SectionTypeLecture, SectionTypeLab, SectionTypeTutorial:
		return true
	}
	return false
}

// sectionTypeOrder keeps type listings stable across responses.
var sectionTypeOrder = map[SectionType]int{
	SectionTypeLecture:  0,
	SectionTypeLab:      1,
	SectionTypeTutorial: 2,
}

// SortSectionTypes orders types LEC, LAB, TUT with unknown types last.
func SortSectionTypes(types []SectionType) {
	rank := func(t SectionType) int {
		if r, ok := sectionTypeOrder[t]; ok {
			return r
		}
		return len(sectionTypeOrder)
	}
	sort.Slice(types, func(i, j int) bool {
		ri, rj := rank(types[i]), rank(types[j])
		if ri != rj {
			return ri < rj
		}
		return types[i] < types[j]
	})
}

// Offering is one scheduled group of a course for the current term.
type Offering struct {
	ID          string `db:"id" json:"id"`
	CourseCode  string `db:"course_code" json:"course_code"`
	GroupNumber int    `db:"group_number" json:"group_number"`
	Capacity    int    `db:"capacity" json:"capacity"`
	Active      bool   `db:"is_active" json:"is_active"`
	CreditHours int    `db:"credit_hours" json:"credit_hours"`
	CourseName  string `db:"course_name" json:"course_name"`
}

// Section is a selectable component of an offering.
type Section struct {
	ID         string      `db:"id" json:"id"`
	OfferingID string      `db:"offering_id" json:"offering_id"`
	Name       string      `db:"name" json:"name"`
	Type       SectionType `db:"section_type" json:"type"`
	Capacity   int         `db:"capacity" json:"capacity"`
}

// NewSection builds a section for offering, rejecting a capacity above the
// offering's capacity.
func NewSection(offering Offering, name string, sectionType SectionType, capacity int) (Section, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Section{}, appErrors.Clone(appErrors.ErrValidation, "section name is required")
	}
	if !sectionType.Valid() {
		return Section{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown section type %q", sectionType))
	}
	if capacity <= 0 {
		return Section{}, appErrors.Clone(appErrors.ErrValidation, "section capacity must be positive")
	}
	if capacity > offering.Capacity {
		return Section{}, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("section capacity (%d) cannot exceed offering capacity (%d)", capacity, offering.Capacity))
	}
	return Section{
		OfferingID: offering.ID,
		Name:       name,
		Type:       sectionType,
		Capacity:   capacity,
	}, nil
}

// Weekday values, Saturday through Thursday.
const (
	Saturday = iota
	Sunday
	Monday
	Tuesday
	Wednesday
	Thursday
)

// Period bounds of the teaching day.
const (
	FirstPeriod = 1
	LastPeriod  = 12
)

var dayNames = [...]string{"Saturday", "Sunday", "Monday", "Tuesday", "Wednesday", "Thursday"}

// TimeSlot is a recurring weekly meeting of a section.
type TimeSlot struct {
	ID          string  `db:"id" json:"id"`
	SectionID   string  `db:"section_id" json:"section_id"`
	EducatorID  *string `db:"educator_id" json:"educator_id,omitempty"`
	Day         int     `db:"day" json:"day"`
	StartPeriod int     `db:"start_period" json:"start_period"`
	EndPeriod   int     `db:"end_period" json:"end_period"`
	Location    *string `db:"location" json:"location,omitempty"`
}

// DayName renders Day as a weekday name.
func (t TimeSlot) DayName() string {
	if t.Day < 0 || t.Day >= len(dayNames) {
		return ""
	}
	return dayNames[t.Day]
}

// NewTimeSlot validates a weekly period.
func NewTimeSlot(day, startPeriod, endPeriod int) (TimeSlot, error) {
	if day < Saturday || day > Thursday {
		return TimeSlot{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("day %d out of range", day))
	}
	if startPeriod < FirstPeriod || startPeriod > LastPeriod || endPeriod < FirstPeriod || endPeriod > LastPeriod {
		return TimeSlot{}, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("periods must be between %d and %d", FirstPeriod, LastPeriod))
	}
	if endPeriod < startPeriod {
		return TimeSlot{}, appErrors.Clone(appErrors.ErrValidation, "end period cannot be earlier than start period")
	}
	return TimeSlot{Day: day, StartPeriod: startPeriod, EndPeriod: endPeriod}, nil
}

// SectionView is a section with its meetings for display.
type SectionView struct {
	Section
	TimeSlots []TimeSlot `json:"time_slots"`
}

// OfferingView is one entry of a student's eligible-offering list.
type OfferingView struct {
	Offering
	SectionTypes []SectionType `json:"section_types"`
	Sections     []SectionView `json:"sections"`
	Enrolled     bool          `json:"enrolled"`
	EnrollmentID *string       `json:"enrollment_id,omitempty"`
}
