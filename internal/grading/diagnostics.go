package grading

// CodeUnrecognizedGrade tags diagnostics for letters missing from the grade table.
const CodeUnrecognizedGrade = "UNRECOGNIZED_GRADE"

// UnrecognizedGrade records an enrollment whose letter grade was skipped
// during GPA aggregation.
type UnrecognizedGrade struct {
	Code         string `json:"code"`
	EnrollmentID string `json:"enrollment_id"`
	Grade        string `json:"grade"`
}

// Diagnostics collects soft errors raised while aggregating grades. A nil
// *Diagnostics discards them.
type Diagnostics struct {
	Unrecognized []UnrecognizedGrade
	seen         map[string]struct{}
}

func (d *Diagnostics) add(enrollmentID, grade string) {
	if d == nil {
		return
	}
	if d.seen == nil {
		d.seen = make(map[string]struct{})
	}
	if _, ok := d.seen[enrollmentID]; ok {
		return
	}
	d.seen[enrollmentID] = struct{}{}
	d.Unrecognized = append(d.Unrecognized, UnrecognizedGrade{
		Code:         CodeUnrecognizedGrade,
		EnrollmentID: enrollmentID,
		Grade:        grade,
	})
}

// Empty reports whether no soft errors were collected.
func (d *Diagnostics) Empty() bool {
	return d == nil || len(d.Unrecognized) == 0
}
