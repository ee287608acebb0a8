package models

// RegistrationItem asks to register into, change, or withdraw from an offering.
// An empty SectionIDs list is a withdrawal.
type RegistrationItem struct {
	OfferingID string   `json:"offering_id" validate:"required"`
	SectionIDs []string `json:"section_ids" validate:"dive,required"`
}

// RegistrationBatch is the body of a registration submission.
type RegistrationBatch struct {
	Items []RegistrationItem `json:"items" validate:"required,min=1,dive"`
}

// AllocationResult names what an allocation did to the enrollment.
type AllocationResult string

const (
	AllocationCreated  AllocationResult = "created"
	AllocationUpdated  AllocationResult = "updated"
	AllocationDeleted  AllocationResult = "deleted"
	AllocationNoChange AllocationResult = "no_change"
)

// ItemSuccess reports a committed batch item.
type ItemSuccess struct {
	Index           int              `json:"index"`
	OfferingID      string           `json:"offering_id"`
	Result          AllocationResult `json:"result"`
	EnrollmentID    string           `json:"enrollment_id,omitempty"`
	TermID          string           `json:"term_id,omitempty"`
	SectionIDs      []string         `json:"section_ids"`
	RegisteredHours int              `json:"registered_hours"`
}

// ItemFailure reports a rejected batch item.
type ItemFailure struct {
	Index      int    `json:"index"`
	OfferingID string `json:"offering_id"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

// BatchResult aggregates per-item outcomes of a registration batch.
type BatchResult struct {
	Successful []ItemSuccess `json:"successful"`
	Failed     []ItemFailure `json:"failed"`
}
