package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Rabea25/SISAPI/internal/models"
)

// OfferingRepository persists offerings, their sections and time slots.
type OfferingRepository struct {
	db *sqlx.DB
}

// NewOfferingRepository constructs the repository.
func NewOfferingRepository(db *sqlx.DB) *OfferingRepository {
	return &OfferingRepository{db: db}
}

func (r *OfferingRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

const offeringSelect = `SELECT o.id, o.course_code, o.group_number, o.capacity, o.is_active, c.credit_hours, c.name AS course_name
FROM offerings o JOIN courses c ON c.code = o.course_code`

// FindByID loads an offering with its course credits.
func (r *OfferingRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Offering, error) {
	var offering models.Offering
	if err := sqlx.GetContext(ctx, r.exec(exec), &offering, offeringSelect+` WHERE o.id = $1`, id); err != nil {
		return nil, lookupErr(err)
	}
	return &offering, nil
}

// LockByID loads an offering holding a share lock so its capacity cannot change
// while sections are created.
func (r *OfferingRepository) LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Offering, error) {
	var offering models.Offering
	if err := sqlx.GetContext(ctx, r.exec(exec), &offering, offeringSelect+` WHERE o.id = $1 FOR SHARE OF o`, id); err != nil {
		return nil, lookupErr(err)
	}
	return &offering, nil
}

// ListSections returns the sections of the offerings ordered by offering then name.
func (r *OfferingRepository) ListSections(ctx context.Context, offeringIDs []string) ([]models.Section, error) {
	if len(offeringIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT id, offering_id, name, section_type, capacity FROM sections
WHERE offering_id = ANY($1) ORDER BY offering_id, name`
	var sections []models.Section
	if err := r.db.SelectContext(ctx, &sections, query, pq.Array(offeringIDs)); err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return sections, nil
}

// ListTimeSlots returns the meetings of the sections ordered by day and period.
func (r *OfferingRepository) ListTimeSlots(ctx context.Context, sectionIDs []string) ([]models.TimeSlot, error) {
	if len(sectionIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT id, section_id, educator_id, day, start_period, end_period, location FROM time_slots
WHERE section_id = ANY($1) ORDER BY day, start_period`
	var slots []models.TimeSlot
	if err := r.db.SelectContext(ctx, &slots, query, pq.Array(sectionIDs)); err != nil {
		return nil, fmt.Errorf("list time slots: %w", err)
	}
	return slots, nil
}

// CreateSection inserts a section and its time slots.
func (r *OfferingRepository) CreateSection(ctx context.Context, exec sqlx.ExtContext, section *models.Section, slots []models.TimeSlot) error {
	target := r.exec(exec)
	if section.ID == "" {
		section.ID = uuid.NewString()
	}
	const sectionQuery = `INSERT INTO sections (id, offering_id, name, section_type, capacity)
VALUES (:id, :offering_id, :name, :section_type, :capacity)`
	if _, err := sqlx.NamedExecContext(ctx, target, sectionQuery, section); err != nil {
		return fmt.Errorf("insert section: %w", err)
	}

	const slotQuery = `INSERT INTO time_slots (id, section_id, educator_id, day, start_period, end_period, location)
VALUES (:id, :section_id, :educator_id, :day, :start_period, :end_period, :location)`
	for i := range slots {
		slot := &slots[i]
		if slot.ID == "" {
			slot.ID = uuid.NewString()
		}
		slot.SectionID = section.ID
		if _, err := sqlx.NamedExecContext(ctx, target, slotQuery, slot); err != nil {
			return fmt.Errorf("insert time slot: %w", err)
		}
	}
	return nil
}
