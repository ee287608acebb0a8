package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/Rabea25/SISAPI/internal/models"
	"github.com/Rabea25/SISAPI/internal/repository"
	appErrors "github.com/Rabea25/SISAPI/pkg/errors"
)

type registrationStore interface {
	RunInTx(ctx context.Context, fn func(tx repository.RegistrationTx) error) error
}

type offeringEligibilityChecker interface {
	CheckOffering(ctx context.Context, studentID, offeringID string) error
}

// AllocationConfig holds defaults applied to new enrollments.
type AllocationConfig struct {
	DefaultCourseworkMax int
	DefaultExamMax       int
}

// AllocationService commits, changes or withdraws one enrollment per call.
// Every call runs in a single transaction holding row locks on the
// offering's sections, so occupancy checks cannot race.
type AllocationService struct {
	store       registrationStore
	ledger      *TermLedger
	eligibility offeringEligibilityChecker
	cfg         AllocationConfig
	logger      *zap.Logger
}

// NewAllocationService constructs the allocator. A nil eligibility checker
// disables commit-time eligibility enforcement.
func NewAllocationService(store registrationStore, ledger *TermLedger, eligibility offeringEligibilityChecker, cfg AllocationConfig, logger *zap.Logger) *AllocationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ledger == nil {
		ledger = NewTermLedger(logger)
	}
	if cfg.DefaultCourseworkMax <= 0 {
		cfg.DefaultCourseworkMax = models.DefaultCourseworkMax
	}
	if cfg.DefaultExamMax <= 0 {
		cfg.DefaultExamMax = models.DefaultExamMax
	}
	return &AllocationService{store: store, ledger: ledger, eligibility: eligibility, cfg: cfg, logger: logger}
}

// Allocate applies one batch item for the student against the given clock.
// An empty selection withdraws; anything else registers or changes sections.
func (s *AllocationService) Allocate(ctx context.Context, studentID string, clock models.TermClock, item models.RegistrationItem) (*models.ItemSuccess, error) {
	selection := dedupe(item.SectionIDs)

	if len(selection) > 0 && s.eligibility != nil {
		if err := s.eligibility.CheckOffering(ctx, studentID, item.OfferingID); err != nil {
			return nil, err
		}
	}

	var outcome *models.ItemSuccess
	err := s.store.RunInTx(ctx, func(tx repository.RegistrationTx) error {
		offering, err := tx.FindOffering(ctx, item.OfferingID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "offering not found")
			}
			return fmt.Errorf("find offering: %w", err)
		}

		existing, err := tx.FindEnrollment(ctx, studentID, offering.ID)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			existing = nil
		case err != nil:
			return fmt.Errorf("find enrollment: %w", err)
		}

		if len(selection) == 0 {
			outcome, err = s.withdraw(ctx, tx, offering, existing)
			return err
		}
		outcome, err = s.register(ctx, tx, studentID, clock, offering, existing, selection)
		return err
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

func (s *AllocationService) withdraw(ctx context.Context, tx repository.RegistrationTx, offering *models.Offering, existing *models.Enrollment) (*models.ItemSuccess, error) {
	if existing == nil {
		return &models.ItemSuccess{OfferingID: offering.ID, Result: models.AllocationNoChange, SectionIDs: []string{}}, nil
	}
	if existing.Graded() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "enrollment already graded")
	}
	if err := tx.DeleteEnrollment(ctx, existing.ID); err != nil {
		return nil, err
	}
	hours, err := s.ledger.Recompute(ctx, tx, existing.TermID)
	if err != nil {
		return nil, err
	}
	return &models.ItemSuccess{
		OfferingID:      offering.ID,
		Result:          models.AllocationDeleted,
		EnrollmentID:    existing.ID,
		TermID:          existing.TermID,
		SectionIDs:      []string{},
		RegisteredHours: hours,
	}, nil
}

func (s *AllocationService) register(
	ctx context.Context,
	tx repository.RegistrationTx,
	studentID string,
	clock models.TermClock,
	offering *models.Offering,
	existing *models.Enrollment,
	selection []string,
) (*models.ItemSuccess, error) {
	if !offering.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "offering is not active")
	}

	sections, err := tx.LockOfferingSections(ctx, offering.ID)
	if err != nil {
		return nil, err
	}
	if err := validatePattern(sections, selection); err != nil {
		return nil, err
	}

	var previous []string
	if existing != nil {
		if previous, err = tx.SelectedSectionIDs(ctx, existing.ID); err != nil {
			return nil, err
		}
		if sameSet(previous, selection) {
			hours, err := s.ledger.Current(ctx, tx, existing.TermID)
			if err != nil {
				return nil, err
			}
			return &models.ItemSuccess{
				OfferingID:      offering.ID,
				Result:          models.AllocationNoChange,
				EnrollmentID:    existing.ID,
				TermID:          existing.TermID,
				SectionIDs:      selection,
				RegisteredHours: hours,
			}, nil
		}
		if existing.Graded() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "enrollment already graded")
		}
	}

	if err := s.checkCapacity(ctx, tx, sections, previous, selection); err != nil {
		return nil, err
	}

	result := models.AllocationUpdated
	enrollment := existing
	if enrollment == nil {
		year, err := tx.GetOrCreateAcademicYear(ctx, studentID, clock.AcademicYear)
		if err != nil {
			return nil, err
		}
		term, err := tx.GetOrCreateTerm(ctx, year, clock.Term)
		if err != nil {
			return nil, err
		}
		enrollment = &models.Enrollment{
			StudentID:     studentID,
			OfferingID:    offering.ID,
			TermID:        term.ID,
			CourseworkMax: s.cfg.DefaultCourseworkMax,
			ExamMax:       s.cfg.DefaultExamMax,
		}
		if err := tx.CreateEnrollment(ctx, enrollment); err != nil {
			return nil, err
		}
		result = models.AllocationCreated
	}

	if err := tx.ReplaceSelections(ctx, enrollment.ID, selection); err != nil {
		return nil, err
	}
	hours, err := s.ledger.Recompute(ctx, tx, enrollment.TermID)
	if err != nil {
		return nil, err
	}

	return &models.ItemSuccess{
		OfferingID:      offering.ID,
		Result:          result,
		EnrollmentID:    enrollment.ID,
		TermID:          enrollment.TermID,
		SectionIDs:      selection,
		RegisteredHours: hours,
	}, nil
}

// validatePattern checks the post-change selection: every section belongs to
// the offering and each section type offered is chosen exactly once.
func validatePattern(sections []models.Section, selection []string) error {
	byID := make(map[string]models.Section, len(sections))
	for _, section := range sections {
		byID[section.ID] = section
	}

	chosen := make(map[models.SectionType]int)
	for _, id := range selection {
		section, ok := byID[id]
		if !ok {
			return appErrors.Clone(appErrors.ErrValidation, "section does not belong to this offering")
		}
		chosen[section.Type]++
	}

	for _, sectionType := range offeredTypes(sections) {
		switch n := chosen[sectionType]; {
		case n == 0:
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("must select a %s section", sectionType))
		case n > 1:
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("only one %s section allowed", sectionType))
		}
	}
	return nil
}

// checkCapacity rejects the selection when a newly chosen section is already
// held by as many enrollments as its capacity.
func (s *AllocationService) checkCapacity(ctx context.Context, tx repository.RegistrationTx, sections []models.Section, previous, selection []string) error {
	held := make(map[string]struct{}, len(previous))
	for _, id := range previous {
		held[id] = struct{}{}
	}
	var added []string
	for _, id := range selection {
		if _, ok := held[id]; !ok {
			added = append(added, id)
		}
	}
	if len(added) == 0 {
		return nil
	}

	counts, err := tx.CountSectionHolders(ctx, added)
	if err != nil {
		return err
	}
	byID := make(map[string]models.Section, len(sections))
	for _, section := range sections {
		byID[section.ID] = section
	}
	for _, id := range added {
		section := byID[id]
		if current := counts[id]; current >= section.Capacity {
			return appErrors.Clone(appErrors.ErrSectionFull, fmt.Sprintf("section %s full (%d/%d)", section.Name, current, section.Capacity))
		}
	}
	return nil
}

func offeredTypes(sections []models.Section) []models.SectionType {
	seen := make(map[models.SectionType]struct{})
	var types []models.SectionType
	for _, section := range sections {
		if _, ok := seen[section.Type]; !ok {
			seen[section.Type] = struct{}{}
			types = append(types, section.Type)
		}
	}
	models.SortSectionTypes(types)
	return types
}

// dedupe drops blanks and repeats and sorts the ids.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, id := range a {
		set[id] = struct{}{}
	}
	for _, id := range b {
		if _, ok := set[id]; !ok {
			return false
		}
	}
	return true
}
