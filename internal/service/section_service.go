package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/Rabea25/SISAPI/internal/dto"
	"github.com/Rabea25/SISAPI/internal/models"
	"github.com/Rabea25/SISAPI/internal/repository"
	appErrors "github.com/Rabea25/SISAPI/pkg/errors"
)

type sectionWriter interface {
	LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Offering, error)
	CreateSection(ctx context.Context, exec sqlx.ExtContext, section *models.Section, slots []models.TimeSlot) error
}

type catalogInvalidator interface {
	InvalidateAll(ctx context.Context)
}

// SectionService administers the sections of offerings.
type SectionService struct {
	db          txProvider
	offerings   sectionWriter
	eligibility catalogInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewSectionService constructs the service.
func NewSectionService(db txProvider, offerings sectionWriter, eligibility catalogInvalidator, validate *validator.Validate, logger *zap.Logger) *SectionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SectionService{db: db, offerings: offerings, eligibility: eligibility, validator: validate, logger: logger}
}

// Create adds a section with its time slots to an offering. The offering row
// is share-locked so its capacity cannot change underneath the check.
func (s *SectionService) Create(ctx context.Context, offeringID string, req dto.CreateSectionRequest) (resp *dto.SectionResponse, err error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid section payload")
	}

	slots := make([]models.TimeSlot, 0, len(req.TimeSlots))
	for _, in := range req.TimeSlots {
		slot, err := models.NewTimeSlot(in.Day, in.StartPeriod, in.EndPeriod)
		if err != nil {
			return nil, err
		}
		slot.EducatorID = in.EducatorID
		slot.Location = in.Location
		slots = append(slots, slot)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	offering, err := s.offerings.LockByID(ctx, tx, offeringID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = appErrors.Clone(appErrors.ErrNotFound, "offering not found")
			return nil, err
		}
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offering")
		return nil, err
	}

	section, err := models.NewSection(*offering, req.Name, req.Type, req.Capacity)
	if err != nil {
		return nil, err
	}

	if err = s.offerings.CreateSection(ctx, tx, &section, slots); err != nil {
		if repository.IsUniqueViolation(err) {
			err = appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status,
				fmt.Sprintf("section %s already exists in offering", section.Name))
			return nil, err
		}
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create section")
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit section")
		return nil, err
	}

	if s.eligibility != nil {
		s.eligibility.InvalidateAll(ctx)
	}
	s.logger.Info("section created",
		zap.String("offering_id", offering.ID),
		zap.String("section_id", section.ID),
		zap.String("type", string(section.Type)),
		zap.Int("capacity", section.Capacity),
	)

	names := make([]string, len(slots))
	for i, slot := range slots {
		names[i] = slot.DayName()
	}
	return &dto.SectionResponse{
		SectionView: models.SectionView{Section: section, TimeSlots: slots},
		DayNames:    names,
	}, nil
}
