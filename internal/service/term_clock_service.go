package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Rabea25/SISAPI/internal/models"
	"github.com/Rabea25/SISAPI/pkg/config"
	appErrors "github.com/Rabea25/SISAPI/pkg/errors"
)

// TermClock tells registration and grading which academic year and term are
// active and whether registration is open.
type TermClock interface {
	Current(ctx context.Context) (models.TermClock, error)
}

// StaticTermClock is a fixed clock.
type StaticTermClock struct {
	Clock models.TermClock
}

// Current returns the fixed clock.
func (s StaticTermClock) Current(context.Context) (models.TermClock, error) {
	return s.Clock, nil
}

type termClockRepository interface {
	Get(ctx context.Context) (*models.TermClock, error)
	Create(ctx context.Context, clock *models.TermClock) (bool, error)
	Upsert(ctx context.Context, clock *models.TermClock) error
}

// TermClockService reads and administers the persisted term clock.
type TermClockService struct {
	repo      termClockRepository
	fallback  models.TermClock
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTermClockService constructs the service. fallback is served until a clock
// row is created.
func NewTermClockService(repo termClockRepository, fallback config.TermClockConfig, validate *validator.Validate, logger *zap.Logger) *TermClockService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TermClockService{
		repo: repo,
		fallback: models.TermClock{
			ID:               models.TermClockID,
			AcademicYear:     fallback.AcademicYear,
			Term:             models.TermName(fallback.Term),
			RegistrationOpen: fallback.RegistrationOpen,
		},
		validator: validate,
		logger:    logger,
	}
}

// Current returns the stored clock or the configured fallback.
func (s *TermClockService) Current(ctx context.Context) (models.TermClock, error) {
	clock, err := s.repo.Get(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.fallback, nil
		}
		return models.TermClock{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term clock")
	}
	return *clock, nil
}

// Create persists the clock. Only one clock may ever exist.
func (s *TermClockService) Create(ctx context.Context, input models.TermClockInput) (*models.TermClock, error) {
	clock, err := s.build(input)
	if err != nil {
		return nil, err
	}
	created, err := s.repo.Create(ctx, clock)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create term clock")
	}
	if !created {
		return nil, appErrors.Clone(appErrors.ErrConflict, "term clock already exists")
	}
	s.logger.Info("term clock created", zap.String("academic_year", clock.AcademicYear), zap.String("term", string(clock.Term)))
	return clock, nil
}

// Update replaces the clock values, creating the row when it is missing.
func (s *TermClockService) Update(ctx context.Context, input models.TermClockInput) (*models.TermClock, error) {
	clock, err := s.build(input)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Upsert(ctx, clock); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update term clock")
	}
	s.logger.Info("term clock updated",
		zap.String("academic_year", clock.AcademicYear),
		zap.String("term", string(clock.Term)),
		zap.Bool("registration_open", clock.RegistrationOpen),
	)
	return clock, nil
}

func (s *TermClockService) build(input models.TermClockInput) (*models.TermClock, error) {
	input.AcademicYear = strings.TrimSpace(input.AcademicYear)
	input.Term = models.TermName(strings.ToLower(strings.TrimSpace(string(input.Term))))
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid term clock payload")
	}
	return &models.TermClock{
		AcademicYear:     input.AcademicYear,
		Term:             input.Term,
		RegistrationOpen: input.RegistrationOpen,
	}, nil
}
