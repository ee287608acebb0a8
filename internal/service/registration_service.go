package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Rabea25/SISAPI/internal/models"
	appErrors "github.com/Rabea25/SISAPI/pkg/errors"
)

type itemAllocator interface {
	Allocate(ctx context.Context, studentID string, clock models.TermClock, item models.RegistrationItem) (*models.ItemSuccess, error)
}

type registrationStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type eligibilityInvalidator interface {
	Invalidate(ctx context.Context, studentIDs ...string)
}

// ItemOutcome is the result of one batch item: exactly one field is set.
type ItemOutcome struct {
	Success *models.ItemSuccess
	Failure *models.ItemFailure
}

// RegistrationService processes registration batches. Items are applied in
// order and independently; a failing item never undoes or blocks its siblings.
type RegistrationService struct {
	clock       TermClock
	allocator   itemAllocator
	students    registrationStudentReader
	eligibility eligibilityInvalidator
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewRegistrationService constructs the orchestrator.
func NewRegistrationService(
	clock TermClock,
	allocator itemAllocator,
	students registrationStudentReader,
	eligibility eligibilityInvalidator,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
) *RegistrationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationService{
		clock:       clock,
		allocator:   allocator,
		students:    students,
		eligibility: eligibility,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
	}
}

// SubmitBatch applies every item of batch for the student. Only a malformed
// batch or a closed registration window fails the call as a whole.
func (s *RegistrationService) SubmitBatch(ctx context.Context, studentID string, batch models.RegistrationBatch) (*models.BatchResult, error) {
	if err := s.validator.Struct(batch); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration batch")
	}

	clock, err := s.clock.Current(ctx)
	if err != nil {
		return nil, err
	}
	if !clock.RegistrationOpen {
		return nil, appErrors.Clone(appErrors.ErrRegistrationClosed, "registration closed")
	}

	studentErr := s.checkStudent(ctx, studentID)

	result := &models.BatchResult{
		Successful: make([]models.ItemSuccess, 0, len(batch.Items)),
		Failed:     make([]models.ItemFailure, 0),
	}
	for i, item := range batch.Items {
		var outcome ItemOutcome
		if studentErr != nil {
			outcome = failure(i, item, studentErr)
		} else {
			outcome = s.apply(ctx, i, studentID, clock, item)
		}

		if outcome.Success != nil {
			result.Successful = append(result.Successful, *outcome.Success)
			continue
		}
		result.Failed = append(result.Failed, *outcome.Failure)
	}

	if len(result.Successful) > 0 && s.eligibility != nil {
		s.eligibility.Invalidate(ctx, studentID)
	}

	s.logger.Info("registration batch processed",
		zap.String("student_id", studentID),
		zap.String("academic_year", clock.AcademicYear),
		zap.String("term", string(clock.Term)),
		zap.Int("successful", len(result.Successful)),
		zap.Int("failed", len(result.Failed)),
	)
	return result, nil
}

func (s *RegistrationService) checkStudent(ctx context.Context, studentID string) error {
	if s.students == nil {
		return nil
	}
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return nil
}

func (s *RegistrationService) apply(ctx context.Context, index int, studentID string, clock models.TermClock, item models.RegistrationItem) ItemOutcome {
	start := time.Now()
	success, err := s.allocator.Allocate(ctx, studentID, clock, item)
	elapsed := time.Since(start)

	if err != nil {
		outcome := failure(index, item, err)
		s.metrics.RecordRegistrationItem(outcome.Failure.Code, true, elapsed)
		fields := []zap.Field{
			zap.String("student_id", studentID),
			zap.String("offering_id", item.OfferingID),
			zap.Int("index", index),
			zap.String("code", outcome.Failure.Code),
			zap.Error(err),
		}
		if appErrors.IsRecoverable(err) {
			s.logger.Info("registration item rejected", fields...)
		} else {
			s.logger.Error("registration item failed", fields...)
		}
		return outcome
	}

	success.Index = index
	s.metrics.RecordRegistrationItem(string(success.Result), false, elapsed)
	return ItemOutcome{Success: success}
}

func failure(index int, item models.RegistrationItem, err error) ItemOutcome {
	appErr := appErrors.FromError(err)
	return ItemOutcome{Failure: &models.ItemFailure{
		Index:      index,
		OfferingID: item.OfferingID,
		Code:       appErr.Code,
		Message:    appErr.Message,
	}}
}
