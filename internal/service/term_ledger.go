package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/Rabea25/SISAPI/internal/repository"
)

// TermLedger keeps a term's registered hours equal to the credit sum of the
// enrollments it currently holds. It always recomputes the full sum.
type TermLedger struct {
	logger *zap.Logger
}

// NewTermLedger constructs the ledger.
func NewTermLedger(logger *zap.Logger) *TermLedger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TermLedger{logger: logger}
}

// Recompute stores and returns the registered hours of termID.
func (l *TermLedger) Recompute(ctx context.Context, tx repository.RegistrationTx, termID string) (int, error) {
	hours, err := tx.SumEnrolledCredits(ctx, termID)
	if err != nil {
		return 0, err
	}
	if err := tx.SetRegisteredHours(ctx, termID, hours); err != nil {
		return 0, err
	}
	l.logger.Debug("term ledger recomputed", zap.String("term_id", termID), zap.Int("registered_hours", hours))
	return hours, nil
}

// Current returns the registered hours of termID without writing.
func (l *TermLedger) Current(ctx context.Context, tx repository.RegistrationTx, termID string) (int, error) {
	return tx.SumEnrolledCredits(ctx, termID)
}
