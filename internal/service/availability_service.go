package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/carewell-health/carewell-ops-api/internal/models"
	appErrors "github.com/carewell-health/carewell-ops-api/pkg/errors"
)

type availabilityAssignmentCounter interface {
	CountNonCompletedByNurse(ctx context.Context, nurseID int64, today time.Time) (int, error)
}

type nurseAvailabilityWriter interface {
	SetAvailability(ctx context.Context, id int64, status models.AvailabilityStatus) (bool, error)
}

// AvailabilityService keeps the cached nurse availability flag consistent
// with the assignment rows. The flag is a convenience projection: the rows
// are the system of record, and a leave flag written by the external leave
// system is never overwritten here.
type AvailabilityService struct {
	assignments availabilityAssignmentCounter
	nurses      nurseAvailabilityWriter
	logger      *zap.Logger
	now         func() time.Time
}

// NewAvailabilityService constructs the reconciler.
func NewAvailabilityService(assignments availabilityAssignmentCounter, nurses nurseAvailabilityWriter, logger *zap.Logger) *AvailabilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{
		assignments: assignments,
		nurses:      nurses,
		logger:      logger,
		now:         time.Now,
	}
}

// SetAssigned flips the nurse to assigned. The leave guard lives in the
// UPDATE predicate, so a nurse on leave is left untouched.
func (s *AvailabilityService) SetAssigned(ctx context.Context, nurseID int64) error {
	applied, err := s.nurses.SetAvailability(ctx, nurseID, models.AvailabilityAssigned)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to set nurse assigned")
	}
	if !applied {
		s.logger.Info("availability update skipped, nurse on leave or missing", zap.Int64("nurse_id", nurseID))
	}
	return nil
}

// SetUnassigned flips the nurse to unassigned after confirming no
// non-completed assignments remain. It is never called speculatively.
func (s *AvailabilityService) SetUnassigned(ctx context.Context, nurseID int64) error {
	remaining, err := s.assignments.CountNonCompletedByNurse(ctx, nurseID, s.now())
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count remaining assignments")
	}
	if remaining > 0 {
		return nil
	}
	applied, err := s.nurses.SetAvailability(ctx, nurseID, models.AvailabilityUnassigned)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to set nurse unassigned")
	}
	if !applied {
		s.logger.Info("availability update skipped, nurse on leave or missing", zap.Int64("nurse_id", nurseID))
	}
	return nil
}

// Reconcile recomputes the flag from the assignment rows: assigned when at
// least one non-completed assignment exists, otherwise unassigned.
func (s *AvailabilityService) Reconcile(ctx context.Context, nurseID int64) error {
	remaining, err := s.assignments.CountNonCompletedByNurse(ctx, nurseID, s.now())
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count remaining assignments")
	}
	status := models.AvailabilityUnassigned
	if remaining > 0 {
		status = models.AvailabilityAssigned
	}
	applied, err := s.nurses.SetAvailability(ctx, nurseID, status)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reconcile nurse availability")
	}
	if !applied {
		s.logger.Info("availability reconcile skipped, nurse on leave or missing", zap.Int64("nurse_id", nurseID))
	}
	return nil
}
