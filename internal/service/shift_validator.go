package service

import (
	"strconv"
	"strings"
	"time"

	appErrors "github.com/carewell-health/carewell-ops-api/pkg/errors"
)

// CandidateShift is a proposed shift as received from the boundary, before
// any type coercion. The nurse id arrives as a raw string so accidental
// string/number mismatches are caught here rather than deeper in the stack.
type CandidateShift struct {
	NurseID        string
	StartDate      string
	EndDate        string
	ShiftStartTime string
	ShiftEndTime   string
}

// ValidatedShift is the typed result of a successful validation.
type ValidatedShift struct {
	NurseID        int64
	StartDate      time.Time
	EndDate        time.Time
	ShiftStartTime string
	ShiftEndTime   string
}

// ShiftValidator checks candidate shifts in a fixed order, short-circuiting
// on the first failure. Messages are operator-facing.
type ShiftValidator struct{}

// NewShiftValidator constructs the validator.
func NewShiftValidator() *ShiftValidator {
	return &ShiftValidator{}
}

// Validate runs the ordered checks: field presence and nurse id shape, then
// the date range, then the time range.
func (v *ShiftValidator) Validate(shift CandidateShift) (*ValidatedShift, error) {
	if strings.TrimSpace(shift.NurseID) == "" ||
		strings.TrimSpace(shift.StartDate) == "" ||
		strings.TrimSpace(shift.EndDate) == "" ||
		strings.TrimSpace(shift.ShiftStartTime) == "" ||
		strings.TrimSpace(shift.ShiftEndTime) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "All shift fields are required")
	}

	nurseID, err := strconv.ParseInt(strings.TrimSpace(shift.NurseID), 10, 64)
	if err != nil || nurseID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Nurse ID must be a positive number")
	}

	startDate, endDate, err := v.ValidateDateRange(shift.StartDate, shift.EndDate)
	if err != nil {
		return nil, err
	}

	if err := v.ValidateTimeRange(shift.ShiftStartTime, shift.ShiftEndTime); err != nil {
		return nil, err
	}

	return &ValidatedShift{
		NurseID:        nurseID,
		StartDate:      startDate,
		EndDate:        endDate,
		ShiftStartTime: strings.TrimSpace(shift.ShiftStartTime),
		ShiftEndTime:   strings.TrimSpace(shift.ShiftEndTime),
	}, nil
}

// ValidateDateRange parses both dates and rejects ranges that end before
// they start. Equal dates are a valid single-day shift.
func (v *ShiftValidator) ValidateDateRange(start, end string) (time.Time, time.Time, error) {
	startDate, err := time.Parse("2006-01-02", strings.TrimSpace(start))
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "Invalid start date, expected YYYY-MM-DD")
	}
	endDate, err := time.Parse("2006-01-02", strings.TrimSpace(end))
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "Invalid end date, expected YYYY-MM-DD")
	}
	if endDate.Before(startDate) {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "End date cannot be before start date")
	}
	return startDate, endDate, nil
}

// ValidateTimeRange rejects shift windows whose end is not strictly after
// the start, compared at second resolution. Midnight wrap is not supported.
func (v *ShiftValidator) ValidateTimeRange(start, end string) error {
	sh, sm, ss, err := parseClock(start)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "Invalid shift start time, expected HH:MM or HH:MM:SS")
	}
	eh, em, es, err := parseClock(end)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "Invalid shift end time, expected HH:MM or HH:MM:SS")
	}
	if clockSeconds(eh, em, es) <= clockSeconds(sh, sm, ss) {
		return appErrors.Clone(appErrors.ErrValidation, "Shift end time must be after shift start time")
	}
	return nil
}
