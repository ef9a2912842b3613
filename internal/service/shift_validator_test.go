package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/carewell-health/carewell-ops-api/pkg/errors"
)

func validShift() CandidateShift {
	return CandidateShift{
		NurseID:        "12",
		StartDate:      "2026-03-01",
		EndDate:        "2026-03-14",
		ShiftStartTime: "09:00",
		ShiftEndTime:   "17:00",
	}
}

func TestShiftValidatorValid(t *testing.T) {
	v := NewShiftValidator()

	validated, err := v.Validate(validShift())
	require.NoError(t, err)
	assert.Equal(t, int64(12), validated.NurseID)
	assert.Equal(t, "2026-03-01", validated.StartDate.Format("2006-01-02"))
	assert.Equal(t, "2026-03-14", validated.EndDate.Format("2006-01-02"))
	assert.Equal(t, "09:00", validated.ShiftStartTime)
	assert.Equal(t, "17:00", validated.ShiftEndTime)
}

func TestShiftValidatorMessages(t *testing.T) {
	v := NewShiftValidator()

	cases := []struct {
		name    string
		mutate  func(*CandidateShift)
		message string
	}{
		{"missing nurse id", func(s *CandidateShift) { s.NurseID = "" }, "All shift fields are required"},
		{"missing start date", func(s *CandidateShift) { s.StartDate = "  " }, "All shift fields are required"},
		{"missing end time", func(s *CandidateShift) { s.ShiftEndTime = "" }, "All shift fields are required"},
		{"non-numeric nurse id", func(s *CandidateShift) { s.NurseID = "abc" }, "Nurse ID must be a positive number"},
		{"zero nurse id", func(s *CandidateShift) { s.NurseID = "0" }, "Nurse ID must be a positive number"},
		{"negative nurse id", func(s *CandidateShift) { s.NurseID = "-3" }, "Nurse ID must be a positive number"},
		{"bad start date", func(s *CandidateShift) { s.StartDate = "03/01/2026" }, "Invalid start date, expected YYYY-MM-DD"},
		{"bad end date", func(s *CandidateShift) { s.EndDate = "tomorrow" }, "Invalid end date, expected YYYY-MM-DD"},
		{"inverted dates", func(s *CandidateShift) { s.StartDate, s.EndDate = "2026-03-14", "2026-03-01" }, "End date cannot be before start date"},
		{"bad start time", func(s *CandidateShift) { s.ShiftStartTime = "9am" }, "Invalid shift start time, expected HH:MM or HH:MM:SS"},
		{"bad end time", func(s *CandidateShift) { s.ShiftEndTime = "25:00" }, "Invalid shift end time, expected HH:MM or HH:MM:SS"},
		{"inverted times", func(s *CandidateShift) { s.ShiftStartTime, s.ShiftEndTime = "17:00", "09:00" }, "Shift end time must be after shift start time"},
		{"equal times", func(s *CandidateShift) { s.ShiftStartTime, s.ShiftEndTime = "09:00", "09:00" }, "Shift end time must be after shift start time"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			shift := validShift()
			tc.mutate(&shift)
			_, err := v.Validate(shift)
			require.Error(t, err)
			appErr := appErrors.FromError(err)
			assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
			assert.Equal(t, tc.message, appErr.Message)
		})
	}
}

func TestShiftValidatorSingleDayShift(t *testing.T) {
	v := NewShiftValidator()
	shift := validShift()
	shift.EndDate = shift.StartDate

	_, err := v.Validate(shift)
	assert.NoError(t, err)
}

func TestShiftValidatorSecondResolution(t *testing.T) {
	v := NewShiftValidator()

	require.NoError(t, v.ValidateTimeRange("09:00:00", "09:00:01"))
	assert.Error(t, v.ValidateTimeRange("09:00:01", "09:00:01"))
}
