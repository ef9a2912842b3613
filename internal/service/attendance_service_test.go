package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/carewell-health/carewell-ops-api/internal/models"
	appErrors "github.com/carewell-health/carewell-ops-api/pkg/errors"
)

type mockAttendanceRepo struct {
	rows     []models.PunchWithSchedule
	listErr  error
	upserted *models.AttendancePunch
}

func (m *mockAttendanceRepo) ListByDate(ctx context.Context, date time.Time) ([]models.PunchWithSchedule, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.rows, nil
}

func (m *mockAttendanceRepo) Upsert(ctx context.Context, punch *models.AttendancePunch) (*models.AttendancePunch, error) {
	cp := *punch
	cp.ID = 77
	m.upserted = &cp
	return &cp, nil
}

type mockAssignmentLookup struct {
	known map[int64]*models.AssignmentDetail
}

func (m *mockAssignmentLookup) FindByID(ctx context.Context, id int64) (*models.AssignmentDetail, error) {
	if detail, ok := m.known[id]; ok {
		return detail, nil
	}
	return nil, sql.ErrNoRows
}

func newAttendanceService(repo *mockAttendanceRepo, lookup *mockAssignmentLookup) *AttendanceService {
	return NewAttendanceService(repo, lookup, 15, nil, validator.New(), zap.NewNop())
}

func strPtr(s string) *string { return &s }

func TestAttendanceClassify(t *testing.T) {
	svc := newAttendanceService(&mockAttendanceRepo{}, &mockAssignmentLookup{})

	cases := []struct {
		name      string
		startTime *string
		scheduled string
		want      models.AttendanceDisplayStatus
	}{
		{"no check-in", nil, "09:00", models.AttendanceAbsent},
		{"empty check-in", strPtr("  "), "09:00", models.AttendanceAbsent},
		{"on time", strPtr("09:00"), "09:00", models.AttendancePresent},
		{"early", strPtr("08:45"), "09:00", models.AttendancePresent},
		{"on the grace boundary", strPtr("09:15"), "09:00", models.AttendancePresent},
		{"one past the boundary", strPtr("09:16"), "09:00", models.AttendanceLate},
		{"very late", strPtr("11:00"), "09:00", models.AttendanceLate},
		{"unparseable check-in", strPtr("nine"), "09:00", models.AttendancePresent},
		{"unparseable schedule", strPtr("09:30"), "garbage", models.AttendancePresent},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, svc.classify(tc.startTime, tc.scheduled))
		})
	}
}

func TestAttendanceHoursWorked(t *testing.T) {
	svc := newAttendanceService(&mockAttendanceRepo{}, &mockAssignmentLookup{})

	cases := []struct {
		name       string
		totalHours *string
		startTime  *string
		endTime    *string
		want       string
	}{
		{"colon total", strPtr("1:30"), nil, nil, "1h 30m"},
		{"sub-hour colon total", strPtr("0:45"), nil, nil, "45 min"},
		{"whole hour colon total", strPtr("8:00"), nil, nil, "8h"},
		{"decimal total", strPtr("7.5"), nil, nil, "7.5h"},
		{"integer total", strPtr("8"), nil, nil, "8h"},
		{"unparseable total passes through", strPtr("a:bc"), nil, nil, "a:bc"},
		{"total wins over punches", strPtr("2:00"), strPtr("09:00"), strPtr("17:00"), "2h"},
		{"derived from punches", nil, strPtr("09:00"), strPtr("17:30"), "8h 30m"},
		{"derived sub-hour", nil, strPtr("09:00"), strPtr("09:45"), "45 min"},
		{"missing end punch", nil, strPtr("09:00"), nil, "0"},
		{"missing both punches", nil, nil, nil, "0"},
		{"inverted punches clamp to zero", nil, strPtr("17:00"), strPtr("09:00"), "0 min"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, svc.hoursWorked(tc.totalHours, tc.startTime, tc.endTime))
		})
	}
}

func TestAttendanceNormalizeLocation(t *testing.T) {
	svc := newAttendanceService(&mockAttendanceRepo{}, &mockAssignmentLookup{})

	cases := []struct {
		name string
		raw  *string
		want string
	}{
		{"nil", nil, ""},
		{"blank", strPtr("   "), ""},
		{"object payload", strPtr(`{"latitude": 40.7128, "longitude": -74.006}`), "40.7128, -74.006"},
		{"string coordinates", strPtr(`{"latitude": "40.7", "longitude": "-74.0"}`), "40.7, -74.0"},
		{"array payload", strPtr(`[40.7128, -74.006]`), "40.7128, -74.006"},
		{"object missing longitude", strPtr(`{"latitude": 40.7}`), `{"latitude": 40.7}`},
		{"broken json passes through", strPtr(`{"latitude": `), `{"latitude":`},
		{"plain text passes through", strPtr("Client home, Brooklyn"), "Client home, Brooklyn"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, svc.normalizeLocation(tc.raw))
		})
	}
}

func TestAttendanceReconcileDaily(t *testing.T) {
	repo := &mockAttendanceRepo{
		rows: []models.PunchWithSchedule{
			{
				AttendancePunch: models.AttendancePunch{
					ID:           1,
					AssignmentID: 10,
					Date:         time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
					StartTime:    strPtr("09:20"),
					EndTime:      strPtr("17:00"),
				},
				NurseID:        3,
				NurseName:      "Ada Okafor",
				ClientID:       5,
				ClientName:     "Brightside Residence",
				ShiftStartTime: "09:00",
				ShiftEndTime:   "17:00",
			},
			{
				AttendancePunch: models.AttendancePunch{
					ID:           2,
					AssignmentID: 11,
					Date:         time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
				},
				NurseID:        4,
				NurseName:      "Ben Reyes",
				ClientID:       5,
				ClientName:     "Brightside Residence",
				ShiftStartTime: "08:00",
				ShiftEndTime:   "16:00",
			},
		},
	}
	svc := newAttendanceService(repo, &mockAssignmentLookup{})

	records, err := svc.ReconcileDaily(context.Background(), time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, records, 2)

	late := records[0]
	assert.Equal(t, models.AttendanceLate, late.Status)
	assert.Equal(t, "9:20 AM", late.CheckIn)
	assert.Equal(t, "5:00 PM", late.CheckOut)
	assert.Equal(t, "9:00 AM", late.ShiftStart)
	assert.Equal(t, "7h 40m", late.HoursWorked)
	assert.Equal(t, "2026-03-10", late.Date)

	absent := records[1]
	assert.Equal(t, models.AttendanceAbsent, absent.Status)
	assert.Equal(t, "", absent.CheckIn)
	assert.Equal(t, "", absent.CheckOut)
	assert.Equal(t, "0", absent.HoursWorked)
}

func TestAttendanceRecordPunch(t *testing.T) {
	repo := &mockAttendanceRepo{}
	lookup := &mockAssignmentLookup{known: map[int64]*models.AssignmentDetail{10: {}}}
	svc := newAttendanceService(repo, lookup)

	stored, err := svc.RecordPunch(context.Background(), RecordPunchRequest{
		AssignmentID: 10,
		Date:         "2026-03-10",
		StartTime:    strPtr("09:05"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(77), stored.ID)
	require.NotNil(t, repo.upserted)
	assert.Equal(t, int64(10), repo.upserted.AssignmentID)
}

func TestAttendanceRecordPunchUnknownAssignment(t *testing.T) {
	svc := newAttendanceService(&mockAttendanceRepo{}, &mockAssignmentLookup{})

	_, err := svc.RecordPunch(context.Background(), RecordPunchRequest{
		AssignmentID: 99,
		Date:         "2026-03-10",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Equal(t, "Assignment not found", appErr.Message)
}

func TestAttendanceRecordPunchRejectsBadTime(t *testing.T) {
	lookup := &mockAssignmentLookup{known: map[int64]*models.AssignmentDetail{10: {}}}
	svc := newAttendanceService(&mockAttendanceRepo{}, lookup)

	_, err := svc.RecordPunch(context.Background(), RecordPunchRequest{
		AssignmentID: 10,
		Date:         "2026-03-10",
		StartTime:    strPtr("9am"),
	})
	require.Error(t, err)
	assert.Equal(t, "Invalid punch time, expected HH:MM or HH:MM:SS", appErrors.FromError(err).Message)
}

func TestTo12Hour(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"00:05", "12:05 AM"},
		{"09:00", "9:00 AM"},
		{"12:00", "12:00 PM"},
		{"13:30", "1:30 PM"},
		{"23:59", "11:59 PM"},
		{"garbage", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, to12Hour(tc.in), tc.in)
	}
}
