package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/carewell-health/carewell-ops-api/internal/models"
	appErrors "github.com/carewell-health/carewell-ops-api/pkg/errors"
)

type attendanceRepo interface {
	ListByDate(ctx context.Context, date time.Time) ([]models.PunchWithSchedule, error)
	Upsert(ctx context.Context, punch *models.AttendancePunch) (*models.AttendancePunch, error)
}

type assignmentLookup interface {
	FindByID(ctx context.Context, id int64) (*models.AssignmentDetail, error)
}

// RecordPunchRequest is a raw check-in/check-out payload for one shift day.
type RecordPunchRequest struct {
	AssignmentID int64   `json:"assignment_id" validate:"required,gt=0"`
	Date         string  `json:"date" validate:"required"`
	StartTime    *string `json:"start_time"`
	EndTime      *string `json:"end_time"`
	TotalHours   *string `json:"total_hours"`
	Location     *string `json:"location"`
}

// AttendanceService reconciles raw punches against the scheduled shift
// window: it classifies each day as Absent, Present or Late, computes a
// display-ready worked-hours string and normalizes times and locations.
// Malformed values degrade instead of failing the pass for other records.
type AttendanceService struct {
	repo         attendanceRepo
	assignments  assignmentLookup
	graceMinutes int
	metrics      *MetricsService
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewAttendanceService constructs the reconciler.
func NewAttendanceService(repo attendanceRepo, assignments assignmentLookup, graceMinutes int, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if graceMinutes <= 0 {
		graceMinutes = 15
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{
		repo:         repo,
		assignments:  assignments,
		graceMinutes: graceMinutes,
		metrics:      metrics,
		validator:    validate,
		logger:       logger,
	}
}

// ReconcileDaily returns the normalized attendance records for every punch
// recorded on the given day.
func (s *AttendanceService) ReconcileDaily(ctx context.Context, date time.Time) ([]models.AttendanceRecord, error) {
	rows, err := s.repo.ListByDate(ctx, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, fmt.Sprintf("Database error: %v", err))
	}
	records := make([]models.AttendanceRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, s.reconcileRow(row))
	}
	s.metrics.AddAttendanceReconciled(len(records))
	return records, nil
}

// RecordPunch upserts the punch for its (assignment, date) pair after
// verifying the assignment exists and any provided times parse.
func (s *AttendanceService) RecordPunch(ctx context.Context, req RecordPunchRequest) (*models.AttendancePunch, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid punch payload")
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Invalid date, expected YYYY-MM-DD")
	}
	for _, clock := range []*string{req.StartTime, req.EndTime} {
		if clock == nil || strings.TrimSpace(*clock) == "" {
			continue
		}
		if _, _, _, err := parseClock(*clock); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "Invalid punch time, expected HH:MM or HH:MM:SS")
		}
	}

	if _, err := s.assignments.FindByID(ctx, req.AssignmentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, fmt.Sprintf("Database error: %v", err))
	}

	punch := &models.AttendancePunch{
		AssignmentID: req.AssignmentID,
		Date:         date,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		TotalHours:   req.TotalHours,
		Location:     req.Location,
	}
	stored, err := s.repo.Upsert(ctx, punch)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, fmt.Sprintf("Database error: %v", err))
	}
	return stored, nil
}

func (s *AttendanceService) reconcileRow(row models.PunchWithSchedule) models.AttendanceRecord {
	record := models.AttendanceRecord{
		PunchID:      row.ID,
		AssignmentID: row.AssignmentID,
		Date:         row.Date.Format("2006-01-02"),
		NurseID:      row.NurseID,
		NurseName:    row.NurseName,
		ClientID:     row.ClientID,
		ClientName:   row.ClientName,
		ShiftStart:   to12Hour(row.ShiftStartTime),
		ShiftEnd:     to12Hour(row.ShiftEndTime),
		Status:       s.classify(row.StartTime, row.ShiftStartTime),
		HoursWorked:  s.hoursWorked(row.TotalHours, row.StartTime, row.EndTime),
		Location:     s.normalizeLocation(row.Location),
	}
	if row.StartTime != nil {
		record.CheckIn = to12Hour(*row.StartTime)
	}
	if row.EndTime != nil {
		record.CheckOut = to12Hour(*row.EndTime)
	}
	return record
}

// classify marks the day Absent when no check-in exists, Late when the
// check-in exceeds the scheduled start by more than the grace window, and
// Present otherwise. The grace boundary itself is still Present.
func (s *AttendanceService) classify(startTime *string, scheduledStart string) models.AttendanceDisplayStatus {
	if startTime == nil || strings.TrimSpace(*startTime) == "" {
		return models.AttendanceAbsent
	}
	ah, am, _, err := parseClock(*startTime)
	if err != nil {
		s.logger.Warn("unparseable punch start time", zap.String("start_time", *startTime))
		return models.AttendancePresent
	}
	sh, sm, _, err := parseClock(scheduledStart)
	if err != nil {
		s.logger.Warn("unparseable scheduled shift start", zap.String("shift_start", scheduledStart))
		return models.AttendancePresent
	}
	if ah*60+am > sh*60+sm+s.graceMinutes {
		return models.AttendanceLate
	}
	return models.AttendancePresent
}

// hoursWorked resolves the worked-duration display string in priority
// order: an authoritative total_hours value, then the punch pair, then "0".
func (s *AttendanceService) hoursWorked(totalHours, startTime, endTime *string) string {
	if totalHours != nil && strings.TrimSpace(*totalHours) != "" {
		raw := strings.TrimSpace(*totalHours)
		if strings.Contains(raw, ":") {
			parts := strings.SplitN(raw, ":", 2)
			hours, errH := strconv.Atoi(parts[0])
			minutes, errM := strconv.Atoi(parts[1])
			if errH != nil || errM != nil {
				s.logger.Warn("unparseable total hours", zap.String("total_hours", raw))
				return raw
			}
			return formatHoursMinutes(hours, minutes)
		}
		hours, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			s.logger.Warn("unparseable total hours", zap.String("total_hours", raw))
			return raw
		}
		return strconv.FormatFloat(hours, 'f', -1, 64) + "h"
	}

	if startTime != nil && endTime != nil &&
		strings.TrimSpace(*startTime) != "" && strings.TrimSpace(*endTime) != "" {
		sh, sm, ss, errS := parseClock(*startTime)
		eh, em, es, errE := parseClock(*endTime)
		if errS == nil && errE == nil {
			diff := clockSeconds(eh, em, es) - clockSeconds(sh, sm, ss)
			if diff < 0 {
				diff = 0
			}
			hours := diff / 3600
			minutes := int(math.Round(float64(diff%3600) / 60.0))
			if minutes == 60 {
				hours++
				minutes = 0
			}
			return formatHoursMinutes(hours, minutes)
		}
	}

	return "0"
}

func formatHoursMinutes(hours, minutes int) string {
	if hours == 0 {
		return fmt.Sprintf("%d min", minutes)
	}
	if minutes == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

// normalizeLocation renders JSON-shaped coordinates as "lat, lng". Anything
// else, including JSON that fails to parse, passes through unchanged.
func (s *AttendanceService) normalizeLocation(raw *string) string {
	if raw == nil {
		return ""
	}
	trimmed := strings.TrimSpace(*raw)
	if trimmed == "" {
		return ""
	}
	switch trimmed[0] {
	case '{':
		var payload struct {
			Latitude  interface{} `json:"latitude"`
			Longitude interface{} `json:"longitude"`
		}
		if err := json.Unmarshal([]byte(trimmed), &payload); err != nil {
			s.logger.Warn("unparseable location payload", zap.String("location", trimmed), zap.Error(err))
			return trimmed
		}
		if payload.Latitude == nil || payload.Longitude == nil {
			return trimmed
		}
		return fmt.Sprintf("%v, %v", payload.Latitude, payload.Longitude)
	case '[':
		var coords []interface{}
		if err := json.Unmarshal([]byte(trimmed), &coords); err != nil {
			s.logger.Warn("unparseable location payload", zap.String("location", trimmed), zap.Error(err))
			return trimmed
		}
		if len(coords) < 2 {
			return trimmed
		}
		return fmt.Sprintf("%v, %v", coords[0], coords[1])
	default:
		return trimmed
	}
}
