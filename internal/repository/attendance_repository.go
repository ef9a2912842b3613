package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/carewell-health/carewell-ops-api/internal/models"
)

// AttendanceRepository persists daily attendance punches.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// ListByDate returns every punch for the day joined with its assignment's
// shift window and display names. The join has fixed arity: exactly one
// assignment, nurse and client per punch.
func (r *AttendanceRepository) ListByDate(ctx context.Context, date time.Time) ([]models.PunchWithSchedule, error) {
	const query = `
SELECT p.id, p.assignment_id, p.date, p.start_time, p.end_time, p.total_hours, p.location,
       p.created_at, p.updated_at,
       a.nurse_id, n.full_name AS nurse_name,
       a.client_id, c.display_name AS client_name,
       a.shift_start_time, a.shift_end_time
FROM attendance_punches p
JOIN assignments a ON a.id = p.assignment_id
JOIN nurses n ON n.id = a.nurse_id
JOIN clients c ON c.id = a.client_id
WHERE p.date = $1
ORDER BY n.full_name ASC, a.id ASC`
	var rows []models.PunchWithSchedule
	if err := r.db.SelectContext(ctx, &rows, query, date.Format("2006-01-02")); err != nil {
		return nil, fmt.Errorf("list day punches: %w", err)
	}
	return rows, nil
}

// Upsert inserts or updates the punch for its (assignment, date) pair.
func (r *AttendanceRepository) Upsert(ctx context.Context, punch *models.AttendancePunch) (*models.AttendancePunch, error) {
	now := time.Now().UTC()
	if punch.CreatedAt.IsZero() {
		punch.CreatedAt = now
	}
	punch.UpdatedAt = now
	const query = `INSERT INTO attendance_punches
(assignment_id, date, start_time, end_time, total_hours, location, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (assignment_id, date)
DO UPDATE SET start_time = EXCLUDED.start_time, end_time = EXCLUDED.end_time,
              total_hours = EXCLUDED.total_hours, location = EXCLUDED.location,
              updated_at = EXCLUDED.updated_at
RETURNING id, assignment_id, date, start_time, end_time, total_hours, location, created_at, updated_at`
	var stored models.AttendancePunch
	if err := r.db.GetContext(ctx, &stored, query,
		punch.AssignmentID, punch.Date.Format("2006-01-02"),
		punch.StartTime, punch.EndTime, punch.TotalHours, punch.Location,
		punch.CreatedAt, punch.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("upsert attendance punch: %w", err)
	}
	return &stored, nil
}
