package models

import "time"

// AssignmentStatus is the lifecycle status of an assignment. It is always
// derived from the date range at read time; the stored status column only
// records an explicit early end and is never trusted for display.
type AssignmentStatus string

const (
	AssignmentUpcoming  AssignmentStatus = "upcoming"
	AssignmentActive    AssignmentStatus = "active"
	AssignmentCompleted AssignmentStatus = "completed"
)

// Valid returns true when the status is a supported value.
func (s AssignmentStatus) Valid() bool {
	switch s {
	case AssignmentUpcoming, AssignmentActive, AssignmentCompleted:
		return true
	default:
		return false
	}
}

// DeriveStatus computes the lifecycle status of a date range relative to
// today. Dates are compared at calendar-day resolution; both ends of the
// range are inclusive.
func DeriveStatus(startDate, endDate, today time.Time) AssignmentStatus {
	start := truncateToDay(startDate)
	end := truncateToDay(endDate)
	now := truncateToDay(today)

	if start.After(now) {
		return AssignmentUpcoming
	}
	if end.Before(now) {
		return AssignmentCompleted
	}
	return AssignmentActive
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Assignment binds a nurse to a client for a daily shift window over a date range.
type Assignment struct {
	ID             int64     `db:"id" json:"id"`
	NurseID        int64     `db:"nurse_id" json:"nurse_id"`
	ClientID       int64     `db:"client_id" json:"client_id"`
	StartDate      time.Time `db:"start_date" json:"start_date"`
	EndDate        time.Time `db:"end_date" json:"end_date"`
	ShiftStartTime string    `db:"shift_start_time" json:"shift_start_time"`
	ShiftEndTime   string    `db:"shift_end_time" json:"shift_end_time"`
	AssignedType   string    `db:"assigned_type" json:"assigned_type"`
	StatusMarker   *string   `db:"status" json:"-"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// AssignmentDetail enriches an assignment row with display names and the
// derived lifecycle status.
type AssignmentDetail struct {
	Assignment
	NurseName  string           `db:"nurse_name" json:"nurse_name"`
	ClientName string           `db:"client_name" json:"client_name"`
	Status     AssignmentStatus `db:"-" json:"status"`
}

// AssignmentFilter scopes listing queries.
type AssignmentFilter struct {
	Status    *AssignmentStatus
	Search    string
	Date      *time.Time
	NurseID   int64
	ClientID  int64
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// AssignmentUpdate carries the mutable fields of a partial update. Nil
// pointers leave the stored value untouched.
type AssignmentUpdate struct {
	StartDate      *time.Time
	EndDate        *time.Time
	ShiftStartTime *string
	ShiftEndTime   *string
	AssignedType   *string
}
