package models

import "time"

// AttendanceDisplayStatus classifies a reconciled punch for display.
type AttendanceDisplayStatus string

const (
	AttendanceAbsent  AttendanceDisplayStatus = "Absent"
	AttendancePresent AttendanceDisplayStatus = "Present"
	AttendanceLate    AttendanceDisplayStatus = "Late"
)

// AttendancePunch is a single day's raw check-in/check-out record for an
// assignment. Times are stored as 24-hour HH:MM[:SS] strings; nil start time
// means no check-in happened.
type AttendancePunch struct {
	ID           int64     `db:"id" json:"id"`
	AssignmentID int64     `db:"assignment_id" json:"assignment_id"`
	Date         time.Time `db:"date" json:"date"`
	StartTime    *string   `db:"start_time" json:"start_time,omitempty"`
	EndTime      *string   `db:"end_time" json:"end_time,omitempty"`
	TotalHours   *string   `db:"total_hours" json:"total_hours,omitempty"`
	Location     *string   `db:"location" json:"location,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// PunchWithSchedule is the fixed-arity join row a day-punch read returns:
// one punch with its owning assignment's shift window and display names.
type PunchWithSchedule struct {
	AttendancePunch
	NurseID        int64  `db:"nurse_id" json:"nurse_id"`
	NurseName      string `db:"nurse_name" json:"nurse_name"`
	ClientID       int64  `db:"client_id" json:"client_id"`
	ClientName     string `db:"client_name" json:"client_name"`
	ShiftStartTime string `db:"shift_start_time" json:"shift_start_time"`
	ShiftEndTime   string `db:"shift_end_time" json:"shift_end_time"`
}

// AttendanceRecord is the normalized, display-ready form of a punch.
type AttendanceRecord struct {
	PunchID      int64                   `json:"punch_id"`
	AssignmentID int64                   `json:"assignment_id"`
	Date         string                  `json:"date"`
	NurseID      int64                   `json:"nurse_id"`
	NurseName    string                  `json:"nurse_name"`
	ClientID     int64                   `json:"client_id"`
	ClientName   string                  `json:"client_name"`
	ShiftStart   string                  `json:"shift_start"`
	ShiftEnd     string                  `json:"shift_end"`
	CheckIn      string                  `json:"check_in"`
	CheckOut     string                  `json:"check_out"`
	Status       AttendanceDisplayStatus `json:"status"`
	HoursWorked  string                  `json:"hours_worked"`
	Location     string                  `json:"location"`
}
