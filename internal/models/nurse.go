package models

import "time"

// AvailabilityStatus is the cached projection of whether a nurse currently
// holds any non-completed assignment. Leave is written by the external leave
// system and always takes precedence over reconciliation.
type AvailabilityStatus string

const (
	AvailabilityUnassigned AvailabilityStatus = "unassigned"
	AvailabilityAssigned   AvailabilityStatus = "assigned"
	AvailabilityLeave      AvailabilityStatus = "leave"
)

// Valid returns true when the status is a supported value.
func (s AvailabilityStatus) Valid() bool {
	switch s {
	case AvailabilityUnassigned, AvailabilityAssigned, AvailabilityLeave:
		return true
	default:
		return false
	}
}

// Nurse represents a nurse record.
type Nurse struct {
	ID                 int64              `db:"id" json:"id"`
	FullName           string             `db:"full_name" json:"full_name"`
	Email              string             `db:"email" json:"email"`
	Phone              *string            `db:"phone" json:"phone,omitempty"`
	AvailabilityStatus AvailabilityStatus `db:"availability_status" json:"availability_status"`
	Active             bool               `db:"active" json:"active"`
	CreatedAt          time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time          `db:"updated_at" json:"updated_at"`
}
