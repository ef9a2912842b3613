package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/carewell-health/carewell-ops-api/internal/models"
)

// NurseRepository reads nurse records and owns availability flag writes.
type NurseRepository struct {
	db *sqlx.DB
}

// NewNurseRepository constructs the repository.
func NewNurseRepository(db *sqlx.DB) *NurseRepository {
	return &NurseRepository{db: db}
}

// FindByID loads a nurse record.
func (r *NurseRepository) FindByID(ctx context.Context, id int64) (*models.Nurse, error) {
	const query = `SELECT id, full_name, email, phone, availability_status, active, created_at, updated_at
FROM nurses WHERE id = $1`
	var nurse models.Nurse
	if err := r.db.GetContext(ctx, &nurse, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find nurse: %w", err)
	}
	return &nurse, nil
}

// ExistingIDs returns the subset of the given nurse ids that exist.
func (r *NurseRepository) ExistingIDs(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const query = `SELECT id FROM nurses WHERE id = ANY($1)`
	var found []int64
	if err := r.db.SelectContext(ctx, &found, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("check nurse ids: %w", err)
	}
	return found, nil
}

// GetAvailability returns the nurse's current availability flag.
func (r *NurseRepository) GetAvailability(ctx context.Context, id int64) (models.AvailabilityStatus, error) {
	const query = `SELECT availability_status FROM nurses WHERE id = $1`
	var status models.AvailabilityStatus
	if err := r.db.GetContext(ctx, &status, query, id); err != nil {
		if err == sql.ErrNoRows {
			return "", sql.ErrNoRows
		}
		return "", fmt.Errorf("get nurse availability: %w", err)
	}
	return status, nil
}

// SetAvailability writes the flag unless the nurse is on leave. Leave is
// owned by the external leave system and always wins; the guard lives in the
// statement so there is no read-modify-write window.
func (r *NurseRepository) SetAvailability(ctx context.Context, id int64, status models.AvailabilityStatus) (bool, error) {
	const query = `UPDATE nurses SET availability_status = $2, updated_at = $3
WHERE id = $1 AND availability_status <> 'leave'`
	result, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("set nurse availability: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check availability rows: %w", err)
	}
	return affected > 0, nil
}
