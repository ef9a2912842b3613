package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/carewell-health/carewell-ops-api/internal/models"
)

// AssignmentRepository persists nurse-to-client shift assignments.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

const assignmentDetailColumns = `a.id, a.nurse_id, a.client_id, a.start_date, a.end_date,
       a.shift_start_time, a.shift_end_time, a.assigned_type, a.status, a.created_at, a.updated_at,
       n.full_name AS nurse_name, c.display_name AS client_name`

const assignmentDetailBase = `FROM assignments a
JOIN nurses n ON n.id = a.nurse_id
JOIN clients c ON c.id = a.client_id`

// List returns assignment rows matching the provided filter. The status
// filter is expressed as date predicates against the caller-supplied today so
// it agrees with models.DeriveStatus.
func (r *AssignmentRepository) List(ctx context.Context, filter models.AssignmentFilter, today time.Time) ([]models.AssignmentDetail, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	day := today.Format("2006-01-02")

	if filter.Status != nil {
		switch *filter.Status {
		case models.AssignmentUpcoming:
			where = append(where, fmt.Sprintf("a.start_date > $%d", len(args)+1))
			args = append(args, day)
		case models.AssignmentCompleted:
			where = append(where, fmt.Sprintf("a.end_date < $%d", len(args)+1))
			args = append(args, day)
		case models.AssignmentActive:
			where = append(where, fmt.Sprintf("a.start_date <= $%d AND a.end_date >= $%d", len(args)+1, len(args)+2))
			args = append(args, day, day)
		}
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		where = append(where, fmt.Sprintf("(n.full_name ILIKE $%d OR c.display_name ILIKE $%d)", len(args)+1, len(args)+2))
		args = append(args, pattern, pattern)
	}
	if filter.Date != nil {
		d := filter.Date.Format("2006-01-02")
		where = append(where, fmt.Sprintf("a.start_date <= $%d AND a.end_date >= $%d", len(args)+1, len(args)+2))
		args = append(args, d, d)
	}
	if filter.NurseID > 0 {
		where = append(where, fmt.Sprintf("a.nurse_id = $%d", len(args)+1))
		args = append(args, filter.NurseID)
	}
	if filter.ClientID > 0 {
		where = append(where, fmt.Sprintf("a.client_id = $%d", len(args)+1))
		args = append(args, filter.ClientID)
	}
	whereClause := strings.Join(where, " AND ")

	allowedSort := map[string]string{
		"start_date": "a.start_date",
		"end_date":   "a.end_date",
		"created_at": "a.created_at",
		"nurse_name": "n.full_name",
	}
	sortColumn, ok := allowedSort[filter.SortBy]
	if !ok {
		sortColumn = "a.start_date"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s
%s WHERE %s
ORDER BY %s %s
LIMIT %d OFFSET %d`, assignmentDetailColumns, assignmentDetailBase, whereClause, sortColumn, order, size, offset)

	var rows []models.AssignmentDetail
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list assignments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", assignmentDetailBase, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count assignments: %w", err)
	}
	return rows, total, nil
}

// FindByID loads one assignment with display names.
func (r *AssignmentRepository) FindByID(ctx context.Context, id int64) (*models.AssignmentDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE a.id = $1", assignmentDetailColumns, assignmentDetailBase)
	var row models.AssignmentDetail
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find assignment: %w", err)
	}
	return &row, nil
}

// CreateBatch inserts all rows and flips the distinct owning nurses to
// assigned inside one transaction. The availability update never touches
// nurses whose flag reads leave.
func (r *AssignmentRepository) CreateBatch(ctx context.Context, assignments []models.Assignment) ([]models.Assignment, error) {
	if len(assignments) == 0 {
		return nil, nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin create assignments: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			tx.Rollback()
		}
	}()

	const insert = `INSERT INTO assignments
(nurse_id, client_id, start_date, end_date, shift_start_time, shift_end_time, assigned_type, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id`
	now := time.Now().UTC()
	seen := make(map[int64]struct{}, len(assignments))
	nurseIDs := make([]int64, 0, len(assignments))
	stored := make([]models.Assignment, 0, len(assignments))
	for _, a := range assignments {
		a.CreatedAt = now
		a.UpdatedAt = now
		var id int64
		if err := tx.GetContext(ctx, &id, insert,
			a.NurseID, a.ClientID,
			a.StartDate.Format("2006-01-02"), a.EndDate.Format("2006-01-02"),
			a.ShiftStartTime, a.ShiftEndTime, a.AssignedType,
			a.CreatedAt, a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("insert assignment: %w", err)
		}
		a.ID = id
		stored = append(stored, a)
		if _, ok := seen[a.NurseID]; !ok {
			seen[a.NurseID] = struct{}{}
			nurseIDs = append(nurseIDs, a.NurseID)
		}
	}

	const markAssigned = `UPDATE nurses SET availability_status = 'assigned', updated_at = $2
WHERE id = ANY($1) AND availability_status <> 'leave'`
	if _, err := tx.ExecContext(ctx, markAssigned, pq.Array(nurseIDs), now); err != nil {
		return nil, fmt.Errorf("mark nurses assigned: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create assignments: %w", err)
	}
	commit = true
	return stored, nil
}

// Update applies a partial update to the mutable date/time fields.
func (r *AssignmentRepository) Update(ctx context.Context, id int64, update models.AssignmentUpdate) error {
	set := []string{}
	args := []interface{}{}
	if update.StartDate != nil {
		set = append(set, fmt.Sprintf("start_date = $%d", len(args)+1))
		args = append(args, update.StartDate.Format("2006-01-02"))
	}
	if update.EndDate != nil {
		set = append(set, fmt.Sprintf("end_date = $%d", len(args)+1))
		args = append(args, update.EndDate.Format("2006-01-02"))
	}
	if update.ShiftStartTime != nil {
		set = append(set, fmt.Sprintf("shift_start_time = $%d", len(args)+1))
		args = append(args, *update.ShiftStartTime)
	}
	if update.ShiftEndTime != nil {
		set = append(set, fmt.Sprintf("shift_end_time = $%d", len(args)+1))
		args = append(args, *update.ShiftEndTime)
	}
	if update.AssignedType != nil {
		set = append(set, fmt.Sprintf("assigned_type = $%d", len(args)+1))
		args = append(args, *update.AssignedType)
	}
	if len(set) == 0 {
		return nil
	}
	set = append(set, fmt.Sprintf("updated_at = $%d", len(args)+1))
	args = append(args, time.Now().UTC())
	args = append(args, id)

	query := fmt.Sprintf("UPDATE assignments SET %s WHERE id = $%d", strings.Join(set, ", "), len(args))
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update assignment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check updated assignment rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// End force-sets the end date to the given day and writes the completion
// marker. The marker records an early end; reads still derive status from dates.
func (r *AssignmentRepository) End(ctx context.Context, id int64, endDate time.Time) error {
	const query = `UPDATE assignments SET end_date = $2, status = 'completed', updated_at = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, endDate.Format("2006-01-02"), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("end assignment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check ended assignment rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete hard-deletes the row, counts the owning nurse's remaining
// non-completed assignments after the delete, and flips the nurse to
// unassigned when none remain. All three statements share one transaction so
// the recount can never observe the deleted row.
func (r *AssignmentRepository) Delete(ctx context.Context, id int64, today time.Time) (int64, int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("begin delete assignment: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			tx.Rollback()
		}
	}()

	var nurseID int64
	if err := tx.GetContext(ctx, &nurseID, `SELECT nurse_id FROM assignments WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return 0, 0, sql.ErrNoRows
		}
		return 0, 0, fmt.Errorf("load assignment owner: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM assignments WHERE id = $1`, id); err != nil {
		return 0, 0, fmt.Errorf("delete assignment: %w", err)
	}

	var remaining int
	const countQuery = `SELECT COUNT(*) FROM assignments WHERE nurse_id = $1 AND end_date >= $2`
	if err := tx.GetContext(ctx, &remaining, countQuery, nurseID, today.Format("2006-01-02")); err != nil {
		return 0, 0, fmt.Errorf("count remaining assignments: %w", err)
	}

	if remaining == 0 {
		const markUnassigned = `UPDATE nurses SET availability_status = 'unassigned', updated_at = $2
WHERE id = $1 AND availability_status <> 'leave'`
		if _, err := tx.ExecContext(ctx, markUnassigned, nurseID, time.Now().UTC()); err != nil {
			return 0, 0, fmt.Errorf("mark nurse unassigned: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("commit delete assignment: %w", err)
	}
	commit = true
	return nurseID, remaining, nil
}

// CountNonCompletedByNurse returns the nurse's assignments whose derived
// status is not completed as of today.
func (r *AssignmentRepository) CountNonCompletedByNurse(ctx context.Context, nurseID int64, today time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM assignments WHERE nurse_id = $1 AND end_date >= $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, nurseID, today.Format("2006-01-02")); err != nil {
		return 0, fmt.Errorf("count non-completed assignments: %w", err)
	}
	return count, nil
}
