package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carewell-health/carewell-ops-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func detailColumns() []string {
	return []string{
		"id", "nurse_id", "client_id", "start_date", "end_date",
		"shift_start_time", "shift_end_time", "assigned_type", "status",
		"created_at", "updated_at", "nurse_name", "client_name",
	}
}

func detailRow(rows *sqlmock.Rows, id int64) *sqlmock.Rows {
	now := time.Now()
	return rows.AddRow(
		id, int64(12), int64(5),
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC),
		"09:00", "17:00", "individual", nil, now, now,
		"Ada Okafor", "Brightside Residence",
	)
}

func TestAssignmentRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT a.id, a.nurse_id, a.client_id, a.start_date, a.end_date,")).
		WillReturnRows(detailRow(sqlmock.NewRows(detailColumns()), 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM assignments a")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	rows, total, err := repo.List(context.Background(), models.AssignmentFilter{}, today)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, 1, total)
	// The completion marker is NULL for any assignment never ended early.
	assert.Nil(t, rows[0].StatusMarker)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryListScansCompletionMarker(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	now := time.Now()
	rows := sqlmock.NewRows(detailColumns()).AddRow(
		int64(1), int64(12), int64(5),
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
		"09:00", "17:00", "individual", "completed", now, now,
		"Ada Okafor", "Brightside Residence",
	)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT a.id, a.nurse_id, a.client_id, a.start_date, a.end_date,")).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM assignments a")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	list, _, err := repo.List(context.Background(), models.AssignmentFilter{}, today)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].StatusMarker)
	assert.Equal(t, "completed", *list[0].StatusMarker)
}

func TestAssignmentRepositoryListActiveStatusFilter(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("a.start_date <= $1 AND a.end_date >= $2")).
		WithArgs("2026-03-10", "2026-03-10").
		WillReturnRows(detailRow(sqlmock.NewRows(detailColumns()), 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM assignments a")).
		WithArgs("2026-03-10", "2026-03-10").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	status := models.AssignmentActive
	_, _, err := repo.List(context.Background(), models.AssignmentFilter{Status: &status}, today)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE a.id = $1")).
		WithArgs(int64(7)).
		WillReturnRows(detailRow(sqlmock.NewRows(detailColumns()), 7))

	row, err := repo.FindByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), row.ID)
	assert.Equal(t, "Ada Okafor", row.NurseName)
	assert.Nil(t, row.StatusMarker)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE a.id = $1")).
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	_, err = repo.FindByID(context.Background(), 99)
	assert.Equal(t, sql.ErrNoRows, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryCreateBatch(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO assignments").
		WithArgs(int64(12), int64(5), "2026-03-01", "2026-03-20", "09:00", "17:00", "individual", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectQuery("INSERT INTO assignments").
		WithArgs(int64(13), int64(5), "2026-03-01", "2026-03-20", "09:00", "17:00", "individual", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(2)))
	mock.ExpectExec("UPDATE nurses SET availability_status = 'assigned'").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	assignments := []models.Assignment{
		{
			NurseID: 12, ClientID: 5,
			StartDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC),
			ShiftStartTime: "09:00", ShiftEndTime: "17:00", AssignedType: "individual",
		},
		{
			NurseID: 13, ClientID: 5,
			StartDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC),
			ShiftStartTime: "09:00", ShiftEndTime: "17:00", AssignedType: "individual",
		},
	}

	stored, err := repo.CreateBatch(context.Background(), assignments)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, int64(1), stored[0].ID)
	assert.Equal(t, int64(2), stored[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryCreateBatchRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO assignments").
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	_, err := repo.CreateBatch(context.Background(), []models.Assignment{{
		NurseID: 12, ClientID: 5,
		StartDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC),
		ShiftStartTime: "09:00", ShiftEndTime: "17:00", AssignedType: "individual",
	}})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryUpdate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	end := time.Date(2026, 3, 25, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE assignments SET end_date = $1, updated_at = $2 WHERE id = $3")).
		WithArgs("2026-03-25", sqlmock.AnyArg(), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Update(context.Background(), 7, models.AssignmentUpdate{EndDate: &end}))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE assignments SET end_date = $1, updated_at = $2 WHERE id = $3")).
		WithArgs("2026-03-25", sqlmock.AnyArg(), int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), 99, models.AssignmentUpdate{EndDate: &end})
	assert.Equal(t, sql.ErrNoRows, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryUpdateNoFields(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	require.NoError(t, repo.Update(context.Background(), 7, models.AssignmentUpdate{}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryEnd(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE assignments SET end_date = $2, status = 'completed', updated_at = $3 WHERE id = $1")).
		WithArgs(int64(7), "2026-03-10", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.End(context.Background(), 7, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryDeleteFlipsNurseWhenNoneRemain(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT nurse_id FROM assignments").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"nurse_id"}).AddRow(int64(12)))
	mock.ExpectExec("DELETE FROM assignments").
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM assignments WHERE nurse_id = $1 AND end_date >= $2")).
		WithArgs(int64(12), "2026-03-10").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec("UPDATE nurses SET availability_status = 'unassigned'").
		WithArgs(int64(12), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	nurseID, remaining, err := repo.Delete(context.Background(), 7, today)
	require.NoError(t, err)
	assert.Equal(t, int64(12), nurseID)
	assert.Equal(t, 0, remaining)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryDeleteKeepsNurseWhenAssignmentsRemain(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT nurse_id FROM assignments").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"nurse_id"}).AddRow(int64(12)))
	mock.ExpectExec("DELETE FROM assignments").
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM assignments WHERE nurse_id = $1 AND end_date >= $2")).
		WithArgs(int64(12), "2026-03-10").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectCommit()

	nurseID, remaining, err := repo.Delete(context.Background(), 7, today)
	require.NoError(t, err)
	assert.Equal(t, int64(12), nurseID)
	assert.Equal(t, 2, remaining)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT nurse_id FROM assignments").
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, _, err := repo.Delete(context.Background(), 99, time.Now())
	assert.Equal(t, sql.ErrNoRows, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryCountNonCompleted(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM assignments WHERE nurse_id = $1 AND end_date >= $2")).
		WithArgs(int64(12), "2026-03-10").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountNonCompletedByNurse(context.Background(), 12, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
