package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/carewell-health/carewell-ops-api/internal/models"
	appErrors "github.com/carewell-health/carewell-ops-api/pkg/errors"
)

type assignmentRepo interface {
	List(ctx context.Context, filter models.AssignmentFilter, today time.Time) ([]models.AssignmentDetail, int, error)
	FindByID(ctx context.Context, id int64) (*models.AssignmentDetail, error)
	CreateBatch(ctx context.Context, assignments []models.Assignment) ([]models.Assignment, error)
	Update(ctx context.Context, id int64, update models.AssignmentUpdate) error
	End(ctx context.Context, id int64, endDate time.Time) error
	Delete(ctx context.Context, id int64, today time.Time) (int64, int, error)
}

type nurseReader interface {
	ExistingIDs(ctx context.Context, ids []int64) ([]int64, error)
}

type clientReader interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

type availabilityReconciler interface {
	Reconcile(ctx context.Context, nurseID int64) error
}

// ShiftInput is one proposed shift in a batch create payload.
type ShiftInput struct {
	NurseID        string `json:"nurse_id"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	ShiftStartTime string `json:"shift_start_time"`
	ShiftEndTime   string `json:"shift_end_time"`
	AssignedType   string `json:"assigned_type"`
}

// CreateAssignmentsRequest describes a batch create payload.
type CreateAssignmentsRequest struct {
	ClientID int64        `json:"client_id" validate:"required,gt=0"`
	Shifts   []ShiftInput `json:"shifts" validate:"required,min=1"`
}

// UpdateAssignmentRequest carries a partial update. Only provided fields are
// re-validated and persisted.
type UpdateAssignmentRequest struct {
	StartDate      *string `json:"start_date"`
	EndDate        *string `json:"end_date"`
	ShiftStartTime *string `json:"shift_start_time"`
	ShiftEndTime   *string `json:"shift_end_time"`
	AssignedType   *string `json:"assigned_type"`
}

// ListAssignmentsRequest scopes the paginated listing.
type ListAssignmentsRequest struct {
	Status    string
	Search    string
	Date      string
	NurseID   int64
	ClientID  int64
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

type assignmentListPage struct {
	Rows  []models.AssignmentDetail `json:"rows"`
	Total int                       `json:"total"`
}

// ListLimits bounds the page size of assignment listings. The effective size
// after clamping is what pagination metadata reports.
type ListLimits struct {
	DefaultPageSize int
	MaxPageSize     int
}

// AssignmentService owns the assignment lifecycle: batch creation, partial
// updates, early end, deletion and the read side with derived statuses.
type AssignmentService struct {
	repo      assignmentRepo
	nurses    nurseReader
	clients   clientReader
	reconcile availabilityReconciler
	shifts    *ShiftValidator
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	limits    ListLimits
	now       func() time.Time
}

// NewAssignmentService creates a service instance.
func NewAssignmentService(
	repo assignmentRepo,
	nurses nurseReader,
	clients clientReader,
	reconcile availabilityReconciler,
	cache *CacheService,
	metrics *MetricsService,
	limits ListLimits,
	validate *validator.Validate,
	logger *zap.Logger,
) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if limits.DefaultPageSize <= 0 {
		limits.DefaultPageSize = 20
	}
	if limits.MaxPageSize <= 0 {
		limits.MaxPageSize = 200
	}
	return &AssignmentService{
		repo:      repo,
		nurses:    nurses,
		clients:   clients,
		reconcile: reconcile,
		shifts:    NewShiftValidator(),
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		limits:    limits,
		now:       time.Now,
	}
}

// CreateBatch validates every proposed shift, verifies the client, warns on
// unknown nurse ids and persists all rows together with the availability
// flag update in one transaction. The first invalid shift rejects the whole
// batch with nothing persisted.
func (s *AssignmentService) CreateBatch(ctx context.Context, req CreateAssignmentsRequest) ([]models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	assignments := make([]models.Assignment, 0, len(req.Shifts))
	for _, shift := range req.Shifts {
		validated, err := s.shifts.Validate(CandidateShift{
			NurseID:        shift.NurseID,
			StartDate:      shift.StartDate,
			EndDate:        shift.EndDate,
			ShiftStartTime: shift.ShiftStartTime,
			ShiftEndTime:   shift.ShiftEndTime,
		})
		if err != nil {
			return nil, err
		}
		assignedType := shift.AssignedType
		if assignedType == "" {
			assignedType = "individual"
		}
		assignments = append(assignments, models.Assignment{
			NurseID:        validated.NurseID,
			ClientID:       req.ClientID,
			StartDate:      validated.StartDate,
			EndDate:        validated.EndDate,
			ShiftStartTime: validated.ShiftStartTime,
			ShiftEndTime:   validated.ShiftEndTime,
			AssignedType:   assignedType,
		})
	}

	exists, err := s.clients.Exists(ctx, req.ClientID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, fmt.Sprintf("Database error: %v", err))
	}
	if !exists {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "Client not found")
	}

	s.warnUnknownNurses(ctx, assignments)

	stored, err := s.repo.CreateBatch(ctx, assignments)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, fmt.Sprintf("Database error: %v", err))
	}

	s.metrics.AddAssignmentsCreated(len(stored))
	s.invalidateCache(ctx)
	return stored, nil
}

// warnUnknownNurses checks the distinct nurse ids best-effort. A nurse id
// the check cannot confirm does not block the write.
func (s *AssignmentService) warnUnknownNurses(ctx context.Context, assignments []models.Assignment) {
	seen := make(map[int64]struct{}, len(assignments))
	ids := make([]int64, 0, len(assignments))
	for _, a := range assignments {
		if _, ok := seen[a.NurseID]; !ok {
			seen[a.NurseID] = struct{}{}
			ids = append(ids, a.NurseID)
		}
	}
	found, err := s.nurses.ExistingIDs(ctx, ids)
	if err != nil {
		s.logger.Warn("nurse existence check failed", zap.Error(err))
		return
	}
	foundSet := make(map[int64]struct{}, len(found))
	for _, id := range found {
		foundSet[id] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := foundSet[id]; !ok {
			s.logger.Warn("assignment references unknown nurse", zap.Int64("nurse_id", id))
		}
	}
}

// Update re-validates only the field pairs being changed, merging provided
// values with the stored ones, and persists a partial update. Availability
// is not reconciled: moving dates does not change whether rows exist.
func (s *AssignmentService) Update(ctx context.Context, id int64, req UpdateAssignmentRequest) error {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "Assignment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, fmt.Sprintf("Database error: %v", err))
	}

	update := models.AssignmentUpdate{
		ShiftStartTime: req.ShiftStartTime,
		ShiftEndTime:   req.ShiftEndTime,
		AssignedType:   req.AssignedType,
	}

	if req.StartDate != nil || req.EndDate != nil {
		start := existing.StartDate.Format("2006-01-02")
		if req.StartDate != nil {
			start = *req.StartDate
		}
		end := existing.EndDate.Format("2006-01-02")
		if req.EndDate != nil {
			end = *req.EndDate
		}
		startDate, endDate, err := s.shifts.ValidateDateRange(start, end)
		if err != nil {
			return err
		}
		if req.StartDate != nil {
			update.StartDate = &startDate
		}
		if req.EndDate != nil {
			update.EndDate = &endDate
		}
	}

	if req.ShiftStartTime != nil || req.ShiftEndTime != nil {
		start := existing.ShiftStartTime
		if req.ShiftStartTime != nil {
			start = *req.ShiftStartTime
		}
		end := existing.ShiftEndTime
		if req.ShiftEndTime != nil {
			end = *req.ShiftEndTime
		}
		if err := s.shifts.ValidateTimeRange(start, end); err != nil {
			return err
		}
	}

	if err := s.repo.Update(ctx, id, update); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "Assignment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, fmt.Sprintf("Database error: %v", err))
	}

	s.invalidateCache(ctx)
	return nil
}

// End terminates the assignment early by forcing the end date to today,
// which flips the derived status to completed on every subsequent read.
// The nurse's availability is rechecked best-effort afterwards.
func (s *AssignmentService) End(ctx context.Context, id int64) error {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "Assignment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, fmt.Sprintf("Database error: %v", err))
	}

	if err := s.repo.End(ctx, id, s.now()); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "Assignment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, fmt.Sprintf("Database error: %v", err))
	}

	if s.reconcile != nil {
		if err := s.reconcile.Reconcile(ctx, existing.NurseID); err != nil {
			s.logger.Warn("availability reconciliation failed after end",
				zap.Int64("assignment_id", id),
				zap.Int64("nurse_id", existing.NurseID),
				zap.Error(err))
		}
	}

	s.metrics.IncAssignmentsEnded()
	s.invalidateCache(ctx)
	return nil
}

// Delete hard-deletes the assignment. The repository couples the delete,
// the remaining-assignment recount and any unassigned flip in one
// transaction, so the recount never sees the deleted row.
func (s *AssignmentService) Delete(ctx context.Context, id int64) error {
	nurseID, remaining, err := s.repo.Delete(ctx, id, s.now())
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "Assignment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, fmt.Sprintf("Database error: %v", err))
	}

	s.logger.Info("assignment deleted",
		zap.Int64("assignment_id", id),
		zap.Int64("nurse_id", nurseID),
		zap.Int("remaining_assignments", remaining))

	s.metrics.IncAssignmentsDeleted()
	s.invalidateCache(ctx)
	return nil
}

// List returns a page of assignments with display names and the lifecycle
// status derived per row at read time.
func (s *AssignmentService) List(ctx context.Context, req ListAssignmentsRequest) ([]models.AssignmentDetail, *models.Pagination, error) {
	filter := models.AssignmentFilter{
		Search:    req.Search,
		NurseID:   req.NurseID,
		ClientID:  req.ClientID,
		Page:      req.Page,
		PageSize:  req.PageSize,
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
	}
	if req.Status != "" {
		status := models.AssignmentStatus(req.Status)
		if !status.Valid() {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "Invalid status filter, expected upcoming, active or completed")
		}
		filter.Status = &status
	}
	if req.Date != "" {
		date, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "Invalid date filter, expected YYYY-MM-DD")
		}
		filter.Date = &date
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = s.limits.DefaultPageSize
	}
	if filter.PageSize > s.limits.MaxPageSize {
		filter.PageSize = s.limits.MaxPageSize
	}

	today := s.now()
	cacheKey := s.listCacheKey(filter, today)
	var page assignmentListPage
	if hit, _ := s.cache.Get(ctx, cacheKey, &page); hit {
		pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: page.Total}
		return page.Rows, pagination, nil
	}

	rows, total, err := s.repo.List(ctx, filter, today)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, fmt.Sprintf("Database error: %v", err))
	}
	for i := range rows {
		rows[i].Status = models.DeriveStatus(rows[i].StartDate, rows[i].EndDate, today)
	}

	_ = s.cache.Set(ctx, cacheKey, assignmentListPage{Rows: rows, Total: total}, 0)

	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return rows, pagination, nil
}

// Get returns one assignment with its derived status.
func (s *AssignmentService) Get(ctx context.Context, id int64) (*models.AssignmentDetail, error) {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status, fmt.Sprintf("Database error: %v", err))
	}
	row.Status = models.DeriveStatus(row.StartDate, row.EndDate, s.now())
	return row, nil
}

func (s *AssignmentService) listCacheKey(filter models.AssignmentFilter, today time.Time) string {
	status := ""
	if filter.Status != nil {
		status = string(*filter.Status)
	}
	date := ""
	if filter.Date != nil {
		date = filter.Date.Format("2006-01-02")
	}
	return fmt.Sprintf("assignments:list:%s:%s:%s:%d:%d:%d:%d:%s:%s:%s",
		status, filter.Search, date, filter.NurseID, filter.ClientID,
		filter.Page, filter.PageSize, filter.SortBy, filter.SortOrder,
		today.Format("2006-01-02"))
}

func (s *AssignmentService) invalidateCache(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, "assignments:*"); err != nil {
		s.logger.Warn("assignment cache invalidation failed", zap.Error(err))
	}
}
