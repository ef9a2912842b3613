package main

import (
	"fmt"
	"log"

	"github.com/go-playground/validator/v10"

	"github.com/carewell-health/carewell-ops-api/internal/handler"
	"github.com/carewell-health/carewell-ops-api/internal/repository"
	"github.com/carewell-health/carewell-ops-api/internal/service"
	"github.com/carewell-health/carewell-ops-api/pkg/cache"
	"github.com/carewell-health/carewell-ops-api/pkg/config"
	"github.com/carewell-health/carewell-ops-api/pkg/database"
	"github.com/carewell-health/carewell-ops-api/pkg/export"
	"github.com/carewell-health/carewell-ops-api/pkg/logger"
)

// @title CareWell Ops API
// @version 1.0.0
// @description Assignment lifecycle and attendance reconciliation service
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Assignments.CacheTTL, logr, redisClient != nil)

	assignmentRepo := repository.NewAssignmentRepository(db)
	nurseRepo := repository.NewNurseRepository(db)
	clientRepo := repository.NewClientRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)

	availabilitySvc := service.NewAvailabilityService(assignmentRepo, nurseRepo, logr)
	assignmentSvc := service.NewAssignmentService(
		assignmentRepo, nurseRepo, clientRepo, availabilitySvc,
		cacheSvc, metrics,
		service.ListLimits{
			DefaultPageSize: cfg.Assignments.DefaultPageSize,
			MaxPageSize:     cfg.Assignments.MaxPageSize,
		},
		validate, logr,
	)
	attendanceSvc := service.NewAttendanceService(
		attendanceRepo, assignmentRepo, cfg.Attendance.LateGraceMinutes,
		metrics, validate, logr,
	)
	tokenSvc := service.NewTokenService(cfg.JWT.Secret)

	r := handler.NewRouter(handler.RouterDeps{
		Config:      cfg,
		Logger:      logr,
		DB:          db,
		Tokens:      tokenSvc,
		Metrics:     metrics,
		Assignments: handler.NewAssignmentHandler(assignmentSvc),
		Attendance:  handler.NewAttendanceHandler(attendanceSvc, export.NewPDFExporter()),
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
