package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/carewell-health/carewell-ops-api/internal/middleware"
	"github.com/carewell-health/carewell-ops-api/internal/models"
	"github.com/carewell-health/carewell-ops-api/internal/service"
	"github.com/carewell-health/carewell-ops-api/pkg/config"
	"github.com/carewell-health/carewell-ops-api/pkg/logger"
	corsmiddleware "github.com/carewell-health/carewell-ops-api/pkg/middleware/cors"
	reqidmiddleware "github.com/carewell-health/carewell-ops-api/pkg/middleware/requestid"
)

// RouterDeps bundles everything the HTTP layer needs.
type RouterDeps struct {
	Config      *config.Config
	Logger      *zap.Logger
	DB          *sqlx.DB
	Tokens      *service.TokenService
	Metrics     *service.MetricsService
	Assignments *AssignmentHandler
	Attendance  *AttendanceHandler
}

// NewRouter builds the gin engine with middleware and all routes mounted.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.Logger))
	r.Use(corsmiddleware.New(deps.Config.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.Metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := deps.DB.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	api := r.Group(deps.Config.APIPrefix)
	api.Use(middleware.JWT(deps.Tokens))

	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleCoordinator)

	assignments := api.Group("/assignments")
	{
		assignments.GET("", deps.Assignments.List)
		assignments.GET("/:id", deps.Assignments.Get)
		assignments.POST("", staff, deps.Assignments.Create)
		assignments.PATCH("/:id", staff, deps.Assignments.Update)
		assignments.POST("/:id/end", staff, deps.Assignments.End)
		assignments.DELETE("/:id", staff, deps.Assignments.Delete)
	}

	attendance := api.Group("/attendance")
	{
		attendance.GET("/daily", deps.Attendance.Daily)
		attendance.GET("/daily/export.pdf", staff, deps.Attendance.ExportDailyPDF)
		attendance.PUT("/punches", staff, deps.Attendance.RecordPunch)
	}

	return r
}
