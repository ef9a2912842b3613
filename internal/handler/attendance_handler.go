package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/carewell-health/carewell-ops-api/internal/service"
	appErrors "github.com/carewell-health/carewell-ops-api/pkg/errors"
	"github.com/carewell-health/carewell-ops-api/pkg/export"
	"github.com/carewell-health/carewell-ops-api/pkg/response"
)

// AttendanceHandler wires attendance reconciliation to HTTP routes.
type AttendanceHandler struct {
	attendance *service.AttendanceService
	pdf        *export.PDFExporter
}

// NewAttendanceHandler constructs a new AttendanceHandler.
func NewAttendanceHandler(attendance *service.AttendanceService, pdf *export.PDFExporter) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance, pdf: pdf}
}

// Daily godoc
// @Summary Reconciled attendance records for a day
// @Tags Attendance
// @Produce json
// @Param date query string true "Day to reconcile (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /attendance/daily [get]
func (h *AttendanceHandler) Daily(c *gin.Context) {
	date, err := h.parseDate(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	records, err := h.attendance.ReconcileDaily(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// RecordPunch godoc
// @Summary Record or replace a punch for a shift day
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body service.RecordPunchRequest true "Punch payload"
// @Success 200 {object} response.Envelope
// @Router /attendance/punches [put]
func (h *AttendanceHandler) RecordPunch(c *gin.Context) {
	var req service.RecordPunchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid punch payload"))
		return
	}
	stored, err := h.attendance.RecordPunch(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stored, nil)
}

// ExportDailyPDF godoc
// @Summary Attendance sheet PDF for a day
// @Tags Attendance
// @Produce application/pdf
// @Param date query string true "Day to export (YYYY-MM-DD)"
// @Success 200 {file} binary
// @Router /attendance/daily/export.pdf [get]
func (h *AttendanceHandler) ExportDailyPDF(c *gin.Context) {
	date, err := h.parseDate(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	records, err := h.attendance.ReconcileDaily(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}

	headers := []string{"Nurse", "Client", "Shift", "Check In", "Check Out", "Status", "Hours", "Location"}
	rows := make([]map[string]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, map[string]string{
			"Nurse":     rec.NurseName,
			"Client":    rec.ClientName,
			"Shift":     fmt.Sprintf("%s - %s", rec.ShiftStart, rec.ShiftEnd),
			"Check In":  rec.CheckIn,
			"Check Out": rec.CheckOut,
			"Status":    string(rec.Status),
			"Hours":     rec.HoursWorked,
			"Location":  rec.Location,
		})
	}

	payload, err := h.pdf.Render(export.Dataset{Headers: headers, Rows: rows},
		fmt.Sprintf("Attendance %s", date.Format("2006-01-02")))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render attendance sheet"))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="attendance-%s.pdf"`, date.Format("2006-01-02")))
	c.Data(http.StatusOK, "application/pdf", payload)
}

func (h *AttendanceHandler) parseDate(c *gin.Context) (time.Time, error) {
	raw := c.Query("date")
	if raw == "" {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "date query parameter is required")
	}
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "Invalid date, expected YYYY-MM-DD")
	}
	return date, nil
}
