package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/fishfarm/internal/domain/models"
)

const (
	dateLayout          = "2006-01-02"
	defaultReportWindow = 30 * 24 * time.Hour
	maxSnapshotLimit    = 100
)

// ReportService is the reporting surface exposed over HTTP.
type ReportService interface {
	GeneratePondReport(ctx context.Context, pondID int, start, end time.Time) (*models.PondReport, string, error)
	ListPondReports(ctx context.Context, pondID int, limit int) ([]models.PondReport, error)
}

// ReportsHandler serves pond FCR reports.
type ReportsHandler struct {
	svc    ReportService
	now    func() time.Time
	logger *zap.Logger
}

// NewReportsHandler constructs the report handler.
func NewReportsHandler(svc ReportService, logger *zap.Logger) *ReportsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportsHandler{svc: svc, now: time.Now, logger: logger}
}

type pondReportResponse struct {
	Report *models.PondReport `json:"report"`
	Text   string             `json:"text"`
}

// PondReport aggregates a pond over ?start=&end= (YYYY-MM-DD). The window
// defaults to the 30 days ending today.
func (h *ReportsHandler) PondReport(c *gin.Context) {
	pondID, err := strconv.Atoi(c.Param("id"))
	if err != nil || pondID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pond id"})
		return
	}

	end := h.now().UTC()
	if raw := c.Query("end"); raw != "" {
		if end, err = time.Parse(dateLayout, raw); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "end must be a date in YYYY-MM-DD format"})
			return
		}
	}
	start := end.Add(-defaultReportWindow)
	if raw := c.Query("start"); raw != "" {
		if start, err = time.Parse(dateLayout, raw); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "start must be a date in YYYY-MM-DD format"})
			return
		}
	}
	if start.After(end) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start must not be after end"})
		return
	}

	report, text, err := h.svc.GeneratePondReport(c.Request.Context(), pondID, start, end)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, pondReportResponse{Report: report, Text: text})
}

// ListSnapshots returns stored reports for a pond, newest first.
func (h *ReportsHandler) ListSnapshots(c *gin.Context) {
	pondID, err := strconv.Atoi(c.Param("id"))
	if err != nil || pondID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pond id"})
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 || limit > maxSnapshotLimit {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 0 and 100"})
			return
		}
	}

	reports, err := h.svc.ListPondReports(c.Request.Context(), pondID, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if reports == nil {
		reports = []models.PondReport{}
	}
	c.JSON(http.StatusOK, reports)
}
