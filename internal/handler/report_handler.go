package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/student-insight-api/internal/models"
	"github.com/noah-isme/student-insight-api/internal/service"
	"github.com/noah-isme/student-insight-api/pkg/response"
)

type reportService interface {
	Summary(ctx context.Context, student *models.StudentClaims, format string) (*service.Report, error)
}

// ReportHandler exposes the summary export.
type ReportHandler struct {
	reports reportService
}

// NewReportHandler constructs handler.
func NewReportHandler(reports reportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Summary godoc
// @Summary Download the student's KPI summary
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /reports/summary [get]
func (h *ReportHandler) Summary(c *gin.Context) {
	student, ok := studentFromContext(c)
	if !ok {
		return
	}
	report, err := h.reports.Summary(c.Request.Context(), student, c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, report.Filename, report.ContentType, report.Payload)
}
