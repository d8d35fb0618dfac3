package handler

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/student-insight-api/internal/dto"
	"github.com/noah-isme/student-insight-api/internal/models"
	appErrors "github.com/noah-isme/student-insight-api/pkg/errors"
	"github.com/noah-isme/student-insight-api/pkg/response"
)

type insightService interface {
	Practice(ctx context.Context, student *models.StudentClaims) (*dto.PracticeDashboardResponse, bool, error)
	Quiz(ctx context.Context, student *models.StudentClaims, query dto.QuizQuery) (*dto.QuizDashboardResponse, bool, error)
	Video(ctx context.Context, student *models.StudentClaims, query dto.VideoQuery) (*dto.VideoDashboardResponse, bool, error)
	Math(ctx context.Context, student *models.StudentClaims, query dto.MathQuery) (*dto.MathDashboardResponse, bool, error)
	Overview(ctx context.Context, student *models.StudentClaims) (*dto.OverviewResponse, bool, error)
}

// AnalyticsHandler exposes the per-student dashboards.
type AnalyticsHandler struct {
	insights insightService
}

// NewAnalyticsHandler constructs the analytics handler.
func NewAnalyticsHandler(insights insightService) *AnalyticsHandler {
	return &AnalyticsHandler{insights: insights}
}

// Practice godoc
// @Summary Practice dashboard
// @Tags Dashboards
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /practice [get]
func (h *AnalyticsHandler) Practice(c *gin.Context) {
	student, ok := studentFromContext(c)
	if !ok {
		return
	}
	start := time.Now()
	resp, cacheHit, err := h.insights.Practice(c.Request.Context(), student)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondTimed(c, start, resp, cacheHit)
}

// Quiz godoc
// @Summary Quiz dashboard
// @Tags Dashboards
// @Produce json
// @Security BearerAuth
// @Param mission query string false "Mission id, defaults to the first mission"
// @Param page query int false "Mission detail page"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /quiz [get]
func (h *AnalyticsHandler) Quiz(c *gin.Context) {
	student, ok := studentFromContext(c)
	if !ok {
		return
	}
	query := dto.QuizQuery{MissionID: c.Query("mission"), Page: 1}
	if raw := strings.TrimSpace(c.Query("page")); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "page must be a positive integer"))
			return
		}
		query.Page = page
	}
	start := time.Now()
	resp, cacheHit, err := h.insights.Quiz(c.Request.Context(), student, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondTimed(c, start, resp, cacheHit)
}

// Video godoc
// @Summary Video dashboard
// @Tags Dashboards
// @Produce json
// @Security BearerAuth
// @Param from query string false "First day (YYYY-MM-DD)"
// @Param to query string false "Last day (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /video [get]
func (h *AnalyticsHandler) Video(c *gin.Context) {
	student, ok := studentFromContext(c)
	if !ok {
		return
	}
	start := time.Now()
	resp, cacheHit, err := h.insights.Video(c.Request.Context(), student, dto.VideoQuery{From: c.Query("from"), To: c.Query("to")})
	if err != nil {
		response.Error(c, err)
		return
	}
	respondTimed(c, start, resp, cacheHit)
}

// Math godoc
// @Summary Math drill dashboard
// @Tags Dashboards
// @Produce json
// @Security BearerAuth
// @Param from query string false "First day (YYYY-MM-DD)"
// @Param to query string false "Last day (YYYY-MM-DD)"
// @Param unit query string false "Unit keyword"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /math [get]
func (h *AnalyticsHandler) Math(c *gin.Context) {
	student, ok := studentFromContext(c)
	if !ok {
		return
	}
	query := dto.MathQuery{From: c.Query("from"), To: c.Query("to"), Unit: c.Query("unit")}
	start := time.Now()
	resp, cacheHit, err := h.insights.Math(c.Request.Context(), student, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondTimed(c, start, resp, cacheHit)
}

// Overview godoc
// @Summary Learning atmosphere compared with the class
// @Tags Dashboards
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /overview [get]
func (h *AnalyticsHandler) Overview(c *gin.Context) {
	student, ok := studentFromContext(c)
	if !ok {
		return
	}
	start := time.Now()
	resp, cacheHit, err := h.insights.Overview(c.Request.Context(), student)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondTimed(c, start, resp, cacheHit)
}
