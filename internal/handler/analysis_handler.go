package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/student-insight-api/internal/dto"
	"github.com/noah-isme/student-insight-api/internal/models"
	appErrors "github.com/noah-isme/student-insight-api/pkg/errors"
	"github.com/noah-isme/student-insight-api/pkg/genai"
	"github.com/noah-isme/student-insight-api/pkg/response"
)

// Raw proxy error strings.
const (
	proxyMethodNotAllowed = "Method Not Allowed"
	proxyMissingMessages  = "缺少 messages 參數"
	proxyNotJSON          = "Gemini 回傳非 JSON"
	proxyUpstreamFailed   = "Gemini API 錯誤"
	proxyTimeout          = "Gemini 回應逾時"
)

type analysisService interface {
	Explain(ctx context.Context, student *models.StudentClaims, chart string, req dto.AnalysisRequest) (*dto.AnalysisResponse, error)
	Proxy(ctx context.Context, req dto.ProxyRequest) (string, error)
}

// AnalysisHandler exposes chart explanations and the raw generative proxy.
type AnalysisHandler struct {
	analysis analysisService
	logger   *zap.Logger
}

// NewAnalysisHandler constructs the analysis handler.
func NewAnalysisHandler(analysis analysisService, logger *zap.Logger) *AnalysisHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalysisHandler{analysis: analysis, logger: logger}
}

// Explain godoc
// @Summary Explain a dashboard chart
// @Tags Analysis
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param chart path string true "radar, activity, practice, quiz, video or math"
// @Param payload body dto.AnalysisRequest false "Optional question"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /analysis/{chart} [post]
func (h *AnalysisHandler) Explain(c *gin.Context) {
	student, ok := studentFromContext(c)
	if !ok {
		return
	}
	var req dto.AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid analysis payload"))
		return
	}
	start := time.Now()
	resp, err := h.analysis.Explain(c.Request.Context(), student, c.Param("chart"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondTimed(c, start, resp, false)
}

// Gemini godoc
// @Summary Raw generative-text proxy
// @Description Forwards a chat transcript and answers {reply} or {error, detail}
// @Tags Analysis
// @Accept json
// @Produce json
// @Param payload body dto.ProxyRequest true "Chat transcript"
// @Success 200 {object} dto.ProxyReply
// @Failure 400 {object} dto.ProxyError
// @Failure 405 {object} dto.ProxyError
// @Failure 502 {object} dto.ProxyError
// @Router /api/gemini [post]
func (h *AnalysisHandler) Gemini(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		c.Header("Allow", http.MethodPost)
		c.JSON(http.StatusMethodNotAllowed, dto.ProxyError{Error: proxyMethodNotAllowed})
		return
	}
	var req dto.ProxyRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Messages) == 0 {
		c.JSON(http.StatusBadRequest, dto.ProxyError{Error: proxyMissingMessages})
		return
	}

	reply, err := h.analysis.Proxy(c.Request.Context(), req)
	if err != nil {
		status, body := proxyFailure(err)
		h.logger.Error("gemini proxy failed", zap.Int("status", status), zap.Error(err))
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusOK, dto.ProxyReply{Reply: reply})
}

func proxyFailure(err error) (int, dto.ProxyError) {
	var upstream *genai.UpstreamError
	if errors.As(err, &upstream) {
		if upstream.NotJSON {
			return upstream.Status, dto.ProxyError{Error: proxyNotJSON, Detail: upstream.Detail}
		}
		return upstream.Status, dto.ProxyError{Error: proxyUpstreamFailed, Detail: upstream.Detail}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout, dto.ProxyError{Error: proxyTimeout}
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		body := dto.ProxyError{Error: appErr.Message}
		if appErr.Err != nil {
			body.Detail = appErr.Err.Error()
		}
		return appErr.Status, body
	}
	return http.StatusInternalServerError, dto.ProxyError{Error: err.Error()}
}
