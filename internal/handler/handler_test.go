package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/student-insight-api/internal/dto"
	"github.com/noah-isme/student-insight-api/internal/middleware"
	"github.com/noah-isme/student-insight-api/internal/models"
	"github.com/noah-isme/student-insight-api/internal/service"
	appErrors "github.com/noah-isme/student-insight-api/pkg/errors"
	"github.com/noah-isme/student-insight-api/pkg/genai"
)

type responseEnvelope struct {
	Data  map[string]interface{} `json:"data"`
	Error *appErrors.Error       `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func newTestContext(method, target string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(method, target, bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.ContextStudentKey, &models.StudentClaims{StudentKey: 4561, Name: "4561", ID: "101"})
	return c, rec
}

func newAnonymousContext(method, target string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(method, target, bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return c, rec
}

type fakeInsights struct {
	hit       bool
	err       error
	lastQuiz  dto.QuizQuery
	lastVideo dto.VideoQuery
	lastMath  dto.MathQuery
}

func (f *fakeInsights) Practice(_ context.Context, s *models.StudentClaims) (*dto.PracticeDashboardResponse, bool, error) {
	return &dto.PracticeDashboardResponse{StudentKey: s.StudentKey}, f.hit, f.err
}

func (f *fakeInsights) Quiz(_ context.Context, s *models.StudentClaims, q dto.QuizQuery) (*dto.QuizDashboardResponse, bool, error) {
	f.lastQuiz = q
	return &dto.QuizDashboardResponse{StudentKey: s.StudentKey}, f.hit, f.err
}

func (f *fakeInsights) Video(_ context.Context, s *models.StudentClaims, q dto.VideoQuery) (*dto.VideoDashboardResponse, bool, error) {
	f.lastVideo = q
	if f.err != nil {
		return nil, false, f.err
	}
	return &dto.VideoDashboardResponse{StudentKey: s.StudentKey}, f.hit, nil
}

func (f *fakeInsights) Math(_ context.Context, s *models.StudentClaims, q dto.MathQuery) (*dto.MathDashboardResponse, bool, error) {
	f.lastMath = q
	return &dto.MathDashboardResponse{StudentKey: s.StudentKey}, f.hit, f.err
}

func (f *fakeInsights) Overview(_ context.Context, s *models.StudentClaims) (*dto.OverviewResponse, bool, error) {
	return &dto.OverviewResponse{StudentKey: s.StudentKey}, f.hit, f.err
}

func TestAnalyticsHandlerRequiresStudent(t *testing.T) {
	handler := NewAnalyticsHandler(&fakeInsights{})
	c, rec := newAnonymousContext(http.MethodGet, "/practice", nil)

	handler.Practice(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAnalyticsHandlerPracticeMeta(t *testing.T) {
	handler := NewAnalyticsHandler(&fakeInsights{hit: true})
	c, rec := newTestContext(http.MethodGet, "/practice", nil)

	handler.Practice(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, true, envelope.Meta["cache_hit"])
	assert.Contains(t, envelope.Meta, "processing_time_ms")
	assert.Equal(t, float64(4561), envelope.Data["studentKey"])
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestAnalyticsHandlerQuizQuery(t *testing.T) {
	insights := &fakeInsights{}
	handler := NewAnalyticsHandler(insights)

	c, rec := newTestContext(http.MethodGet, "/quiz?mission=M2&page=3", nil)
	handler.Quiz(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, dto.QuizQuery{MissionID: "M2", Page: 3}, insights.lastQuiz)

	c, rec = newTestContext(http.MethodGet, "/quiz?page=zero", nil)
	handler.Quiz(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyticsHandlerPassesFilters(t *testing.T) {
	insights := &fakeInsights{}
	handler := NewAnalyticsHandler(insights)

	c, _ := newTestContext(http.MethodGet, "/video?from=2024-03-01&to=2024-03-31", nil)
	handler.Video(c)
	assert.Equal(t, dto.VideoQuery{From: "2024-03-01", To: "2024-03-31"}, insights.lastVideo)

	c, _ = newTestContext(http.MethodGet, "/math?unit=%E5%88%86%E6%95%B8&from=2024-03-02", nil)
	handler.Math(c)
	assert.Equal(t, dto.MathQuery{From: "2024-03-02", Unit: "分數"}, insights.lastMath)
}

func TestAnalyticsHandlerMapsServiceErrors(t *testing.T) {
	handler := NewAnalyticsHandler(&fakeInsights{err: appErrors.Clone(appErrors.ErrValidation, "from must not be after to")})
	c, rec := newTestContext(http.MethodGet, "/video?from=2024-03-05&to=2024-03-01", nil)

	handler.Video(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	envelope := decodeEnvelope(t, rec)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "VALIDATION_ERROR", envelope.Error.Code)
}

type fakeIdentity struct {
	loginErr error
	lastReq  models.LoginRequest
}

func (f *fakeIdentity) Login(_ context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	f.lastReq = req
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &models.LoginResponse{AccessToken: "token", ExpiresIn: 60, Student: models.StudentIdentity{Name: req.Name}}, nil
}

func (f *fakeIdentity) Profile(_ context.Context, claims *models.StudentClaims) (*models.StudentIdentity, error) {
	return &models.StudentIdentity{Name: claims.Name, StudentKey: claims.StudentKey}, nil
}

func TestAuthHandlerLogin(t *testing.T) {
	identity := &fakeIdentity{}
	handler := NewAuthHandler(identity)

	c, rec := newAnonymousContext(http.MethodPost, "/auth/login", []byte(`{"name":"4561","id":"101"}`))
	handler.Login(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "token", decodeEnvelope(t, rec).Data["access_token"])

	c, rec = newAnonymousContext(http.MethodPost, "/auth/login", []byte(`{"name":`))
	handler.Login(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	identity.loginErr = appErrors.ErrStudentNotFound
	c, rec = newAnonymousContext(http.MethodPost, "/auth/login", []byte(`{"name":"x","id":"y"}`))
	handler.Login(c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "STUDENT_NOT_FOUND", decodeEnvelope(t, rec).Error.Code)
}

func TestAuthHandlerMe(t *testing.T) {
	handler := NewAuthHandler(&fakeIdentity{})
	c, rec := newTestContext(http.MethodGet, "/students/me", nil)

	handler.Me(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(4561), decodeEnvelope(t, rec).Data["student_key"])
}

type fakeAnalysis struct {
	reply     string
	err       error
	lastChart string
	lastReq   dto.AnalysisRequest
	proxied   dto.ProxyRequest
}

func (f *fakeAnalysis) Explain(_ context.Context, _ *models.StudentClaims, chart string, req dto.AnalysisRequest) (*dto.AnalysisResponse, error) {
	f.lastChart, f.lastReq = chart, req
	if f.err != nil {
		return nil, f.err
	}
	return &dto.AnalysisResponse{RequestID: "req-1", Chart: chart, Reply: f.reply}, nil
}

func (f *fakeAnalysis) Proxy(_ context.Context, req dto.ProxyRequest) (string, error) {
	f.proxied = req
	return f.reply, f.err
}

func TestAnalysisHandlerExplain(t *testing.T) {
	analysis := &fakeAnalysis{reply: "- 多練習"}
	handler := NewAnalysisHandler(analysis, nil)

	c, rec := newTestContext(http.MethodPost, "/analysis/quiz", nil)
	c.Params = gin.Params{{Key: "chart", Value: "quiz"}}
	handler.Explain(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "quiz", analysis.lastChart)
	assert.Equal(t, "- 多練習", decodeEnvelope(t, rec).Data["reply"])

	c, _ = newTestContext(http.MethodPost, "/analysis/math", []byte(`{"question":"為什麼？"}`))
	c.Params = gin.Params{{Key: "chart", Value: "math"}}
	handler.Explain(c)
	assert.Equal(t, "為什麼？", analysis.lastReq.Question)

	analysis.err = appErrors.ErrAnalysisBusy
	c, rec = newTestContext(http.MethodPost, "/analysis/math", nil)
	c.Params = gin.Params{{Key: "chart", Value: "math"}}
	handler.Explain(c)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func decodeProxy(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestGeminiProxyContract(t *testing.T) {
	analysis := &fakeAnalysis{reply: "你好"}
	handler := NewAnalysisHandler(analysis, nil)

	c, rec := newAnonymousContext(http.MethodGet, "/api/gemini", nil)
	handler.Gemini(c)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "Method Not Allowed", decodeProxy(t, rec)["error"])

	c, rec = newAnonymousContext(http.MethodPost, "/api/gemini", []byte(`{"messages":[]}`))
	handler.Gemini(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "缺少 messages 參數", decodeProxy(t, rec)["error"])

	c, rec = newAnonymousContext(http.MethodPost, "/api/gemini", []byte(`{"messages":[{"role":"user","content":"hi"}]}`))
	handler.Gemini(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]string{"reply": "你好"}, decodeProxy(t, rec))
	require.Len(t, analysis.proxied.Messages, 1)
	assert.Equal(t, "hi", analysis.proxied.Messages[0].Content)
}

func TestGeminiProxyFailures(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		body   map[string]string
	}{
		{
			name:   "non json upstream",
			err:    &genai.UpstreamError{Status: http.StatusBadGateway, Detail: "<html>", NotJSON: true},
			status: http.StatusBadGateway,
			body:   map[string]string{"error": "Gemini 回傳非 JSON", "detail": "<html>"},
		},
		{
			name:   "upstream rejection",
			err:    &genai.UpstreamError{Status: http.StatusTooManyRequests, Detail: "quota exceeded"},
			status: http.StatusTooManyRequests,
			body:   map[string]string{"error": "Gemini API 錯誤", "detail": "quota exceeded"},
		},
		{
			name:   "disabled",
			err:    appErrors.ErrAnalysisUnavailable,
			status: http.StatusServiceUnavailable,
			body:   map[string]string{"error": "analysis is not configured"},
		},
		{
			name:   "transport",
			err:    errors.New("dial tcp: refused"),
			status: http.StatusInternalServerError,
			body:   map[string]string{"error": "dial tcp: refused"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewAnalysisHandler(&fakeAnalysis{err: tc.err}, nil)
			c, rec := newAnonymousContext(http.MethodPost, "/api/gemini", []byte(`{"messages":[{"role":"user","content":"hi"}]}`))
			handler.Gemini(c)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.body, decodeProxy(t, rec))
		})
	}
}

// clientAnalysis forwards proxy calls to a real genai client.
type clientAnalysis struct {
	client *genai.Client
}

func (a clientAnalysis) Explain(context.Context, *models.StudentClaims, string, dto.AnalysisRequest) (*dto.AnalysisResponse, error) {
	return nil, errors.New("not used")
}

func (a clientAnalysis) Proxy(ctx context.Context, req dto.ProxyRequest) (string, error) {
	return a.client.Generate(ctx, req.Messages)
}

func TestGeminiProxyUnreachableUpstreamHidesKey(t *testing.T) {
	const apiKey = "SECRET-KEY-123"
	upstream := httptest.NewServer(http.NotFoundHandler())
	endpoint := upstream.URL
	upstream.Close()

	core, logs := observer.New(zapcore.DebugLevel)
	client := genai.New(genai.Config{APIKey: apiKey, Endpoint: endpoint + "/v1beta/models"}, nil)
	handler := NewAnalysisHandler(clientAnalysis{client: client}, zap.New(core))

	c, rec := newAnonymousContext(http.MethodPost, "/api/gemini", []byte(`{"messages":[{"role":"user","content":"hi"}]}`))
	handler.Gemini(c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeProxy(t, rec)
	assert.True(t, strings.HasPrefix(body["error"], "gemini request failed: "), body["error"])
	assert.NotContains(t, rec.Body.String(), apiKey)
	assert.NotContains(t, rec.Body.String(), "generateContent")

	entries := logs.FilterMessage("gemini proxy failed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, int64(http.StatusInternalServerError), fields["status"])
	logged, _ := fields["error"].(string)
	assert.NotEmpty(t, logged)
	assert.NotContains(t, logged, apiKey)
}

type fakeReports struct {
	err        error
	lastFormat string
}

func (f *fakeReports) Summary(_ context.Context, _ *models.StudentClaims, format string) (*service.Report, error) {
	f.lastFormat = format
	if f.err != nil {
		return nil, f.err
	}
	return &service.Report{Filename: "summary_4561_20240307.csv", ContentType: "text/csv; charset=utf-8", Payload: []byte("section,metric,value\n")}, nil
}

func TestReportHandlerSummary(t *testing.T) {
	reports := &fakeReports{}
	handler := NewReportHandler(reports)

	c, rec := newTestContext(http.MethodGet, "/reports/summary", nil)
	handler.Summary(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "csv", reports.lastFormat)
	assert.Equal(t, `attachment; filename="summary_4561_20240307.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "section,metric,value\n", rec.Body.String())

	reports.err = appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	c, rec = newTestContext(http.MethodGet, "/reports/summary?format=xlsx", nil)
	handler.Summary(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "xlsx", reports.lastFormat)
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func TestMetricsHandlerReadiness(t *testing.T) {
	c, rec := newAnonymousContext(http.MethodGet, "/ready", nil)
	NewMetricsHandler(nil, nil).Ready(c)
	assert.Equal(t, http.StatusOK, rec.Code)

	c, rec = newAnonymousContext(http.MethodGet, "/ready", nil)
	NewMetricsHandler(nil, fakePinger{err: errors.New("connection refused")}).Ready(c)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsHandlerSystemSnapshot(t *testing.T) {
	metrics := service.NewMetricsService()
	metrics.ObserveAnalysis(service.ChartQuiz, service.AnalysisOutcomeSuccess)
	c, rec := newAnonymousContext(http.MethodGet, "/system/metrics", nil)

	NewMetricsHandler(metrics, nil).System(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decodeEnvelope(t, rec).Data["analysis_requests"])
}
