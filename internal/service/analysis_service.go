package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/student-insight-api/internal/analytics"
	"github.com/noah-isme/student-insight-api/internal/dto"
	"github.com/noah-isme/student-insight-api/internal/models"
	appErrors "github.com/noah-isme/student-insight-api/pkg/errors"
	"github.com/noah-isme/student-insight-api/pkg/genai"
)

// Charts that can be explained.
const (
	ChartRadar    = "radar"
	ChartActivity = "activity"
	ChartPractice = "practice"
	ChartQuiz     = "quiz"
	ChartVideo    = "video"
	ChartMath     = "math"
)

const (
	analysisSystemPrompt = "你是一個學習助理，請根據圖表數據給出簡潔的建議，以 Markdown 條列式輸出。"
	analysisSections     = "請提供「數據解析、學習提醒、行動建議」三段式建議。"
)

type chartSource interface {
	Practice(ctx context.Context, student *models.StudentClaims) (*dto.PracticeDashboardResponse, bool, error)
	Quiz(ctx context.Context, student *models.StudentClaims, query dto.QuizQuery) (*dto.QuizDashboardResponse, bool, error)
	Video(ctx context.Context, student *models.StudentClaims, query dto.VideoQuery) (*dto.VideoDashboardResponse, bool, error)
	Math(ctx context.Context, student *models.StudentClaims, query dto.MathQuery) (*dto.MathDashboardResponse, bool, error)
	Overview(ctx context.Context, student *models.StudentClaims) (*dto.OverviewResponse, bool, error)
}

type textGenerator interface {
	Configured() bool
	Generate(ctx context.Context, messages []genai.Message) (string, error)
}

// AnalysisServiceConfig tunes the upstream calls.
type AnalysisServiceConfig struct {
	Enabled bool
	Timeout time.Duration
}

// AnalysisService turns dashboard aggregates into prompts for the
// generative-text upstream. Calls are never retried, and each student has at
// most one outstanding request per chart.
type AnalysisService struct {
	charts    chartSource
	generator textGenerator
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       AnalysisServiceConfig

	mu      sync.Mutex
	pending map[string]struct{}
}

// NewAnalysisService constructs an AnalysisService.
func NewAnalysisService(charts chartSource, generator textGenerator, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg AnalysisServiceConfig) *AnalysisService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	return &AnalysisService{
		charts:    charts,
		generator: generator,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		pending:   make(map[string]struct{}),
	}
}

// Charts lists the chart names accepted by Explain.
func Charts() []string {
	return []string{ChartRadar, ChartActivity, ChartPractice, ChartQuiz, ChartVideo, ChartMath}
}

// Explain builds the prompt for one chart of the student and returns the
// generated reply.
func (s *AnalysisService) Explain(ctx context.Context, student *models.StudentClaims, chart string, req dto.AnalysisRequest) (*dto.AnalysisResponse, error) {
	if err := requireStudent(student); err != nil {
		return nil, err
	}
	chart = strings.ToLower(strings.TrimSpace(chart))
	if !knownChart(chart) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "unknown chart "+chart)
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid analysis payload")
	}
	if err := s.available(); err != nil {
		s.metrics.ObserveAnalysis(chart, AnalysisOutcomeDisabled)
		return nil, err
	}

	gate := strconv.FormatInt(student.StudentKey, 10) + ":" + chart
	if !s.acquire(gate) {
		s.metrics.ObserveAnalysis(chart, AnalysisOutcomeBusy)
		return nil, appErrors.ErrAnalysisBusy
	}
	defer s.release(gate)

	prompt, err := s.prompt(ctx, student, chart)
	if err != nil {
		return nil, err
	}
	if q := strings.TrimSpace(req.Question); q != "" {
		prompt += "\n學生的問題：" + q
	}

	requestID := uuid.NewString()
	reply, err := s.generate(ctx, []genai.Message{
		{Role: genai.RoleSystem, Content: analysisSystemPrompt},
		{Role: genai.RoleUser, Content: prompt},
	})
	if err != nil {
		s.metrics.ObserveAnalysis(chart, AnalysisOutcomeFailed)
		s.logger.Error("chart analysis failed",
			zap.String("request_id", requestID),
			zap.String("chart", chart),
			zap.Int64("student_key", student.StudentKey),
			zap.Error(err),
		)
		return nil, classifyUpstream(err)
	}
	s.metrics.ObserveAnalysis(chart, AnalysisOutcomeSuccess)
	return &dto.AnalysisResponse{RequestID: requestID, Chart: chart, Reply: reply}, nil
}

// Proxy forwards a raw chat transcript. Upstream failures are returned
// unclassified so the caller can echo the upstream status.
func (s *AnalysisService) Proxy(ctx context.Context, req dto.ProxyRequest) (string, error) {
	if err := s.validator.Struct(req); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid messages")
	}
	if err := s.available(); err != nil {
		return "", err
	}
	return s.generate(ctx, req.Messages)
}

func (s *AnalysisService) available() error {
	if !s.cfg.Enabled {
		return appErrors.ErrFeatureDisabled
	}
	if s.generator == nil || !s.generator.Configured() {
		return appErrors.ErrAnalysisUnavailable
	}
	return nil
}

func (s *AnalysisService) generate(ctx context.Context, messages []genai.Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	reply, err := s.generator.Generate(ctx, messages)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(reply) == "" {
		reply = genai.EmptyReply
	}
	return reply, nil
}

// classifyUpstream maps generator failures onto API errors.
func classifyUpstream(err error) error {
	var upstream *genai.UpstreamError
	switch {
	case errors.As(err, &upstream):
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "analysis upstream rejected the request")
	case errors.Is(err, genai.ErrNotConfigured):
		return appErrors.Wrap(err, appErrors.ErrAnalysisUnavailable.Code, appErrors.ErrAnalysisUnavailable.Status, appErrors.ErrAnalysisUnavailable.Message)
	case errors.Is(err, context.DeadlineExceeded):
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, http.StatusGatewayTimeout, "analysis upstream timed out")
	default:
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, appErrors.ErrUpstream.Message)
	}
}

func (s *AnalysisService) acquire(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.pending[key]; busy {
		return false
	}
	s.pending[key] = struct{}{}
	return true
}

func (s *AnalysisService) release(key string) {
	s.mu.Lock()
	delete(s.pending, key)
	s.mu.Unlock()
}

func knownChart(chart string) bool {
	for _, c := range Charts() {
		if c == chart {
			return true
		}
	}
	return false
}

func (s *AnalysisService) prompt(ctx context.Context, student *models.StudentClaims, chart string) (string, error) {
	switch chart {
	case ChartRadar, ChartActivity:
		overview, _, err := s.charts.Overview(ctx, student)
		if err != nil {
			return "", err
		}
		if chart == ChartRadar {
			return radarPrompt(overview), nil
		}
		return activityPrompt(overview), nil
	case ChartPractice:
		practice, _, err := s.charts.Practice(ctx, student)
		if err != nil {
			return "", err
		}
		return practicePrompt(practice), nil
	case ChartQuiz:
		quiz, _, err := s.charts.Quiz(ctx, student, dto.QuizQuery{})
		if err != nil {
			return "", err
		}
		return quizPrompt(quiz), nil
	case ChartVideo:
		video, _, err := s.charts.Video(ctx, student, dto.VideoQuery{})
		if err != nil {
			return "", err
		}
		return videoPrompt(video), nil
	default:
		math, _, err := s.charts.Math(ctx, student, dto.MathQuery{})
		if err != nil {
			return "", err
		}
		return mathPrompt(math), nil
	}
}

var activityNames = map[string]string{
	ActivityPractice: "練習表現",
	ActivityQuiz:     "測驗答題",
	ActivityVideo:    "影片瀏覽",
	ActivityMath:     "數學測驗",
}

func radarPrompt(o *dto.OverviewResponse) string {
	var b strings.Builder
	b.WriteString("以下是學生與班級的學習表現：\n")
	for _, a := range o.Activity {
		fmt.Fprintf(&b, "%s：%s (班平均 %s)\n", activityNames[a.Label], formatNumber(a.Student), formatMeasure(a.ClassAverage, 1))
	}
	if o.ScoreRatePercentile.Valid() {
		fmt.Fprintf(&b, "練習得分率在班上的百分等級：%s\n", formatMeasure(o.ScoreRatePercentile, 1))
	}
	b.WriteString(analysisSections)
	return b.String()
}

func activityPrompt(o *dto.OverviewResponse) string {
	student := make([]string, len(o.WeeklyTrend.Student))
	for i, v := range o.WeeklyTrend.Student {
		student[i] = strconv.Itoa(v)
	}
	class := make([]string, len(o.WeeklyTrend.ClassAverage))
	for i, v := range o.WeeklyTrend.ClassAverage {
		class[i] = formatNumber(v)
	}
	return fmt.Sprintf("以下是學生最近%d週的學習活躍度：\n%s\n班級平均為 %s。\n%s",
		len(o.WeeklyTrend.Weeks), strings.Join(student, "、"), strings.Join(class, "、"), analysisSections)
}

func practicePrompt(p *dto.PracticeDashboardResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "以下是學生的練習紀錄：共 %d 筆練習，平均得分率 %s，平均作答時間 %s 秒，題目正確率 %s。\n",
		p.KPI.Attempts, formatMeasure(p.KPI.AverageScoreRate, 0), formatMeasure(p.KPI.AverageDuration, 0), p.KPI.ItemAccuracyText)
	if len(p.IndicatorAccuracy) > 0 {
		parts := make([]string, 0, len(p.IndicatorAccuracy))
		for _, g := range p.IndicatorAccuracy {
			parts = append(parts, fmt.Sprintf("%s %s%%", g.Label, formatNumber(g.Percent)))
		}
		fmt.Fprintf(&b, "各指標正確率：%s\n", strings.Join(parts, "、"))
	}
	fmt.Fprintf(&b, "答對題平均 %s 秒，答錯題平均 %s 秒。\n",
		formatMeasure(p.ItemTiming.Correct.Rounded(1), 1), formatMeasure(p.ItemTiming.Wrong.Rounded(1), 1))
	b.WriteString(analysisSections)
	return b.String()
}

func quizPrompt(q *dto.QuizDashboardResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "以下是學生的測驗紀錄：共 %d 個任務、%d 題，正確率 %d%%，平均每題 %s 秒，全對任務 %d 個。\n",
		q.TotalMissions, q.TotalEvents, q.AccuracyPercent, formatMeasure(q.MeanSeconds, 1), len(q.PerfectMissions))
	for _, m := range q.Missions {
		fmt.Fprintf(&b, "任務 %s：%d/%d 題答對，平均 %d 秒\n", m.ID, m.Correct, m.Events, m.AverageSeconds)
	}
	b.WriteString(analysisSections)
	return b.String()
}

func videoPrompt(v *dto.VideoDashboardResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "以下是學生 %s 至 %s 的影片觀看紀錄：共 %d 次、%d 部影片，平均完成率 %s%%，表現最佳科目 %s。\n",
		v.Range.From, v.Range.To, v.KPI.Sessions, v.KPI.DistinctVideos, formatMeasure(v.KPI.AverageFinishRate, 1), v.KPI.BestSubject)
	parts := make([]string, 0, len(v.CompletionBuckets))
	for _, c := range v.CompletionBuckets {
		parts = append(parts, fmt.Sprintf("%s %d 次", c.Label, c.Count))
	}
	fmt.Fprintf(&b, "完成率分布：%s\n", strings.Join(parts, "、"))
	if v.Lowest != nil {
		fmt.Fprintf(&b, "完成率最低的影片：%s (%s%%)\n", v.Lowest.Name, formatNumber(v.Lowest.FinishRate))
	}
	b.WriteString(analysisSections)
	return b.String()
}

func mathPrompt(m *dto.MathDashboardResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "以下是學生的數學測驗紀錄：共 %d 題、%d 個單元，正確率 %s，平均作答 %s。\n",
		m.KPI.Attempts, m.KPI.Units, m.KPI.AccuracyText, m.KPI.MeanSecondsText)
	units := append([]analytics.GroupStat{}, m.UnitAccuracy...)
	sort.SliceStable(units, func(i, j int) bool { return units[i].Percent < units[j].Percent })
	if len(units) > 3 {
		units = units[:3]
	}
	if len(units) > 0 {
		parts := make([]string, 0, len(units))
		for _, u := range units {
			parts = append(parts, fmt.Sprintf("%s %s%%", u.Label, formatNumber(u.Percent)))
		}
		fmt.Fprintf(&b, "正確率最低的單元：%s\n", strings.Join(parts, "、"))
	}
	b.WriteString(analysisSections)
	return b.String()
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatMeasure(m analytics.Measure, digits int) string {
	if !m.Valid() {
		return "-"
	}
	return strconv.FormatFloat(*m.Value, 'f', digits, 64)
}
