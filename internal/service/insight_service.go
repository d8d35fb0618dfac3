package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/student-insight-api/internal/models"
	appErrors "github.com/noah-isme/student-insight-api/pkg/errors"
)

type insightDatasets interface {
	Practice(ctx context.Context) ([]models.PracticeRecord, bool)
	PracticeSessions(ctx context.Context) ([]models.PracticeSession, bool)
	Quiz(ctx context.Context) ([]models.QuizEvent, bool)
	Video(ctx context.Context) ([]models.VideoSession, bool)
	Math(ctx context.Context) ([]models.MathDrill, bool)
	LoadAll(ctx context.Context) Snapshot
}

// InsightServiceConfig tunes the chart derivations.
type InsightServiceConfig struct {
	MovingAverageWindow int
	HistogramBins       int
	TopVideos           int
	TrendWeeks          int
	MissionPageSize     int
}

// InsightService composes the per-student dashboards. Aggregates are derived
// on every call from the current snapshots and never cached themselves.
type InsightService struct {
	datasets insightDatasets
	logger   *zap.Logger
	loc      *time.Location
	now      func() time.Time
	cfg      InsightServiceConfig
}

// NewInsightService constructs an InsightService with sane defaults.
func NewInsightService(datasets insightDatasets, loc *time.Location, logger *zap.Logger, cfg InsightServiceConfig) *InsightService {
	if cfg.MovingAverageWindow <= 0 {
		cfg.MovingAverageWindow = 7
	}
	if cfg.HistogramBins <= 0 {
		cfg.HistogramBins = 10
	}
	if cfg.TopVideos <= 0 {
		cfg.TopVideos = 5
	}
	if cfg.TrendWeeks <= 0 {
		cfg.TrendWeeks = 6
	}
	if cfg.MissionPageSize <= 0 {
		cfg.MissionPageSize = 5
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InsightService{datasets: datasets, logger: logger, loc: loc, now: time.Now, cfg: cfg}
}

func requireStudent(student *models.StudentClaims) error {
	if student == nil {
		return appErrors.ErrUnauthorized
	}
	return nil
}

func formatDay(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
