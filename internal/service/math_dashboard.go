package service

import (
	"context"
	"strings"

	"github.com/noah-isme/student-insight-api/internal/analytics"
	"github.com/noah-isme/student-insight-api/internal/dto"
	"github.com/noah-isme/student-insight-api/internal/models"
	"github.com/noah-isme/student-insight-api/pkg/coerce"
)

// Math returns the math drill dashboard filtered by day range and unit keyword.
func (s *InsightService) Math(ctx context.Context, student *models.StudentClaims, query dto.MathQuery) (*dto.MathDashboardResponse, bool, error) {
	if err := requireStudent(student); err != nil {
		return nil, false, err
	}
	if err := validateDayRange(query.From, query.To); err != nil {
		return nil, false, err
	}
	drills, hit := s.datasets.Math(ctx)
	mine := analytics.ScopeToStudent(drills, student.StudentKey)
	resp := s.buildMathDashboard(student.StudentKey, mine, query)
	return &resp, hit, nil
}

func (s *InsightService) buildMathDashboard(key int64, drills []models.MathDrill, query dto.MathQuery) dto.MathDashboardResponse {
	query = dto.MathQuery{
		From: coerce.DayPart(query.From),
		To:   coerce.DayPart(query.To),
		Unit: strings.TrimSpace(query.Unit),
	}
	rows := analytics.SortChronological(drills)
	rows = analytics.FilterByDate(rows, analytics.ParseDateRange(query.From, query.To, s.loc))
	rows = analytics.MatchKeyword(rows, func(m models.MathDrill) string { return m.UnitName }, query.Unit)

	accuracy := analytics.Accuracy(rows, mathCorrect)
	meanSeconds := analytics.Mean(rows, func(m models.MathDrill) float64 { return valueOr(m.GameTimeMS, 0) }).Scale(0.001)

	kpi := dto.MathKPI{
		Attempts:        len(rows),
		Accuracy:        accuracy,
		AccuracyText:    analytics.FormatPercent(accuracy, 1),
		MeanSeconds:     meanSeconds,
		MeanSecondsText: analytics.FormatSeconds(meanSeconds, 1),
		Units:           analytics.Distinct(rows, func(m models.MathDrill) string { return m.UnitName }),
	}
	if len(rows) > 0 {
		kpi.MathScore = rows[0].MathScore
	}

	flags := make([]float64, len(rows))
	var correct int
	for i, m := range rows {
		if mathCorrect(m) {
			flags[i] = 1
			correct++
		}
	}
	moving := analytics.MovingAverage(flags, s.cfg.MovingAverageWindow)
	series := make([]dto.MathPoint, len(rows))
	for i, m := range rows {
		series[i] = dto.MathPoint{
			Time:          m.LastModified,
			Unit:          m.UnitName,
			Correct:       int(flags[i]),
			MovingAverage: analytics.Round(moving[i], 4),
		}
	}

	var seconds []float64
	for _, m := range rows {
		if m.GameTimeMS != nil {
			seconds = append(seconds, *m.GameTimeMS/1000)
		}
	}

	return dto.MathDashboardResponse{
		StudentKey:     key,
		Filter:         query,
		KPI:            kpi,
		AccuracySeries: series,
		UnitAccuracy: analytics.GroupAccuracy(rows, func(m models.MathDrill) string { return m.UnitName },
			func(m models.MathDrill) (int, int) { return m.IsCorrect, 1 }),
		CorrectSplit: []analytics.LabelCount{
			{Label: "correct", Count: correct},
			{Label: "wrong", Count: len(rows) - correct},
		},
		TimeHistogram: analytics.BinValues(seconds, s.cfg.HistogramBins),
		Rows:          analytics.Reverse(rows),
	}
}

func mathCorrect(m models.MathDrill) bool { return m.IsCorrect == 1 }
