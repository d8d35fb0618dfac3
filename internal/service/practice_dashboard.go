package service

import (
	"context"
	"strconv"

	"github.com/noah-isme/student-insight-api/internal/analytics"
	"github.com/noah-isme/student-insight-api/internal/dto"
	"github.com/noah-isme/student-insight-api/internal/models"
)

// Practice returns the practice dashboard of the student.
func (s *InsightService) Practice(ctx context.Context, student *models.StudentClaims) (*dto.PracticeDashboardResponse, bool, error) {
	if err := requireStudent(student); err != nil {
		return nil, false, err
	}
	records, recordsHit := s.datasets.Practice(ctx)
	sessions, sessionsHit := s.datasets.PracticeSessions(ctx)

	mine := analytics.ScopeToStudent(records, student.StudentKey)
	mySessions := analytics.ScopeToStudent(sessions, student.StudentKey)
	resp := buildPracticeDashboard(student.StudentKey, mine, mySessions)
	return &resp, recordsHit && sessionsHit, nil
}

func buildPracticeDashboard(key int64, records []models.PracticeRecord, sessions []models.PracticeSession) dto.PracticeDashboardResponse {
	itemAccuracy := practiceItemAccuracy(records)
	ordered := analytics.SortChronological(records)

	return dto.PracticeDashboardResponse{
		StudentKey: key,
		KPI: dto.PracticeKPI{
			Attempts:         len(records),
			Sessions:         len(sessions),
			AverageScoreRate: analytics.Mean(records, func(r models.PracticeRecord) float64 { return valueOr(r.ScoreRate, 0) }).Rounded(0),
			AverageDuration:  analytics.Mean(records, func(r models.PracticeRecord) float64 { return valueOr(r.DuringTime, 0) }).Rounded(0),
			ItemAccuracy:     itemAccuracy,
			ItemAccuracyText: analytics.FormatPercent(itemAccuracy, 1),
		},
		AccuracyTrend:  sessionAccuracyTrend(analytics.SortChronological(sessions)),
		DurationSeries: practiceDurationSeries(ordered),
		IndicatorScoreRate: analytics.GroupMean(records, practiceIndicator, func(r models.PracticeRecord) (float64, bool) {
			if r.ScoreRate == nil || *r.ScoreRate == 0 {
				return 0, false
			}
			return *r.ScoreRate, true
		}),
		IndicatorAccuracy:   analytics.GroupAccuracy(records, practiceIndicator, analytics.ItemTally),
		SubjectDistribution: analytics.CountBy(records, func(r models.PracticeRecord) string { return r.SubjectName }),
		ItemTiming:          analytics.SummarizeItemTiming(records),
	}
}

func practiceIndicator(r models.PracticeRecord) string { return r.IndicatorName }

func practiceItemAccuracy(records []models.PracticeRecord) analytics.Measure {
	var correct, total int
	for _, r := range records {
		c, t := analytics.ItemTally(r)
		correct += c
		total += t
	}
	if total == 0 {
		return analytics.Undefined()
	}
	return analytics.Defined(float64(correct)/float64(total), total)
}

func sessionAccuracyTrend(sessions []models.PracticeSession) []dto.SeriesPoint {
	out := make([]dto.SeriesPoint, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, dto.SeriesPoint{
			Label: "#" + strconv.FormatInt(sess.PracticeSN, 10),
			Date:  formatDay(sess.Date),
			Value: analytics.Round(sess.Accuracy*100, 0),
		})
	}
	return out
}

func practiceDurationSeries(records []models.PracticeRecord) []dto.SeriesPoint {
	out := []dto.SeriesPoint{}
	for _, r := range records {
		if r.DuringTime == nil {
			continue
		}
		label := formatDay(r.Date)
		if r.PracticeSN != nil {
			label = "#" + strconv.FormatInt(*r.PracticeSN, 10)
		}
		out = append(out, dto.SeriesPoint{Label: label, Date: formatDay(r.Date), Value: *r.DuringTime})
	}
	return out
}

func valueOr(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}
