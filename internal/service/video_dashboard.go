package service

import (
	"context"
	"strings"

	"github.com/noah-isme/student-insight-api/internal/analytics"
	"github.com/noah-isme/student-insight-api/internal/dto"
	"github.com/noah-isme/student-insight-api/internal/models"
	"github.com/noah-isme/student-insight-api/pkg/coerce"
	appErrors "github.com/noah-isme/student-insight-api/pkg/errors"
)

// Video returns the video dashboard. Blank bounds default to the first and
// last day the student watched anything.
func (s *InsightService) Video(ctx context.Context, student *models.StudentClaims, query dto.VideoQuery) (*dto.VideoDashboardResponse, bool, error) {
	if err := requireStudent(student); err != nil {
		return nil, false, err
	}
	if err := validateDayRange(query.From, query.To); err != nil {
		return nil, false, err
	}
	sessions, hit := s.datasets.Video(ctx)
	mine := analytics.ScopeToStudent(sessions, student.StudentKey)
	resp := buildVideoDashboard(student.StudentKey, mine, query, s.cfg.TopVideos)
	return &resp, hit, nil
}

func buildVideoDashboard(key int64, sessions []models.VideoSession, query dto.VideoQuery, topN int) dto.VideoDashboardResponse {
	days := analytics.VideoDays(sessions)
	rng := dto.VideoRange{From: coerce.DayKey(query.From, coerce.LocalTime), To: coerce.DayKey(query.To, coerce.LocalTime)}
	if len(days) > 0 {
		rng.AvailableFrom, rng.AvailableTo = days[0], days[len(days)-1]
		if rng.From == "" {
			rng.From = rng.AvailableFrom
		}
		if rng.To == "" {
			rng.To = rng.AvailableTo
		}
	}
	inRange := analytics.FilterVideoDays(sessions, rng.From, rng.To)

	var watched float64
	for _, v := range inRange {
		watched += v.EffectiveSeconds()
	}

	resp := dto.VideoDashboardResponse{
		StudentKey: key,
		Range:      rng,
		KPI: dto.VideoKPI{
			Sessions:          len(inRange),
			DistinctVideos:    analytics.Distinct(inRange, videoName),
			AverageFinishRate: analytics.Mean(inRange, func(v models.VideoSession) float64 { return v.FinishRate }).Rounded(1),
			TotalSeconds:      analytics.Round(watched, 0),
			BestSubject:       analytics.BestSubject(inRange),
		},
		DailyViews:        analytics.DailyViews(inRange),
		CompletionBuckets: analytics.CompletionBuckets(inRange),
		SubjectSeconds:    roundValues(analytics.EffectiveSecondsBy(inRange, videoSubject, 0)),
		TopVideos:         roundValues(analytics.EffectiveSecondsBy(inRange, videoName, topN)),
	}
	if highest, lowest, ok := analytics.FinishExtremes(inRange); ok {
		resp.Highest = &dto.VideoFinish{Name: highest.VideoName, Subject: highest.SubjectName, FinishRate: highest.FinishRate}
		resp.Lowest = &dto.VideoFinish{Name: lowest.VideoName, Subject: lowest.SubjectName, FinishRate: lowest.FinishRate}
	}
	return resp
}

func videoName(v models.VideoSession) string    { return v.VideoName }
func videoSubject(v models.VideoSession) string { return v.SubjectName }

func roundValues(values []analytics.LabelValue) []analytics.LabelValue {
	for i := range values {
		values[i].Value = analytics.Round(values[i].Value, 0)
	}
	return values
}

// validateDayRange rejects bounds that are present but not calendar days, and
// ranges whose start is after their end.
func validateDayRange(from, to string) error {
	r := analytics.ParseDateRange(from, to, nil)
	if strings.TrimSpace(from) != "" && r.From == nil {
		return appErrors.Clone(appErrors.ErrValidation, "invalid from parameter")
	}
	if strings.TrimSpace(to) != "" && r.To == nil {
		return appErrors.Clone(appErrors.ErrValidation, "invalid to parameter")
	}
	if r.From != nil && r.To != nil && r.From.After(*r.To) {
		return appErrors.Clone(appErrors.ErrValidation, "from must not be after to")
	}
	return nil
}
