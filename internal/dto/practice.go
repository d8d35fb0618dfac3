package dto

import "github.com/noah-isme/student-insight-api/internal/analytics"

// PracticeDashboardResponse is the practice page payload for one student.
type PracticeDashboardResponse struct {
	StudentKey          int64                       `json:"studentKey"`
	KPI                 PracticeKPI                 `json:"kpi"`
	AccuracyTrend       []SeriesPoint               `json:"accuracyTrend"`
	DurationSeries      []SeriesPoint               `json:"durationSeries"`
	IndicatorScoreRate  []analytics.LabelMeasure    `json:"indicatorScoreRate"`
	IndicatorAccuracy   []analytics.GroupStat       `json:"indicatorAccuracy"`
	SubjectDistribution []analytics.LabelCount      `json:"subjectDistribution"`
	ItemTiming          analytics.ItemTimingSummary `json:"itemTiming"`
}

// PracticeKPI summarises the student's practice attempts. Averages are
// rounded to whole numbers and null when there are no attempts.
type PracticeKPI struct {
	Attempts         int               `json:"attempts"`
	Sessions         int               `json:"sessions"`
	AverageScoreRate analytics.Measure `json:"avgScoreRate"`
	AverageDuration  analytics.Measure `json:"avgDuringTime"`
	ItemAccuracy     analytics.Measure `json:"itemAccuracy"`
	ItemAccuracyText string            `json:"itemAccuracyText"`
}

// SeriesPoint is one point of a chronological chart.
type SeriesPoint struct {
	Label string  `json:"label"`
	Date  string  `json:"date,omitempty"`
	Value float64 `json:"value"`
}
