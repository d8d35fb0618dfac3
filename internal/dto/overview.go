package dto

import "github.com/noah-isme/student-insight-api/internal/analytics"

// OverviewResponse compares the student's activity with the class.
type OverviewResponse struct {
	StudentKey          int64                       `json:"studentKey"`
	Classmates          int                         `json:"classmates"`
	Activity            []analytics.ClassComparison `json:"activity"`
	WeeklyTrend         WeeklyTrend                 `json:"weeklyTrend"`
	ScoreRatePercentile analytics.Measure           `json:"scoreRatePercentile"`
	Baseline            BaselineScores              `json:"baseline"`
}

// WeeklyTrend holds per-week activity counts, oldest week first.
type WeeklyTrend struct {
	Weeks        []string  `json:"weeks"`
	Student      []int     `json:"student"`
	ClassAverage []float64 `json:"classAverage"`
}

// BaselineScores are the subject scores carried by the practice feed.
type BaselineScores struct {
	Chinese *float64 `json:"chinese"`
	Math    *float64 `json:"math"`
	English *float64 `json:"english"`
}
