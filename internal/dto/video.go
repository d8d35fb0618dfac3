package dto

import "github.com/noah-isme/student-insight-api/internal/analytics"

// VideoDashboardResponse is the video page payload.
type VideoDashboardResponse struct {
	StudentKey        int64                  `json:"studentKey"`
	Range             VideoRange             `json:"range"`
	KPI               VideoKPI               `json:"kpi"`
	DailyViews        []analytics.LabelCount `json:"dailyViews"`
	CompletionBuckets []analytics.LabelCount `json:"completionBuckets"`
	SubjectSeconds    []analytics.LabelValue `json:"subjectSeconds"`
	TopVideos         []analytics.LabelValue `json:"topVideos"`
	Highest           *VideoFinish           `json:"highest"`
	Lowest            *VideoFinish           `json:"lowest"`
}

// VideoRange echoes the applied and available day bounds.
type VideoRange struct {
	From          string `json:"from"`
	To            string `json:"to"`
	AvailableFrom string `json:"availableFrom"`
	AvailableTo   string `json:"availableTo"`
}

// VideoKPI summarises the sessions in range.
type VideoKPI struct {
	Sessions          int               `json:"sessions"`
	DistinctVideos    int               `json:"distinctVideos"`
	AverageFinishRate analytics.Measure `json:"avgFinishRate"`
	TotalSeconds      float64           `json:"totalSeconds"`
	BestSubject       string            `json:"bestSubject"`
}

// VideoFinish names a video with its completion percentage.
type VideoFinish struct {
	Name       string  `json:"name"`
	Subject    string  `json:"subject"`
	FinishRate float64 `json:"finishRate"`
}

// VideoQuery bounds the sessions by start day (YYYY-MM-DD).
type VideoQuery struct {
	From string
	To   string
}
