package dto

import (
	"time"

	"github.com/noah-isme/student-insight-api/internal/analytics"
	"github.com/noah-isme/student-insight-api/internal/models"
)

// MathDashboardResponse is the math drill page payload.
type MathDashboardResponse struct {
	StudentKey     int64                  `json:"studentKey"`
	Filter         MathQuery              `json:"filter"`
	KPI            MathKPI                `json:"kpi"`
	AccuracySeries []MathPoint            `json:"accuracySeries"`
	UnitAccuracy   []analytics.GroupStat  `json:"unitAccuracy"`
	CorrectSplit   []analytics.LabelCount `json:"correctSplit"`
	TimeHistogram  analytics.Histogram    `json:"timeHistogram"`
	Rows           []models.MathDrill     `json:"rows"`
}

// MathKPI summarises the filtered drills.
type MathKPI struct {
	Attempts        int               `json:"attempts"`
	Accuracy        analytics.Measure `json:"accuracy"`
	AccuracyText    string            `json:"accuracyText"`
	MeanSeconds     analytics.Measure `json:"meanSeconds"`
	MeanSecondsText string            `json:"meanSecondsText"`
	Units           int               `json:"units"`
	MathScore       *float64          `json:"mathScore"`
}

// MathPoint is one drill on the accuracy-over-time chart.
type MathPoint struct {
	Time          *time.Time `json:"time"`
	Unit          string     `json:"unit"`
	Correct       int        `json:"correct"`
	MovingAverage float64    `json:"movingAverage"`
}

// MathQuery filters drills by day range and unit keyword.
type MathQuery struct {
	From string `json:"from"`
	To   string `json:"to"`
	Unit string `json:"unit"`
}
