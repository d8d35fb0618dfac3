package dto

import (
	"time"

	"github.com/noah-isme/student-insight-api/internal/analytics"
	"github.com/noah-isme/student-insight-api/internal/models"
)

// QuizDashboardResponse is the quiz page payload.
type QuizDashboardResponse struct {
	StudentKey      int64               `json:"studentKey"`
	TotalMissions   int                 `json:"totalMissions"`
	TotalEvents     int                 `json:"totalEvents"`
	AccuracyPercent int                 `json:"accRate"`
	Accuracy        analytics.Measure   `json:"accuracy"`
	AccuracyText    string              `json:"accuracyText"`
	MeanSeconds     analytics.Measure   `json:"meanSeconds"`
	Missions        []analytics.Mission `json:"missions"`
	PerfectMissions []string            `json:"perfectMissions"`
	Detail          *QuizMissionDetail  `json:"detail"`
}

// QuizMissionDetail lists the events of the selected mission, one page at a time.
type QuizMissionDetail struct {
	MissionID  string            `json:"missionId"`
	Date       string            `json:"date"`
	ObjectType string            `json:"objectType"`
	Events     []QuizEventRow    `json:"events"`
	Pagination models.Pagination `json:"pagination"`
}

// QuizEventRow is one question interaction in the mission table.
type QuizEventRow struct {
	SN             int64      `json:"sn"`
	QuestionID     string     `json:"questionId"`
	ObjectType     string     `json:"objectType"`
	ResultSuccess  string     `json:"resultSuccess"`
	ResultDuration string     `json:"resultDuration"`
	Seconds        int        `json:"seconds"`
	Correct        bool       `json:"correct"`
	ActionTime     *time.Time `json:"actionTime"`
}

// QuizQuery selects a mission and page of the detail table.
type QuizQuery struct {
	MissionID string
	Page      int
}
