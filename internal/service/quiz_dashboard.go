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

// Quiz returns the quiz dashboard with one page of the selected mission.
// An empty mission id selects the first mission.
func (s *InsightService) Quiz(ctx context.Context, student *models.StudentClaims, query dto.QuizQuery) (*dto.QuizDashboardResponse, bool, error) {
	if err := requireStudent(student); err != nil {
		return nil, false, err
	}
	events, hit := s.datasets.Quiz(ctx)
	mine := analytics.ScopeToStudent(events, student.StudentKey)

	resp, err := buildQuizDashboard(student.StudentKey, mine, query, s.cfg.MissionPageSize)
	if err != nil {
		return nil, false, err
	}
	return resp, hit, nil
}

func buildQuizDashboard(key int64, events []models.QuizEvent, query dto.QuizQuery, pageSize int) (*dto.QuizDashboardResponse, error) {
	missions := analytics.GroupMissions(events)
	accuracy := analytics.QuizAccuracy(events)

	resp := &dto.QuizDashboardResponse{
		StudentKey:      key,
		TotalMissions:   len(missions),
		TotalEvents:     len(events),
		AccuracyPercent: int(analytics.Round(accuracy.Or(0)*100, 0)),
		Accuracy:        accuracy,
		AccuracyText:    analytics.FormatPercent(accuracy, 1),
		MeanSeconds:     analytics.QuizMeanSeconds(events).Rounded(1),
		Missions:        missions,
		PerfectMissions: analytics.PerfectMissions(missions),
	}
	if len(missions) == 0 {
		return resp, nil
	}

	missionID := strings.TrimSpace(query.MissionID)
	if missionID == "" {
		missionID = missions[0].ID
	}
	known := false
	for _, m := range missions {
		if m.ID == missionID {
			known = true
			break
		}
	}
	if !known {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "mission not found")
	}

	detail := missionDetail(analytics.MissionEvents(events, missionID), query.Page, pageSize)
	detail.MissionID = missionID
	resp.Detail = &detail
	return resp, nil
}

func missionDetail(events []models.QuizEvent, page, pageSize int) dto.QuizMissionDetail {
	if page < 1 {
		page = 1
	}
	detail := dto.QuizMissionDetail{
		Events:     []dto.QuizEventRow{},
		Pagination: models.Pagination{Page: page, PageSize: pageSize, TotalCount: len(events)},
	}
	if len(events) > 0 {
		detail.Date = formatDay(events[0].ActionTime)
		detail.ObjectType = events[0].ObjectType
	}

	start := (page - 1) * pageSize
	if start >= len(events) {
		return detail
	}
	end := start + pageSize
	if end > len(events) {
		end = len(events)
	}
	for _, e := range events[start:end] {
		detail.Events = append(detail.Events, dto.QuizEventRow{
			SN:             e.SN,
			QuestionID:     e.QuestionID,
			ObjectType:     e.ObjectType,
			ResultSuccess:  e.ResultSuccess,
			ResultDuration: e.ResultDuration,
			Seconds:        coerce.MinuteSeconds(e.ResultDuration),
			Correct:        e.Correct(),
			ActionTime:     e.ActionTime,
		})
	}
	return detail
}
