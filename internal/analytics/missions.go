package analytics

import (
	"github.com/noah-isme/student-insight-api/internal/models"
	"github.com/noah-isme/student-insight-api/pkg/coerce"
)

// Mission aggregates the events sharing one mission id.
type Mission struct {
	ID             string `json:"mission_id"`
	Events         int    `json:"events"`
	Correct        int    `json:"correct"`
	TotalSeconds   int    `json:"total_seconds"`
	AverageSeconds int    `json:"average_seconds"`
	Perfect        bool   `json:"perfect"`
}

// GroupMissions groups events by mission id in first-seen order. Durations
// are parsed from their "<m>分<s>秒" labels here; unmatched labels count as
// zero seconds. A mission is perfect when every event carries the correct
// result label.
func GroupMissions(events []models.QuizEvent) []Mission {
	groups := newGrouping[Mission]()
	for _, e := range events {
		m := groups.at(e.MissionID)
		m.Events++
		m.TotalSeconds += coerce.MinuteSeconds(e.ResultDuration)
		if e.Correct() {
			m.Correct++
		}
	}
	out := make([]Mission, 0, len(groups.order))
	for _, id := range groups.order {
		m := *groups.index[id]
		m.ID = id
		if m.Events > 0 {
			m.AverageSeconds = int(Round(float64(m.TotalSeconds)/float64(m.Events), 0))
		}
		m.Perfect = m.Events > 0 && m.Correct == m.Events
		out = append(out, m)
	}
	return out
}

// PerfectMissions returns the ids of the perfect missions in input order.
func PerfectMissions(missions []Mission) []string {
	out := []string{}
	for _, m := range missions {
		if m.Perfect {
			out = append(out, m.ID)
		}
	}
	return out
}

// MissionEvents returns the events of one mission in input order.
func MissionEvents(events []models.QuizEvent, missionID string) []models.QuizEvent {
	return Filter(events, func(e models.QuizEvent) bool { return e.MissionID == missionID })
}

// QuizAccuracy is the share of events with the correct result label.
func QuizAccuracy(events []models.QuizEvent) Measure {
	return Accuracy(events, models.QuizEvent.Correct)
}

// QuizMeanSeconds averages the parsed event durations.
func QuizMeanSeconds(events []models.QuizEvent) Measure {
	return Mean(events, func(e models.QuizEvent) float64 {
		return float64(coerce.MinuteSeconds(e.ResultDuration))
	})
}
