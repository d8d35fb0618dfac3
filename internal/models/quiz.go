package models

import "time"

// QuizResultCorrect is the literal result label of a correct answer.
const QuizResultCorrect = "答對"

// QuizEvent is a single question interaction inside a mission.
type QuizEvent struct {
	UserSN         int64      `json:"user_sn"`
	SN             int64      `json:"sn"`
	ActionTime     *time.Time `json:"action_time"`
	ObjectType     string     `json:"object_type"`
	ResultDuration string     `json:"result_duration"`
	ResultSuccess  string     `json:"result_success"`
	MissionID      string     `json:"mission_id"`
	QuestionID     string     `json:"question_id"`
}

// StudentKey implements analytics scoping.
func (e QuizEvent) StudentKey() int64 { return e.UserSN }

// When returns the interaction timestamp.
func (e QuizEvent) When() *time.Time { return e.ActionTime }

// Correct reports whether the event carries the correct sentinel.
func (e QuizEvent) Correct() bool { return e.ResultSuccess == QuizResultCorrect }
