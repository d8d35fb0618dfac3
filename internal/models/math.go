package models

import "time"

// UnnamedUnit replaces a blank math unit name.
const UnnamedUnit = "(未命名單元)"

// MathDrill is one answered math question.
type MathDrill struct {
	SN               *int64     `json:"sn"`
	UserSN           int64      `json:"user_sn"`
	GameGrade        *int64     `json:"game_grade"`
	GameSemester     *int64     `json:"game_semester"`
	UnitID           *int64     `json:"unit_id"`
	AnswerProblemNum string     `json:"answer_problem_num"`
	IsCorrect        int        `json:"is_correct"`
	GameTimeMS       *float64   `json:"game_time_ms"`
	LastModifiedRaw  string     `json:"last_modified_str"`
	LastModified     *time.Time `json:"last_modified"`
	UnitName         string     `json:"unit_name"`
	OrganizationID   string     `json:"organization_id"`
	Grade            *int64     `json:"grade"`
	Class            *int64     `json:"class"`
	Seat             *int64     `json:"seat"`
	ChineseScore     *float64   `json:"chinese_score"`
	MathScore        *float64   `json:"math_score"`
	EnglishScore     *float64   `json:"english_score"`
	IsCorrectAvg     *float64   `json:"is_correct_avg"`
}

// StudentKey implements analytics scoping.
func (m MathDrill) StudentKey() int64 { return m.UserSN }

// When returns the parsed modification time.
func (m MathDrill) When() *time.Time { return m.LastModified }
