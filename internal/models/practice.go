package models

import "time"

// PracticeRecord is one practice attempt from the practice feed.
//
// BinaryRes and ItemsAnsTime are expected to describe the same item sequence
// index for index. Parsing does not enforce it; consumers zip to the shorter
// of the two.
type PracticeRecord struct {
	UserSN         int64      `json:"user_sn"`
	OrganizationID int64      `json:"organization_id"`
	Grade          int64      `json:"grade"`
	Class          int64      `json:"class"`
	Seat           int64      `json:"seat"`
	ChineseScore   *float64   `json:"chinese_score"`
	MathScore      *float64   `json:"math_score"`
	EnglishScore   *float64   `json:"english_score"`
	PracticeSN     *int64     `json:"prac_sn"`
	Date           *time.Time `json:"date"`
	DuringTime     *float64   `json:"during_time"`
	ScoreRate      *float64   `json:"score_rate"`
	BinaryRes      []float64  `json:"binary_res"`
	ItemsAnsTime   []float64  `json:"items_ans_time"`
	IndicatorName  string     `json:"indicator_name"`
	SubjectName    string     `json:"subject_name"`
}

// StudentKey implements analytics scoping.
func (r PracticeRecord) StudentKey() int64 { return r.UserSN }

// When returns the practice date.
func (r PracticeRecord) When() *time.Time { return r.Date }

// PracticeSession is one row of the per-session summary feed.
type PracticeSession struct {
	UserSN        int64      `json:"user_sn"`
	PracticeSN    int64      `json:"prac_sn"`
	Date          *time.Time `json:"date"`
	SubjectName   string     `json:"subject_name"`
	IndicatorName string     `json:"indicator_name"`
	NItems        int64      `json:"n_items"`
	NCorrect      int64      `json:"n_correct"`
	Accuracy      float64    `json:"acc"`
	AvgRTSec      float64    `json:"avg_rt_sec"`
}

// StudentKey implements analytics scoping.
func (s PracticeSession) StudentKey() int64 { return s.UserSN }

// When returns the session timestamp.
func (s PracticeSession) When() *time.Time { return s.Date }
