package models

import "github.com/noah-isme/student-insight-api/pkg/coerce"

// Video feed placeholders for blank cells.
const (
	UnknownSubject   = "未知"
	UnnamedVideo     = "(未命名影片)"
	effectiveDivisor = 100
)

// VideoSession is one viewing session.
type VideoSession struct {
	UserSN      int64   `json:"user_sn"`
	SubjectName string  `json:"subject_name"`
	VideoName   string  `json:"video_name"`
	VideoLen    float64 `json:"video_len"`
	FinishRate  float64 `json:"finish_rate"`
	StartTime   string  `json:"start_time"`
	EndTime     string  `json:"end_time"`
}

// StudentKey implements analytics scoping.
func (v VideoSession) StudentKey() int64 { return v.UserSN }

// EffectiveSeconds is the watched share of the video length.
func (v VideoSession) EffectiveSeconds() float64 {
	return v.VideoLen * (v.FinishRate / effectiveDivisor)
}

// Day is the calendar day of StartTime as "YYYY-MM-DD", or "" when the start
// time does not parse.
func (v VideoSession) Day() string {
	return coerce.DayKey(v.StartTime, coerce.LocalTime)
}
