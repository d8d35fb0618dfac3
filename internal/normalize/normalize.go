// Package normalize maps raw feed rows onto typed records.
//
// Every normalizer is total: a malformed cell falls back to nil, zero or a
// placeholder and never aborts the rest of the sheet.
package normalize

import (
	"time"

	"github.com/noah-isme/student-insight-api/internal/models"
	"github.com/noah-isme/student-insight-api/pkg/coerce"
	"github.com/noah-isme/student-insight-api/pkg/csvsource"
)

// Normalizer reads timestamps in a fixed location.
type Normalizer struct {
	loc *time.Location
}

// New returns a Normalizer for loc. A nil location means UTC.
func New(loc *time.Location) *Normalizer {
	if loc == nil {
		loc = time.UTC
	}
	return &Normalizer{loc: loc}
}

// Location exposes the configured location.
func (n *Normalizer) Location() *time.Location {
	return n.loc
}

// Practice maps a row of the practice feed.
func (n *Normalizer) Practice(row csvsource.Row) models.PracticeRecord {
	return models.PracticeRecord{
		UserSN:         coerce.IntegerOr(row.Get("user_sn"), 0),
		OrganizationID: coerce.IntegerOr(row.Get("organization_id"), 0),
		Grade:          coerce.IntegerOr(row.Get("grade"), 0),
		Class:          coerce.IntegerOr(row.Get("class"), 0),
		Seat:           coerce.IntegerOr(row.Get("seat"), 0),
		ChineseScore:   coerce.NumberPtr(row.Get("chinese_score")),
		MathScore:      coerce.NumberPtr(row.Get("math_score")),
		EnglishScore:   coerce.NumberPtr(row.Get("english_score")),
		PracticeSN:     coerce.IntegerPtr(row.Get("prac_sn")),
		Date:           coerce.DatePtr(row.Get("date"), coerce.LocalTime, n.loc),
		DuringTime:     coerce.NumberPtr(row.Get("during_time")),
		ScoreRate:      coerce.NumberPtr(row.Get("score_rate")),
		BinaryRes:      coerce.SplitNumbers(row.Get("binary_res"), coerce.ItemDelimiter),
		ItemsAnsTime:   coerce.SplitNumbers(row.Get("items_ans_time"), coerce.ItemDelimiter),
		IndicatorName:  coerce.Text(row.Get("indicator_name"), ""),
		SubjectName:    coerce.Text(row.Get("subject_name"), ""),
	}
}

// PracticeSession maps a row of the per-session summary feed.
func (n *Normalizer) PracticeSession(row csvsource.Row) models.PracticeSession {
	return models.PracticeSession{
		UserSN:        coerce.IntegerOr(row.Get("user_sn"), 0),
		PracticeSN:    coerce.IntegerOr(row.Get("prac_sn"), 0),
		Date:          coerce.DatePtr(row.Get("date"), coerce.LocalTime, n.loc),
		SubjectName:   coerce.Text(row.Get("subject_name"), ""),
		IndicatorName: coerce.Text(row.Get("indicator_name"), ""),
		NItems:        coerce.IntegerOr(row.Get("n_items"), 0),
		NCorrect:      coerce.IntegerOr(row.Get("n_correct"), 0),
		Accuracy:      coerce.NumberOr(row.Get("acc"), 0),
		AvgRTSec:      coerce.NumberOr(row.Get("avg_rt_sec"), 0),
	}
}

// QuizEvent maps a row of the quiz interaction log. Action times carry a
// trailing UTC offset which is dropped; the wall clock is read in the
// normalizer's location.
func (n *Normalizer) QuizEvent(row csvsource.Row) models.QuizEvent {
	return models.QuizEvent{
		UserSN:         coerce.IntegerOr(row.Get("user_sn"), 0),
		SN:             coerce.IntegerOr(row.Get("sn"), 0),
		ActionTime:     coerce.DatePtr(row.Get("action_time"), coerce.OffsetTime, n.loc),
		ObjectType:     coerce.Text(row.Get("object_type"), ""),
		ResultDuration: coerce.Text(row.Get("result_duration"), ""),
		ResultSuccess:  coerce.Text(row.Get("result_success"), ""),
		MissionID:      coerce.Text(row.Get("mission_id"), ""),
		QuestionID:     coerce.Text(row.Get("question_id"), ""),
	}
}

// VideoSession maps a row of the video viewing log.
func (n *Normalizer) VideoSession(row csvsource.Row) models.VideoSession {
	return models.VideoSession{
		UserSN:      coerce.IntegerOr(row.Get("user_sn"), 0),
		SubjectName: coerce.Text(row.Get("subject_name"), models.UnknownSubject),
		VideoName:   coerce.Text(row.Get("video_name"), models.UnnamedVideo),
		VideoLen:    coerce.NumberOr(row.Get("video_len"), 0),
		FinishRate:  coerce.NumberOr(row.Get("finish_rate"), 0),
		StartTime:   coerce.Text(row.Get("start_time"), ""),
		EndTime:     coerce.Text(row.Get("end_time"), ""),
	}
}

// MathDrill maps a row of the math drill log. The elapsed time column is
// named game_time and holds milliseconds.
func (n *Normalizer) MathDrill(row csvsource.Row) models.MathDrill {
	lastModified := coerce.Text(row.Get("last_modified"), "")
	return models.MathDrill{
		SN:               coerce.IntegerPtr(row.Get("sn")),
		UserSN:           coerce.IntegerOr(row.Get("user_sn"), 0),
		GameGrade:        coerce.IntegerPtr(row.Get("game_grade")),
		GameSemester:     coerce.IntegerPtr(row.Get("game_semester")),
		UnitID:           coerce.IntegerPtr(row.Get("unit_id")),
		AnswerProblemNum: coerce.Text(row.Get("answer_problem_num"), ""),
		IsCorrect:        coerce.BinaryFlag(row.Get("is_correct")),
		GameTimeMS:       coerce.NumberPtr(row.Get("game_time")),
		LastModifiedRaw:  lastModified,
		LastModified:     coerce.DatePtr(lastModified, coerce.LocalTime, n.loc),
		UnitName:         coerce.Text(row.Get("unit_name"), models.UnnamedUnit),
		OrganizationID:   coerce.Text(row.Get("organization_id"), ""),
		Grade:            coerce.IntegerPtr(row.Get("grade")),
		Class:            coerce.IntegerPtr(row.Get("class")),
		Seat:             coerce.IntegerPtr(row.Get("seat")),
		ChineseScore:     coerce.NumberPtr(row.Get("chinese_score")),
		MathScore:        coerce.NumberPtr(row.Get("math_score")),
		EnglishScore:     coerce.NumberPtr(row.Get("english_score")),
		IsCorrectAvg:     coerce.NumberPtr(row.Get("is_correct_avg")),
	}
}

// Identity maps a row onto a login candidate. Name and ID keep the trimmed
// raw text so matching stays an exact string comparison.
func (n *Normalizer) Identity(row csvsource.Row) models.StudentIdentity {
	name := coerce.Text(row.Get("user_sn"), "")
	return models.StudentIdentity{
		Name:           name,
		ID:             coerce.Text(row.Get("organization_id"), ""),
		StudentKey:     coerce.IntegerOr(name, 0),
		OrganizationID: coerce.IntegerOr(row.Get("organization_id"), 0),
		Grade:          coerce.IntegerOr(row.Get("grade"), 0),
		Class:          coerce.IntegerOr(row.Get("class"), 0),
		Seat:           coerce.IntegerOr(row.Get("seat"), 0),
		ChineseScore:   coerce.NumberOr(row.Get("chinese_score"), 0),
		MathScore:      coerce.NumberOr(row.Get("math_score"), 0),
		EnglishScore:   coerce.NumberOr(row.Get("english_score"), 0),
	}
}
