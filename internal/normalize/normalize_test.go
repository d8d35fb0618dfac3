package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-insight-api/internal/models"
	"github.com/noah-isme/student-insight-api/pkg/csvsource"
)

var taipei = time.FixedZone("Asia/Taipei", 8*60*60)

func TestPracticeFullRow(t *testing.T) {
	n := New(taipei)
	rec := n.Practice(csvsource.Row{
		"user_sn":         "4561",
		"organization_id": "3001",
		"grade":           "5",
		"class":           "2",
		"seat":            "17",
		"chinese_score":   "88.5",
		"math_score":      "",
		"english_score":   "n/a",
		"prac_sn":         "120",
		"date":            "2024-01-10",
		"during_time":     "95",
		"score_rate":      "80",
		"binary_res":      "1@XX@0@XX@1",
		"items_ans_time":  "12@XX@x@XX@8",
		"indicator_name":  "分數加法",
		"subject_name":    "數學",
	})

	assert.Equal(t, int64(4561), rec.UserSN)
	assert.Equal(t, int64(3001), rec.OrganizationID)
	assert.Equal(t, int64(17), rec.Seat)
	require.NotNil(t, rec.ChineseScore)
	assert.Equal(t, 88.5, *rec.ChineseScore)
	assert.Nil(t, rec.MathScore)
	assert.Nil(t, rec.EnglishScore)
	require.NotNil(t, rec.PracticeSN)
	assert.Equal(t, int64(120), *rec.PracticeSN)
	require.NotNil(t, rec.Date)
	assert.Equal(t, time.Date(2024, 1, 10, 0, 0, 0, 0, taipei), *rec.Date)
	assert.Equal(t, []float64{1, 0, 1}, rec.BinaryRes)
	assert.Equal(t, []float64{12, 8}, rec.ItemsAnsTime)
	assert.Equal(t, "分數加法", rec.IndicatorName)
	assert.Equal(t, int64(4561), rec.StudentKey())
}

func TestPracticeEmptyRowIsTotal(t *testing.T) {
	rec := New(nil).Practice(csvsource.Row{})

	assert.Zero(t, rec.UserSN)
	assert.Zero(t, rec.Grade)
	assert.Nil(t, rec.Date)
	assert.Nil(t, rec.ScoreRate)
	assert.NotNil(t, rec.BinaryRes)
	assert.Empty(t, rec.BinaryRes)
	assert.Empty(t, rec.ItemsAnsTime)
	assert.Equal(t, "", rec.SubjectName)
}

func TestPracticeSession(t *testing.T) {
	s := New(taipei).PracticeSession(csvsource.Row{
		"user_sn":    "4561",
		"prac_sn":    "7",
		"date":       "2024-01-10 08:15:00",
		"n_items":    "10",
		"n_correct":  "7",
		"acc":        "0.7",
		"avg_rt_sec": "abc",
	})

	require.NotNil(t, s.Date)
	assert.Equal(t, 8, s.Date.Hour())
	assert.Equal(t, int64(10), s.NItems)
	assert.Equal(t, 0.7, s.Accuracy)
	assert.Zero(t, s.AvgRTSec)
}

func TestQuizEventStripsOffset(t *testing.T) {
	e := New(taipei).QuizEvent(csvsource.Row{
		"user_sn":         "4561",
		"sn":              "3",
		"action_time":     "2024-01-10 23:59:59+08:00",
		"result_duration": "1分05秒",
		"result_success":  models.QuizResultCorrect,
		"mission_id":      "M1",
	})

	require.NotNil(t, e.ActionTime)
	assert.Equal(t, time.Date(2024, 1, 10, 23, 59, 59, 0, taipei), *e.ActionTime)
	assert.True(t, e.Correct())
	assert.Equal(t, "M1", e.MissionID)

	bad := New(taipei).QuizEvent(csvsource.Row{"action_time": "yesterday"})
	assert.Nil(t, bad.ActionTime)
	assert.False(t, bad.Correct())
}

func TestVideoSessionPlaceholders(t *testing.T) {
	v := New(nil).VideoSession(csvsource.Row{
		"user_sn":     "4561",
		"video_len":   "600",
		"finish_rate": "50",
		"start_time":  "2024-03-01 10:00:00",
	})

	assert.Equal(t, models.UnknownSubject, v.SubjectName)
	assert.Equal(t, models.UnnamedVideo, v.VideoName)
	assert.Equal(t, 300.0, v.EffectiveSeconds())
	assert.Equal(t, "2024-03-01", v.Day())
}

func TestMathDrill(t *testing.T) {
	m := New(taipei).MathDrill(csvsource.Row{
		"user_sn":       "4561",
		"is_correct":    "2",
		"game_time":     "4500",
		"last_modified": "2024-02-30 10:00:00",
		"unit_name":     "  ",
		"grade":         "x",
	})

	assert.Equal(t, 1, m.IsCorrect)
	require.NotNil(t, m.GameTimeMS)
	assert.Equal(t, 4500.0, *m.GameTimeMS)
	assert.Equal(t, "2024-02-30 10:00:00", m.LastModifiedRaw)
	assert.Nil(t, m.LastModified)
	assert.Equal(t, models.UnnamedUnit, m.UnitName)
	assert.Nil(t, m.Grade)
	assert.Nil(t, m.IsCorrectAvg)

	assert.Equal(t, 0, New(nil).MathDrill(csvsource.Row{"is_correct": "0.9"}).IsCorrect)
}

func TestIdentity(t *testing.T) {
	id := New(nil).Identity(csvsource.Row{
		"user_sn":         "4561",
		"organization_id": "3001",
		"grade":           "5",
		"math_score":      "",
		"english_score":   "91",
	})

	assert.Equal(t, "4561", id.Name)
	assert.Equal(t, "3001", id.ID)
	assert.Equal(t, int64(4561), id.StudentKey)
	assert.Equal(t, int64(3001), id.OrganizationID)
	assert.Zero(t, id.MathScore)
	assert.Equal(t, 91.0, id.EnglishScore)
}
