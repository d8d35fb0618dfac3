package service

import (
	"context"
	"sort"
	"time"

	"github.com/noah-isme/student-insight-api/internal/analytics"
	"github.com/noah-isme/student-insight-api/internal/dto"
	"github.com/noah-isme/student-insight-api/internal/models"
	"github.com/noah-isme/student-insight-api/pkg/coerce"
)

// Activity labels of the overview comparison.
const (
	ActivityPractice = "practice"
	ActivityQuiz     = "quiz"
	ActivityVideo    = "video"
	ActivityMath     = "math"
)

// Overview compares the student's activity with the classmates that share
// their organization, grade and class in the practice feed.
func (s *InsightService) Overview(ctx context.Context, student *models.StudentClaims) (*dto.OverviewResponse, bool, error) {
	if err := requireStudent(student); err != nil {
		return nil, false, err
	}
	snap := s.datasets.LoadAll(ctx)
	resp := buildOverview(student, snap, s.now().In(s.loc), s.cfg.TrendWeeks, s.loc)
	return &resp, snap.CacheHit, nil
}

func buildOverview(student *models.StudentClaims, snap Snapshot, now time.Time, weeks int, loc *time.Location) dto.OverviewResponse {
	key := student.StudentKey
	members := classMembers(snap.Practice, student)

	resp := dto.OverviewResponse{
		StudentKey: key,
		Classmates: len(members),
		Activity: []analytics.ClassComparison{
			analytics.CompareToClass(ActivityPractice, analytics.CountPerStudent(snap.Practice), key, members),
			analytics.CompareToClass(ActivityQuiz, analytics.CountPerStudent(snap.Quiz), key, members),
			analytics.CompareToClass(ActivityVideo, analytics.CountPerStudent(snap.Video), key, members),
			analytics.CompareToClass(ActivityMath, analytics.CountPerStudent(snap.Math), key, members),
		},
		WeeklyTrend:         weeklyTrend(snap, members, key, now, weeks, loc),
		ScoreRatePercentile: scoreRatePercentile(snap.Practice, members, key),
	}
	if own := analytics.ScopeToStudent(snap.Practice, key); len(own) > 0 {
		resp.Baseline = dto.BaselineScores{
			Chinese: own[0].ChineseScore,
			Math:    own[0].MathScore,
			English: own[0].EnglishScore,
		}
	}
	return resp
}

// classMembers lists the distinct student keys of the student's class in
// ascending order. The student is always a member unless their key is zero.
func classMembers(records []models.PracticeRecord, student *models.StudentClaims) []int64 {
	seen := map[int64]struct{}{}
	if student.StudentKey != 0 {
		seen[student.StudentKey] = struct{}{}
	}
	for _, r := range records {
		if r.UserSN == 0 {
			continue
		}
		if r.OrganizationID == student.OrganizationID && r.Grade == student.Grade && r.Class == student.Class {
			seen[r.UserSN] = struct{}{}
		}
	}
	members := make([]int64, 0, len(seen))
	for k := range seen {
		members = append(members, k)
	}
	sort.Slice(members, func(i, j int) bool { return members[i] < members[j] })
	return members
}

func weeklyTrend(snap Snapshot, members []int64, key int64, now time.Time, weeks int, loc *time.Location) dto.WeeklyTrend {
	starts := analytics.WeekBuckets(now, weeks)
	activity := activityTimes(snap, loc)

	trend := dto.WeeklyTrend{
		Weeks:        make([]string, len(starts)),
		Student:      analytics.WeeklyCounts(activity[key], starts),
		ClassAverage: make([]float64, len(starts)),
	}
	for i, start := range starts {
		trend.Weeks[i] = start.Format("2006-01-02")
	}
	if len(members) == 0 {
		return trend
	}
	for _, m := range members {
		for i, c := range analytics.WeeklyCounts(activity[m], starts) {
			trend.ClassAverage[i] += float64(c)
		}
	}
	for i := range trend.ClassAverage {
		trend.ClassAverage[i] = analytics.Round(trend.ClassAverage[i]/float64(len(members)), 2)
	}
	return trend
}

// activityTimes gathers every dated record per student across the feeds.
func activityTimes(snap Snapshot, loc *time.Location) map[int64][]time.Time {
	out := map[int64][]time.Time{}
	add := func(key int64, t *time.Time) {
		if t != nil {
			out[key] = append(out[key], *t)
		}
	}
	for _, r := range snap.Practice {
		add(r.UserSN, r.Date)
	}
	for _, e := range snap.Quiz {
		add(e.UserSN, e.ActionTime)
	}
	for _, m := range snap.Math {
		add(m.UserSN, m.LastModified)
	}
	for _, v := range snap.Video {
		if t, ok := coerce.ParseDate(v.StartTime, coerce.LocalTime, loc); ok {
			add(v.UserSN, &t)
		}
	}
	return out
}

func scoreRatePercentile(records []models.PracticeRecord, members []int64, key int64) analytics.Measure {
	byStudent := map[int64][]float64{}
	for _, r := range records {
		if r.ScoreRate != nil {
			byStudent[r.UserSN] = append(byStudent[r.UserSN], *r.ScoreRate)
		}
	}
	own := analytics.MeanOf(byStudent[key])
	if !own.Valid() {
		return analytics.Undefined()
	}
	population := make([]float64, 0, len(members))
	for _, m := range members {
		if mean := analytics.MeanOf(byStudent[m]); mean.Valid() {
			population = append(population, *mean.Value)
		}
	}
	return analytics.PercentileRank(*own.Value, population)
}
