package analytics

import (
	"sort"

	"github.com/noah-isme/student-insight-api/internal/models"
	"github.com/noah-isme/student-insight-api/pkg/coerce"
)

// CompletionBucketLabels names the fixed finish-rate quartiles.
var CompletionBucketLabels = []string{"0–25%", "25–50%", "50–75%", "75–100%"}

// CompletionBuckets counts sessions per finish-rate quartile. Buckets are
// half-open except the last, which also takes 100 and anything above it.
func CompletionBuckets(sessions []models.VideoSession) []LabelCount {
	counts := make([]int, len(CompletionBucketLabels))
	for _, s := range sessions {
		switch f := s.FinishRate; {
		case f < 25:
			counts[0]++
		case f < 50:
			counts[1]++
		case f < 75:
			counts[2]++
		default:
			counts[3]++
		}
	}
	out := make([]LabelCount, len(counts))
	for i, c := range counts {
		out[i] = LabelCount{Label: CompletionBucketLabels[i], Count: c}
	}
	return out
}

// EffectiveSecondsBy sums watched seconds per label and ranks them
// descending. n <= 0 keeps every label.
func EffectiveSecondsBy(sessions []models.VideoSession, label func(models.VideoSession) string, n int) []LabelValue {
	sums := SumBy(sessions, label, models.VideoSession.EffectiveSeconds)
	return TopN(sums, n)
}

// VideoDays lists the distinct session days in ascending order. Sessions
// with an unparsable start time are skipped.
func VideoDays(sessions []models.VideoSession) []string {
	seen := map[string]struct{}{}
	days := []string{}
	for _, s := range sessions {
		d := s.Day()
		if d == "" {
			continue
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		days = append(days, d)
	}
	sort.Strings(days)
	return days
}

// DailyViews counts sessions per day, sorted by day. Sessions without a
// start time are skipped.
func DailyViews(sessions []models.VideoSession) []LabelCount {
	withDay := Filter(sessions, func(s models.VideoSession) bool { return s.Day() != "" })
	return SortByLabel(CountBy(withDay, models.VideoSession.Day))
}

// FilterVideoDays keeps sessions whose start day lies in [from, to]. Blank
// bounds are open; sessions without a day are dropped once any bound is set.
func FilterVideoDays(sessions []models.VideoSession, from, to string) []models.VideoSession {
	r := ParseDateRange(from, to, nil)
	if r.IsZero() {
		return append([]models.VideoSession{}, sessions...)
	}
	return Filter(sessions, func(s models.VideoSession) bool {
		day, ok := coerce.ParseDate(s.Day(), coerce.LocalTime, nil)
		if !ok {
			return false
		}
		return r.Contains(&day)
	})
}

// BestSubject returns the subject with the highest mean finish rate, or "-"
// when there are no sessions. Ties go to the first-seen subject.
func BestSubject(sessions []models.VideoSession) string {
	means := GroupMean(sessions, func(s models.VideoSession) string { return s.SubjectName },
		func(s models.VideoSession) (float64, bool) { return s.FinishRate, true })
	best := "-"
	var bestValue float64
	for i, m := range means {
		if v := m.Measure.Or(0); i == 0 || v > bestValue {
			best, bestValue = m.Label, v
		}
	}
	return best
}

// FinishExtremes returns the sessions with the highest and lowest finish
// rate. ok is false for an empty input.
func FinishExtremes(sessions []models.VideoSession) (highest, lowest models.VideoSession, ok bool) {
	if len(sessions) == 0 {
		return highest, lowest, false
	}
	sorted := append([]models.VideoSession{}, sessions...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].FinishRate > sorted[j].FinishRate })
	return sorted[0], sorted[len(sorted)-1], true
}
