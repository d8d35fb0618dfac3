package analytics

import (
	"sort"
	"time"
)

// ClassComparison puts a student's value next to the class mean.
type ClassComparison struct {
	Label        string  `json:"label"`
	Student      float64 `json:"student"`
	ClassAverage Measure `json:"class_average"`
	AboveAverage bool    `json:"above_average"`
}

// CountPerStudent counts records per student key.
func CountPerStudent[T Scoped](records []T) map[int64]int {
	out := make(map[int64]int)
	for _, r := range records {
		out[r.StudentKey()]++
	}
	return out
}

// CompareToClass compares the student's count with the mean count over
// members. Members with no records count as zero.
func CompareToClass(label string, counts map[int64]int, student int64, members []int64) ClassComparison {
	values := make([]float64, 0, len(members))
	for _, m := range members {
		values = append(values, float64(counts[m]))
	}
	avg := MeanOf(values)
	own := float64(counts[student])
	return ClassComparison{
		Label:        label,
		Student:      own,
		ClassAverage: avg,
		AboveAverage: own >= avg.Or(0),
	}
}

// WeekBuckets returns the start of each of the weeks consecutive seven-day
// windows ending at end (inclusive), oldest first.
func WeekBuckets(end time.Time, weeks int) []time.Time {
	if weeks <= 0 {
		return []time.Time{}
	}
	last := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, end.Location()).AddDate(0, 0, -6)
	out := make([]time.Time, weeks)
	for i := 0; i < weeks; i++ {
		out[i] = last.AddDate(0, 0, -7*(weeks-1-i))
	}
	return out
}

// WeeklyCounts counts timestamps per week window produced by WeekBuckets.
// Timestamps outside every window are ignored.
func WeeklyCounts(times []time.Time, starts []time.Time) []int {
	counts := make([]int, len(starts))
	for _, t := range times {
		for i, start := range starts {
			if !t.Before(start) && t.Before(start.AddDate(0, 0, 7)) {
				counts[i]++
				break
			}
		}
	}
	return counts
}

// PercentileRank is the percentage of population values less than or equal
// to value, rounded to one decimal. An empty population is undefined.
func PercentileRank(value float64, population []float64) Measure {
	if len(population) == 0 {
		return Undefined()
	}
	sorted := append([]float64{}, population...)
	sort.Float64s(sorted)
	below := sort.Search(len(sorted), func(i int) bool { return sorted[i] > value })
	return Defined(Round(float64(below)/float64(len(sorted))*100, 1), len(sorted))
}
