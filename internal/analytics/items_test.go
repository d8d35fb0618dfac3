package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-insight-api/internal/models"
)

func TestZipItemsStopsAtShorter(t *testing.T) {
	items, extra := ZipItems([]float64{1, 0, 1}, []float64{4, 6})

	require.Len(t, items, 2)
	assert.Equal(t, ItemTiming{Correct: true, Seconds: 4}, items[0])
	assert.Equal(t, ItemTiming{Correct: false, Seconds: 6}, items[1])
	assert.Equal(t, 1, extra)

	items, extra = ZipItems(nil, nil)
	assert.Empty(t, items)
	assert.Zero(t, extra)
}

func TestSummarizeItemTiming(t *testing.T) {
	records := []models.PracticeRecord{
		{BinaryRes: []float64{1, 0}, ItemsAnsTime: []float64{4, 10}},
		{BinaryRes: []float64{1, 1, 0}, ItemsAnsTime: []float64{6, 8}},
	}
	s := SummarizeItemTiming(records)

	assert.Equal(t, 4, s.Items)
	assert.Equal(t, 1, s.Mismatched)
	assert.Equal(t, 6.0, *s.Correct.Value)
	assert.Equal(t, 10.0, *s.Wrong.Value)

	empty := SummarizeItemTiming(nil)
	assert.False(t, empty.Correct.Valid())
	assert.False(t, empty.Wrong.Valid())
}

func TestClassComparisonAndPercentile(t *testing.T) {
	records := []models.PracticeRecord{{UserSN: 1}, {UserSN: 1}, {UserSN: 1}, {UserSN: 2}}
	counts := CountPerStudent(records)

	cmp := CompareToClass("practice", counts, 1, []int64{1, 2, 3})
	assert.Equal(t, 3.0, cmp.Student)
	assert.Equal(t, 4.0/3.0, *cmp.ClassAverage.Value)
	assert.True(t, cmp.AboveAverage)

	none := CompareToClass("practice", counts, 1, nil)
	assert.False(t, none.ClassAverage.Valid())

	assert.Equal(t, 75.0, *PercentileRank(80, []float64{60, 80, 70, 90}).Value)
	assert.False(t, PercentileRank(80, nil).Valid())
}

func TestWeeklyCounts(t *testing.T) {
	end := time.Date(2024, 3, 14, 15, 0, 0, 0, time.UTC)
	starts := WeekBuckets(end, 2)

	require.Len(t, starts, 2)
	assert.Equal(t, time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC), starts[1])
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), starts[0])

	times := []time.Time{
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 7, 23, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 14, 23, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, []int{2, 1}, WeeklyCounts(times, starts))
	assert.Empty(t, WeekBuckets(end, 0))
}
