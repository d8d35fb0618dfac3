package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-insight-api/internal/models"
)

func TestCompareToClassCountsAbsentMembersAsZero(t *testing.T) {
	drills := []models.MathDrill{{UserSN: 1}, {UserSN: 1}, {UserSN: 1}, {UserSN: 2}}
	counts := CountPerStudent(drills)
	assert.Equal(t, map[int64]int{1: 3, 2: 1}, counts)

	cmp := CompareToClass("math", counts, 1, []int64{1, 2, 3})

	assert.Equal(t, "math", cmp.Label)
	assert.Equal(t, 3.0, cmp.Student)
	require.True(t, cmp.ClassAverage.Valid())
	assert.InDelta(t, 4.0/3.0, *cmp.ClassAverage.Value, 1e-9)
	assert.True(t, cmp.AboveAverage)

	empty := CompareToClass("math", counts, 1, nil)
	assert.False(t, empty.ClassAverage.Valid())
}

func TestWeekBucketsEndInclusive(t *testing.T) {
	end := time.Date(2024, 3, 7, 15, 30, 0, 0, time.UTC)

	starts := WeekBuckets(end, 2)

	require.Len(t, starts, 2)
	assert.Equal(t, time.Date(2024, 2, 23, 0, 0, 0, 0, time.UTC), starts[0])
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), starts[1])
	assert.Empty(t, WeekBuckets(end, 0))

	times := []time.Time{
		time.Date(2024, 2, 22, 23, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 23, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 7, 23, 59, 0, 0, time.UTC),
	}
	assert.Equal(t, []int{2, 1}, WeeklyCounts(times, starts))
}

func TestPercentileRank(t *testing.T) {
	population := []float64{0.2, 0.5, 0.5, 0.9}

	rank := PercentileRank(0.5, population)
	require.True(t, rank.Valid())
	assert.Equal(t, 75.0, *rank.Value)

	assert.Equal(t, 0.0, *PercentileRank(0.1, population).Value)
	assert.False(t, PercentileRank(0.5, nil).Valid())
	assert.Equal(t, []float64{0.2, 0.5, 0.5, 0.9}, population)
}
