package analytics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-insight-api/internal/models"
)

func TestAccuracyAndMeanOnEmptyInputAreUndefined(t *testing.T) {
	acc := Accuracy([]models.MathDrill{}, func(m models.MathDrill) bool { return m.IsCorrect == 1 })
	dur := Mean([]models.MathDrill{}, func(m models.MathDrill) float64 { return 1 })

	assert.False(t, acc.Valid())
	assert.False(t, dur.Valid())
	assert.Zero(t, acc.N)
	assert.Equal(t, "-", FormatPercent(acc, 1))
	assert.Equal(t, "-", FormatSeconds(dur, 1))
	assert.Equal(t, 0.0, acc.Or(0))
}

func TestAccuracyCountsCorrect(t *testing.T) {
	drills := []models.MathDrill{{IsCorrect: 1}, {IsCorrect: 0}, {IsCorrect: 1}, {IsCorrect: 1}}
	acc := Accuracy(drills, func(m models.MathDrill) bool { return m.IsCorrect == 1 })

	require.True(t, acc.Valid())
	assert.Equal(t, 0.75, *acc.Value)
	assert.Equal(t, 4, acc.N)
	assert.Equal(t, "75.0%", FormatPercent(acc, 1))
}

func TestMeanConvertsAtBoundary(t *testing.T) {
	ms := []float64{1500, 2500}
	m := Mean(ms, func(v float64) float64 { return v / 1000 })

	assert.Equal(t, "2.0s", FormatSeconds(m, 1))
	assert.Equal(t, 2000.0, *MeanOf(ms).Value)
	assert.Equal(t, 200.0, *Defined(2, 1).Scale(100).Value)
	assert.False(t, Undefined().Scale(100).Valid())
}

func TestRound(t *testing.T) {
	assert.Equal(t, 66.67, Round(200.0/3, 2))
	assert.Equal(t, 3.0, Round(2.5, 0))
	assert.Equal(t, 0.0, Round(math.NaN(), 2))
}
