package analytics

import (
	"math"
	"strconv"
)

// DefaultWindow is the moving-average window used when none is configured.
const DefaultWindow = 7

// DefaultBins is the histogram bin count used when none is configured.
const DefaultBins = 10

// MovingAverage returns, for every index i, the mean of values[i-k+1..i]
// clipped at the start of the sequence. Early points average over fewer
// elements instead of padding with zeros.
func MovingAverage(values []float64, k int) []float64 {
	if k <= 0 {
		k = DefaultWindow
	}
	out := make([]float64, len(values))
	var sum float64
	for i, v := range values {
		sum += v
		if i >= k {
			sum -= values[i-k]
		}
		width := k
		if i+1 < k {
			width = i + 1
		}
		out[i] = sum / float64(width)
	}
	return out
}

// Histogram is an equal-width binning of a value set.
type Histogram struct {
	Counts []int    `json:"counts"`
	Labels []string `json:"labels"`
	Min    float64  `json:"min"`
	Width  float64  `json:"width"`
}

// BinValues splits [min,max] into bins equal-width bins. When every value is
// the same the width degrades to 1. Values at or above the upper edge land in
// the last bin. Non-finite values are ignored; an empty input yields an empty
// histogram.
func BinValues(values []float64, bins int) Histogram {
	if bins <= 0 {
		bins = DefaultBins
	}
	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return Histogram{Counts: []int{}, Labels: []string{}}
	}

	lo, hi := finite[0], finite[0]
	for _, v := range finite[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	width := (hi - lo) / float64(bins)
	if width == 0 {
		width = 1
	}

	counts := make([]int, bins)
	for _, v := range finite {
		idx := int(math.Floor((v - lo) / width))
		if idx >= bins {
			idx = bins - 1
		}
		if idx < 0 {
			idx = 0
		}
		counts[idx]++
	}

	labels := make([]string, bins)
	for i := range labels {
		labels[i] = formatEdge(lo+float64(i)*width) + "~" + formatEdge(lo+float64(i+1)*width)
	}
	return Histogram{Counts: counts, Labels: labels, Min: lo, Width: width}
}

func formatEdge(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
