package analytics

import (
	"math"
	"strconv"
)

// Measure is a mean over N records. Value is nil when N is zero.
type Measure struct {
	Value *float64 `json:"value"`
	N     int      `json:"n"`
}

// Undefined is the result of a mean over no records.
func Undefined() Measure {
	return Measure{}
}

// Defined wraps a computed mean.
func Defined(v float64, n int) Measure {
	return Measure{Value: &v, N: n}
}

// Valid reports whether the measure carries a value.
func (m Measure) Valid() bool {
	return m.Value != nil
}

// Or returns the value, or fallback when undefined.
func (m Measure) Or(fallback float64) float64 {
	if m.Value == nil {
		return fallback
	}
	return *m.Value
}

// Scale multiplies a defined value by f.
func (m Measure) Scale(f float64) Measure {
	if m.Value == nil {
		return m
	}
	return Defined(*m.Value*f, m.N)
}

// Accuracy is the share of records for which correct reports true.
func Accuracy[T any](records []T, correct func(T) bool) Measure {
	if len(records) == 0 {
		return Undefined()
	}
	hits := 0
	for _, r := range records {
		if correct(r) {
			hits++
		}
	}
	return Defined(float64(hits)/float64(len(records)), len(records))
}

// Mean averages value over every record.
func Mean[T any](records []T, value func(T) float64) Measure {
	if len(records) == 0 {
		return Undefined()
	}
	var sum float64
	for _, r := range records {
		sum += value(r)
	}
	return Defined(sum/float64(len(records)), len(records))
}

// MeanOf averages a plain slice.
func MeanOf(values []float64) Measure {
	return Mean(values, func(v float64) float64 { return v })
}

// Round rounds x half away from zero to the given number of decimals.
func Round(x float64, digits int) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	p := math.Pow10(digits)
	return math.Round(x*p) / p
}

// FormatPercent renders a 0..1 ratio as "12.3%", or "-" when undefined.
func FormatPercent(m Measure, digits int) string {
	if !m.Valid() {
		return "-"
	}
	return strconv.FormatFloat(*m.Value*100, 'f', digits, 64) + "%"
}

// FormatSeconds renders a duration in seconds as "4.5s", or "-" when undefined.
func FormatSeconds(m Measure, digits int) string {
	if !m.Valid() {
		return "-"
	}
	return strconv.FormatFloat(*m.Value, 'f', digits, 64) + "s"
}

// Rounded rounds a defined value to the given number of decimals.
func (m Measure) Rounded(digits int) Measure {
	if m.Value == nil {
		return m
	}
	return Defined(Round(*m.Value, digits), m.N)
}
