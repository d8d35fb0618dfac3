// Package coerce converts loosely typed spreadsheet cells into typed values.
//
// Every function is total: malformed input yields a zero value or a false ok
// flag, never an error or a panic.
package coerce

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ItemDelimiter separates per-item values inside a single practice cell.
const ItemDelimiter = "@XX@"

var minuteSecondPattern = regexp.MustCompile(`(\d+)分\s*(\d+)秒`)

// Number parses a trimmed decimal value. Empty, non-numeric and non-finite
// input reports ok == false.
func Number(v string) (float64, bool) {
	s := strings.TrimSpace(v)
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// NumberPtr is Number with nil standing for "no value".
func NumberPtr(v string) *float64 {
	n, ok := Number(v)
	if !ok {
		return nil
	}
	return &n
}

// NumberOr returns fallback when v does not parse.
func NumberOr(v string, fallback float64) float64 {
	if n, ok := Number(v); ok {
		return n
	}
	return fallback
}

// Integer parses the leading base-10 integer of v, ignoring any trailing
// fraction or text ("12.7" and "12kg" both yield 12).
func Integer(v string) (int64, bool) {
	s := strings.TrimSpace(v)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// IntegerPtr is Integer with nil standing for "no value".
func IntegerPtr(v string) *int64 {
	n, ok := Integer(v)
	if !ok {
		return nil
	}
	return &n
}

// IntegerOr returns fallback when v does not parse.
func IntegerOr(v string, fallback int64) int64 {
	if n, ok := Integer(v); ok {
		return n
	}
	return fallback
}

// BinaryFlag maps any numeric value >= 1 to 1 and everything else to 0.
// The coercion is lossy on purpose: "2" and "1.5" both count as correct.
func BinaryFlag(v string) int {
	if n, ok := Number(v); ok && n >= 1 {
		return 1
	}
	return 0
}

// SplitNumbers splits s on the literal delimiter and keeps the tokens that
// parse as numbers. Unparsable tokens are dropped, so the result can be
// shorter than the number of tokens.
func SplitNumbers(s, delimiter string) []float64 {
	out := []float64{}
	if strings.TrimSpace(s) == "" {
		return out
	}
	if delimiter == "" {
		delimiter = ItemDelimiter
	}
	for _, token := range strings.Split(s, delimiter) {
		if n, ok := Number(token); ok {
			out = append(out, n)
		}
	}
	return out
}

// MinuteSeconds converts a "<m>分<s>秒" duration label into seconds. Labels
// that do not match the pattern count as zero seconds.
func MinuteSeconds(label string) int {
	parts := minuteSecondPattern.FindStringSubmatch(label)
	if parts == nil {
		return 0
	}
	minutes, _ := strconv.Atoi(parts[1])
	seconds, _ := strconv.Atoi(parts[2])
	return minutes*60 + seconds
}

// Text trims v and substitutes placeholder when nothing is left.
func Text(v, placeholder string) string {
	if s := strings.TrimSpace(v); s != "" {
		return s
	}
	return placeholder
}
