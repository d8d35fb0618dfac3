package analytics

import (
	"sort"
	"strings"
	"time"

	"github.com/noah-isme/student-insight-api/pkg/coerce"
)

// Dated is implemented by records that carry an optional timestamp.
type Dated interface {
	When() *time.Time
}

// DateRange bounds a view inclusively. A nil bound is open.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// IsZero reports whether neither bound is set.
func (r DateRange) IsZero() bool {
	return r.From == nil && r.To == nil
}

// Contains reports whether t lies within the range. An undated record is
// never inside a bounded range.
func (r DateRange) Contains(t *time.Time) bool {
	if r.IsZero() {
		return true
	}
	if t == nil {
		return false
	}
	if r.From != nil && t.Before(*r.From) {
		return false
	}
	if r.To != nil && t.After(*r.To) {
		return false
	}
	return true
}

// ParseDateRange builds a range from "YYYY-MM-DD" bounds. from starts at
// 00:00:00 and to runs through 23:59:59 of its day. Blank or unparsable
// bounds stay open.
func ParseDateRange(from, to string, loc *time.Location) DateRange {
	var r DateRange
	if t, ok := coerce.ParseDate(coerce.DayPart(from), coerce.LocalTime, loc); ok {
		r.From = &t
	}
	if t, ok := coerce.ParseDate(coerce.DayPart(to), coerce.LocalTime, loc); ok {
		end := time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
		r.To = &end
	}
	return r
}

// FilterByDate keeps the records inside r. An open range keeps everything,
// undated records included.
func FilterByDate[T Dated](records []T, r DateRange) []T {
	return Filter(records, func(rec T) bool { return r.Contains(rec.When()) })
}

// SortChronological returns a copy ordered oldest first. Undated records sort
// as the zero time, ahead of everything dated.
func SortChronological[T Dated](records []T) []T {
	out := append([]T{}, records...)
	sort.SliceStable(out, func(i, j int) bool {
		return unixOrZero(out[i].When()) < unixOrZero(out[j].When())
	})
	return out
}

// Reverse returns a reversed copy.
func Reverse[T any](records []T) []T {
	out := make([]T, len(records))
	for i, r := range records {
		out[len(records)-1-i] = r
	}
	return out
}

// MatchKeyword keeps records whose text contains kw, ignoring case. A blank
// keyword keeps everything.
func MatchKeyword[T any](records []T, text func(T) string, kw string) []T {
	needle := strings.ToLower(strings.TrimSpace(kw))
	if needle == "" {
		return append([]T{}, records...)
	}
	return Filter(records, func(r T) bool {
		return strings.Contains(strings.ToLower(text(r)), needle)
	})
}

func unixOrZero(t *time.Time) int64 {
	if t == nil {
		return 0
	}
	return t.UnixMilli()
}
