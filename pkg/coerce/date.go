package coerce

import (
	"regexp"
	"strings"
	"time"
)

// DateFormat describes how a data source writes its timestamps.
type DateFormat struct {
	// Layouts are tried in order after separators are normalised to
	// "YYYY-MM-DD HH:MM:SS".
	Layouts []string
	// StripOffset removes a trailing "+HH:MM" / "-HH:MM" before parsing; the
	// wall-clock value is then read in the caller's location.
	StripOffset bool
}

var defaultLayouts = []string{
	"2006-1-2 15:04:05",
	"2006-1-2 15:04",
	"2006-1-2",
}

var offsetSuffix = regexp.MustCompile(`[+-]\d{2}:\d{2}$`)

var (
	// LocalTime covers "2024-01-10", "2024/1/10", "2024-01-10 08:30:00" and
	// "2024-01-10T08:30:00".
	LocalTime = DateFormat{Layouts: defaultLayouts}
	// OffsetTime additionally drops the UTC offset quiz logs append, as in
	// "2024-01-10 08:30:00+08:00".
	OffsetTime = DateFormat{Layouts: defaultLayouts, StripOffset: true}
)

// ParseDate parses s according to format in loc (UTC when nil). Values that
// are not real calendar dates, such as 2024-02-30, report ok == false.
func ParseDate(s string, format DateFormat, loc *time.Location) (time.Time, bool) {
	clean := strings.TrimSpace(s)
	if clean == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	if format.StripOffset {
		clean = offsetSuffix.ReplaceAllString(clean, "")
	}
	clean = strings.ReplaceAll(clean, "/", "-")
	clean = strings.Replace(clean, "T", " ", 1)

	layouts := format.Layouts
	if len(layouts) == 0 {
		layouts = defaultLayouts
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, clean, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DatePtr is ParseDate with nil standing for "no value".
func DatePtr(s string, format DateFormat, loc *time.Location) *time.Time {
	t, ok := ParseDate(s, format, loc)
	if !ok {
		return nil
	}
	return &t
}

// DayLayout is the canonical day key format.
const DayLayout = "2006-01-02"

// DayKey returns the calendar day of raw as "YYYY-MM-DD", or "" when raw does
// not parse. "2024/1/9 08:00" and "2024-01-09" share one key, so keys sort
// chronologically as strings.
func DayKey(raw string, format DateFormat) string {
	t, ok := ParseDate(DayPart(raw), format, nil)
	if !ok {
		return ""
	}
	return t.Format(DayLayout)
}

// DayPart returns the "YYYY-MM-DD" prefix of a raw timestamp string.
func DayPart(raw string) string {
	s := strings.TrimSpace(raw)
	if i := strings.IndexAny(s, " T"); i >= 0 {
		s = s[:i]
	}
	return s
}
