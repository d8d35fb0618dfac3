// Package analytics derives per-student statistics from normalized records.
//
// Every function is pure and tolerates empty input. Means over zero records
// come back as an undefined Measure rather than zero or NaN, so callers can
// tell "no data" apart from "0%".
package analytics
