package analytics

import (
	"sort"
)

// LabelValue is one point of a labelled series.
type LabelValue struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// LabelCount is one bar of a labelled count chart.
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// GroupStat is the accuracy of one label group.
type GroupStat struct {
	Label   string  `json:"label"`
	Correct int     `json:"correct"`
	Total   int     `json:"total"`
	Percent float64 `json:"percent"`
}

type grouping[V any] struct {
	order []string
	index map[string]*V
}

func newGrouping[V any]() *grouping[V] {
	return &grouping[V]{index: make(map[string]*V)}
}

func (g *grouping[V]) at(label string) *V {
	if v, ok := g.index[label]; ok {
		return v
	}
	v := new(V)
	g.index[label] = v
	g.order = append(g.order, label)
	return v
}

// GroupAccuracy tallies correct/total per label, converts each group to a
// percentage rounded to two decimals and sorts descending. Ties keep the
// first-seen order of their labels. Groups with no items are dropped.
func GroupAccuracy[T any](records []T, label func(T) string, tally func(T) (correct, total int)) []GroupStat {
	groups := newGrouping[GroupStat]()
	for _, r := range records {
		c, n := tally(r)
		g := groups.at(label(r))
		g.Correct += c
		g.Total += n
	}
	out := make([]GroupStat, 0, len(groups.order))
	for _, key := range groups.order {
		g := groups.index[key]
		if g.Total == 0 {
			continue
		}
		out = append(out, GroupStat{
			Label:   key,
			Correct: g.Correct,
			Total:   g.Total,
			Percent: Round(float64(g.Correct)/float64(g.Total)*100, 2),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Percent > out[j].Percent })
	return out
}

type meanAcc struct {
	sum float64
	n   int
}

// GroupMean averages the values value accepts per label, in first-seen label
// order. A label whose values were all rejected reports an undefined mean.
func GroupMean[T any](records []T, label func(T) string, value func(T) (float64, bool)) []LabelMeasure {
	groups := newGrouping[meanAcc]()
	for _, r := range records {
		g := groups.at(label(r))
		if v, ok := value(r); ok {
			g.sum += v
			g.n++
		}
	}
	out := make([]LabelMeasure, 0, len(groups.order))
	for _, key := range groups.order {
		g := groups.index[key]
		m := Undefined()
		if g.n > 0 {
			m = Defined(g.sum/float64(g.n), g.n)
		}
		out = append(out, LabelMeasure{Label: key, Measure: m})
	}
	return out
}

// LabelMeasure pairs a label with a possibly undefined mean.
type LabelMeasure struct {
	Label   string  `json:"label"`
	Measure Measure `json:"measure"`
}

// CountBy counts records per label in first-seen order.
func CountBy[T any](records []T, label func(T) string) []LabelCount {
	groups := newGrouping[int]()
	for _, r := range records {
		*groups.at(label(r))++
	}
	out := make([]LabelCount, 0, len(groups.order))
	for _, key := range groups.order {
		out = append(out, LabelCount{Label: key, Count: *groups.index[key]})
	}
	return out
}

// SumBy sums value per label in first-seen order.
func SumBy[T any](records []T, label func(T) string, value func(T) float64) []LabelValue {
	groups := newGrouping[float64]()
	for _, r := range records {
		*groups.at(label(r)) += value(r)
	}
	out := make([]LabelValue, 0, len(groups.order))
	for _, key := range groups.order {
		out = append(out, LabelValue{Label: key, Value: *groups.index[key]})
	}
	return out
}

// Distinct counts the distinct labels.
func Distinct[T any](records []T, label func(T) string) int {
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		seen[label(r)] = struct{}{}
	}
	return len(seen)
}

// TopN sorts a copy of values descending (stable) and keeps the first n.
// A non-positive n keeps everything.
func TopN(values []LabelValue, n int) []LabelValue {
	out := append([]LabelValue(nil), values...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value > out[j].Value })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	if out == nil {
		out = []LabelValue{}
	}
	return out
}

// SortByLabel sorts a copy of counts by label ascending.
func SortByLabel(counts []LabelCount) []LabelCount {
	out := append([]LabelCount{}, counts...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}
