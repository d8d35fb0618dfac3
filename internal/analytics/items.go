package analytics

import "github.com/noah-isme/student-insight-api/internal/models"

// ItemTiming is one answered item with its correctness and answer time.
type ItemTiming struct {
	Correct bool    `json:"correct"`
	Seconds float64 `json:"seconds"`
}

// ZipItems pairs binary_res with items_ans_time index by index, stopping at
// the shorter sequence. mismatched reports how many trailing entries of the
// longer one were left unpaired.
func ZipItems(binary, times []float64) (items []ItemTiming, mismatched int) {
	n := len(binary)
	if len(times) < n {
		n = len(times)
	}
	items = make([]ItemTiming, n)
	for i := 0; i < n; i++ {
		items[i] = ItemTiming{Correct: binary[i] >= 1, Seconds: times[i]}
	}
	mismatched = len(binary) + len(times) - 2*n
	return items, mismatched
}

// ItemTimingSummary splits per-item answer time by correctness.
type ItemTimingSummary struct {
	Correct    Measure `json:"correct"`
	Wrong      Measure `json:"wrong"`
	Items      int     `json:"items"`
	Mismatched int     `json:"mismatched_records"`
}

// SummarizeItemTiming averages item answer times over all records. Records
// whose sequences differ in length are still used up to the shorter one and
// counted in Mismatched.
func SummarizeItemTiming(records []models.PracticeRecord) ItemTimingSummary {
	var correct, wrong []float64
	var summary ItemTimingSummary
	for _, r := range records {
		items, extra := ZipItems(r.BinaryRes, r.ItemsAnsTime)
		if extra > 0 {
			summary.Mismatched++
		}
		for _, it := range items {
			if it.Correct {
				correct = append(correct, it.Seconds)
			} else {
				wrong = append(wrong, it.Seconds)
			}
		}
		summary.Items += len(items)
	}
	summary.Correct = MeanOf(correct)
	summary.Wrong = MeanOf(wrong)
	return summary
}

// ItemTally counts correct and answered items of a practice record from its
// binary_res sequence.
func ItemTally(r models.PracticeRecord) (correct, total int) {
	for _, v := range r.BinaryRes {
		if v >= 1 {
			correct++
		}
	}
	return correct, len(r.BinaryRes)
}
