package analytics

// Scoped is implemented by every record that belongs to one student.
type Scoped interface {
	StudentKey() int64
}

// ScopeToStudent keeps the records whose key equals key. A zero key means no
// student is resolved and yields an empty result.
func ScopeToStudent[T Scoped](records []T, key int64) []T {
	out := make([]T, 0)
	if key == 0 {
		return out
	}
	for _, r := range records {
		if r.StudentKey() == key {
			out = append(out, r)
		}
	}
	return out
}

// Filter keeps the records for which keep reports true.
func Filter[T any](records []T, keep func(T) bool) []T {
	out := make([]T, 0, len(records))
	for _, r := range records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
