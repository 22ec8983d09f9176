package record

import "strings"

// AllStatuses is the filter sentinel accepted from transports for "no
// status filter".
const AllStatuses = "all"

// Filter selects records by status and free text. A zero Status matches
// every status and an empty Text matches every record; set fields combine
// with AND.
type Filter[S Status] struct {
	Status S
	Text   string
}

// Match reports whether r passes f. Text matching is a case-insensitive
// substring test over the record's flattened display text.
func Match[S Status, R Record[S, R]](f Filter[S], r R) bool {
	if f.Status != "" && r.RecordStatus() != f.Status {
		return false
	}
	q := strings.TrimSpace(f.Text)
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(r.SearchText()), strings.ToLower(q))
}

// Apply returns the records passing f without reordering. The input slice
// is not modified.
func Apply[S Status, R Record[S, R]](records []R, f Filter[S]) []R {
	out := make([]R, 0, len(records))
	for _, r := range records {
		if Match(f, r) {
			out = append(out, r)
		}
	}
	return out
}
