package history

import "sort"

// Snapshot is one entry in a provider value-history sequence. Label is the
// provider's chronological key (an ISO date or a season string) and Value is
// carried opaquely; the ingestion core never interprets it.
type Snapshot struct {
	Label string `json:"label"`
	Value any    `json:"value"`
}

// SortChronological returns a copy ordered by label. Labels are ISO-like
// strings, so lexical order is chronological order.
func SortChronological(items []Snapshot) []Snapshot {
	if len(items) == 0 {
		return nil
	}

	out := make([]Snapshot, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Label < out[j].Label
	})

	return out
}
