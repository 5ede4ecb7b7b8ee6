package match

// Interleave merges two resolved charts into a single blend tracklist. Rows
// alternate in lock-step, first chart leading, and every track id appears at
// most once. Unmatched rows contribute nothing, and a duplicate id is
// skipped without consuming the other chart's slot.
func Interleave(first, second []ResolvedEntry) BlendResult {
	a := TrackIDs(first)
	b := TrackIDs(second)

	result := BlendResult{IDs: make([]string, 0, len(a)+len(b))}
	seen := make(map[string]struct{}, len(a)+len(b))

	take := func(id string) {
		if _, dup := seen[id]; dup {
			result.Dropped++
			return
		}
		seen[id] = struct{}{}
		result.IDs = append(result.IDs, id)
	}

	for i := 0; i < len(a) || i < len(b); i++ {
		if i < len(a) {
			take(a[i])
		}
		if i < len(b) {
			take(b[i])
		}
	}

	return result
}

// TrackIDs extracts the matched ids from a resolved chart in rank order.
func TrackIDs(entries []ResolvedEntry) []string {
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Matched() {
			ids = append(ids, e.MatchedID)
		}
	}
	return ids
}
