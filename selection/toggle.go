// Package selection implements the user's favorites, compare list and recently viewed vehicles.
package selection

// Toggle removes id from ids if present, otherwise appends it when there is room.
// max <= 0 means unbounded. An add at capacity is rejected and ids is returned as is.
// The input slice is never modified.
func Toggle(ids []string, id string, max int) (next []string, changed, rejected bool) {
	for i, existing := range ids {
		if existing == id {
			next = make([]string, 0, len(ids)-1)
			next = append(next, ids[:i]...)
			next = append(next, ids[i+1:]...)
			return next, true, false
		}
	}

	if max > 0 && len(ids) >= max {
		return ids, false, true
	}

	next = make([]string, 0, len(ids)+1)
	next = append(next, ids...)
	next = append(next, id)
	return next, true, false
}

// dedupe drops repeated ids keeping first occurrences, then truncates to max.
func dedupe(ids []string, max int) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	if max > 0 && len(out) > max {
		out = out[:max]
	}
	return out
}
