// Package catalogue holds the vehicle catalogue: loading, caching and filtering.
package catalogue

import (
	"strings"

	"github.com/autorent/autorent-platform/pkg/vehicle"
)

// AllTypes disables the category filter.
const AllTypes = "ALL"

// Snapshot is the ordered set of records currently displayed. It is replaced wholesale.
type Snapshot []vehicle.Record

// Lookup finds a record by id.
func (s Snapshot) Lookup(id string) (vehicle.Record, bool) {
	for _, r := range s {
		if r.ID == id {
			return r, true
		}
	}
	return vehicle.Record{}, false
}

// ByIDs returns the records whose id is in ids, in snapshot order.
func (s Snapshot) ByIDs(ids []string) Snapshot {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}

	out := make(Snapshot, 0, len(ids))
	for _, r := range s {
		if _, ok := want[r.ID]; ok {
			out = append(out, r)
		}
	}
	return out
}

// Counts returns the number of records per category. Every category is present.
func (s Snapshot) Counts() map[vehicle.Category]int {
	counts := make(map[vehicle.Category]int, len(vehicle.AllCategories()))
	for _, c := range vehicle.AllCategories() {
		counts[c] = 0
	}
	for _, r := range s {
		counts[r.Type]++
	}
	return counts
}

// Filter returns the records matching both the search query and the category.
// The query matches make, model or type case-insensitively; an empty query matches all.
// An empty category or "ALL" matches every type.
func Filter(s Snapshot, query, category string) Snapshot {
	q := strings.ToLower(query)
	out := make(Snapshot, 0, len(s))
	for _, r := range s {
		if q != "" && !matchesQuery(r, q) {
			continue
		}
		if category != "" && category != AllTypes && string(r.Type) != category {
			continue
		}
		out = append(out, r)
	}
	return out
}

func matchesQuery(r vehicle.Record, q string) bool {
	return strings.Contains(strings.ToLower(r.Make), q) ||
		strings.Contains(strings.ToLower(r.Model), q) ||
		strings.Contains(strings.ToLower(string(r.Type)), q)
}
