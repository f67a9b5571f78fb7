// Package history derives sorted, filtered views of scan records for
// presentation. Projections are pure: identical inputs always yield the same
// output order, and ties on creation time keep their incoming order.
package history

import (
	"fmt"
	"sort"
	"strings"

	"postscan/internal/store"
)

// SortKey selects the ordering of a projection.
type SortKey int

const (
	SortNewestFirst SortKey = iota
	SortOldestFirst
	SortByStatus
)

// Filter selects which records participate in a projection.
type Filter int

const (
	FilterAll Filter = iota
	FilterProcessed
	// FilterActive keeps pending and processing records.
	FilterActive
	FilterFailed
)

// statusRank fixes the display ordering used by SortByStatus: actionable
// work first, finished work last. The ordering is total and stable:
// pending < processing < failed < processed.
var statusRank = map[store.Status]int{
	store.StatusPending:    0,
	store.StatusProcessing: 1,
	store.StatusFailed:     2,
	store.StatusProcessed:  3,
}

// ParseSortKey maps a CLI flag value onto a SortKey.
func ParseSortKey(value string) (SortKey, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "newest":
		return SortNewestFirst, nil
	case "oldest":
		return SortOldestFirst, nil
	case "status":
		return SortByStatus, nil
	default:
		return 0, fmt.Errorf("unknown sort %q (expected newest, oldest, or status)", value)
	}
}

// ParseFilter maps a CLI flag value onto a Filter.
func ParseFilter(value string) (Filter, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "all":
		return FilterAll, nil
	case "processed":
		return FilterProcessed, nil
	case "active":
		return FilterActive, nil
	case "failed":
		return FilterFailed, nil
	default:
		return 0, fmt.Errorf("unknown filter %q (expected all, processed, active, or failed)", value)
	}
}

func (f Filter) keeps(status store.Status) bool {
	switch f {
	case FilterProcessed:
		return status == store.StatusProcessed
	case FilterActive:
		return status.Active()
	case FilterFailed:
		return status == store.StatusFailed
	default:
		return true
	}
}

// Project filters then sorts the given records. Filtering happens first so
// the length of the result is the count to display. The input slice is not
// modified.
func Project(records []store.Record, key SortKey, filter Filter) []store.Record {
	projected := make([]store.Record, 0, len(records))
	for _, rec := range records {
		if filter.keeps(rec.Status) {
			projected = append(projected, rec)
		}
	}

	switch key {
	case SortOldestFirst:
		sort.SliceStable(projected, func(i, j int) bool {
			return projected[i].CreatedAt.Before(projected[j].CreatedAt)
		})
	case SortByStatus:
		sort.SliceStable(projected, func(i, j int) bool {
			return statusRank[projected[i].Status] < statusRank[projected[j].Status]
		})
	default:
		sort.SliceStable(projected, func(i, j int) bool {
			return projected[i].CreatedAt.After(projected[j].CreatedAt)
		})
	}
	return projected
}
