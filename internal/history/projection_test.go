package history_test

import (
	"reflect"
	"testing"
	"time"

	"postscan/internal/history"
	"postscan/internal/store"
)

func rec(id string, status store.Status, day int) store.Record {
	return store.Record{
		ID:        id,
		Status:    status,
		CreatedAt: time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC),
	}
}

func ids(records []store.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func TestProjectNewestFirst(t *testing.T) {
	records := []store.Record{
		rec("a", store.StatusPending, 1),
		rec("b", store.StatusPending, 3),
		rec("c", store.StatusPending, 2),
	}
	got := ids(history.Project(records, history.SortNewestFirst, history.FilterAll))
	if !reflect.DeepEqual(got, []string{"b", "c", "a"}) {
		t.Fatalf("unexpected order: %v", got)
	}
}

func TestProjectOldestFirst(t *testing.T) {
	records := []store.Record{
		rec("a", store.StatusPending, 2),
		rec("b", store.StatusPending, 1),
	}
	got := ids(history.Project(records, history.SortOldestFirst, history.FilterAll))
	if !reflect.DeepEqual(got, []string{"b", "a"}) {
		t.Fatalf("unexpected order: %v", got)
	}
}

func TestProjectByStatusRank(t *testing.T) {
	records := []store.Record{
		rec("done", store.StatusProcessed, 1),
		rec("bad", store.StatusFailed, 2),
		rec("new", store.StatusPending, 3),
		rec("busy", store.StatusProcessing, 4),
	}
	got := ids(history.Project(records, history.SortByStatus, history.FilterAll))
	if !reflect.DeepEqual(got, []string{"new", "busy", "bad", "done"}) {
		t.Fatalf("unexpected rank order: %v", got)
	}
}

func TestProjectFiltersBeforeSorting(t *testing.T) {
	records := []store.Record{
		rec("a", store.StatusProcessed, 1),
		rec("b", store.StatusPending, 2),
		rec("c", store.StatusFailed, 3),
	}
	got := history.Project(records, history.SortNewestFirst, history.FilterActive)
	if len(got) != 1 || got[0].ID != "b" {
		t.Fatalf("expected exactly the pending day-2 record, got %v", ids(got))
	}
}

func TestProjectFilteredCountMatchesLength(t *testing.T) {
	records := []store.Record{
		rec("a", store.StatusProcessed, 1),
		rec("b", store.StatusProcessed, 2),
		rec("c", store.StatusFailed, 3),
	}
	got := history.Project(records, history.SortNewestFirst, history.FilterProcessed)
	if len(got) != 2 {
		t.Fatalf("filtered count must be 2, got %d", len(got))
	}
}

func TestProjectDeterministicAndStableOnTies(t *testing.T) {
	// Same CreatedAt everywhere; stable sort must preserve input order.
	records := []store.Record{
		rec("a", store.StatusPending, 1),
		rec("b", store.StatusPending, 1),
		rec("c", store.StatusPending, 1),
	}
	first := ids(history.Project(records, history.SortNewestFirst, history.FilterAll))
	second := ids(history.Project(records, history.SortNewestFirst, history.FilterAll))
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("projection not deterministic: %v vs %v", first, second)
	}
	if !reflect.DeepEqual(first, []string{"a", "b", "c"}) {
		t.Fatalf("tie order not stable: %v", first)
	}
}

func TestProjectDoesNotMutateInput(t *testing.T) {
	records := []store.Record{
		rec("a", store.StatusPending, 1),
		rec("b", store.StatusPending, 3),
		rec("c", store.StatusPending, 2),
	}
	_ = history.Project(records, history.SortNewestFirst, history.FilterAll)
	if !reflect.DeepEqual(ids(records), []string{"a", "b", "c"}) {
		t.Fatalf("input slice mutated: %v", ids(records))
	}
}

func TestParseSortKeyAndFilter(t *testing.T) {
	if _, err := history.ParseSortKey("sideways"); err == nil {
		t.Fatal("expected error for unknown sort")
	}
	if _, err := history.ParseFilter("everything"); err == nil {
		t.Fatal("expected error for unknown filter")
	}
	key, err := history.ParseSortKey("")
	if err != nil || key != history.SortNewestFirst {
		t.Fatalf("empty sort must default to newest: %v %v", key, err)
	}
	filter, err := history.ParseFilter("Active")
	if err != nil || filter != history.FilterActive {
		t.Fatalf("filter parsing broken: %v %v", filter, err)
	}
}
