package store_test

import (
	"testing"
	"time"

	"postscan/internal/store"
)

func TestStatusFromServer(t *testing.T) {
	cases := []struct {
		value    string
		expected store.Status
	}{
		{"pending", store.StatusPending},
		{"processing", store.StatusProcessing},
		{"processed", store.StatusProcessed},
		{"completed", store.StatusProcessed},
		{"failed", store.StatusFailed},
		{"PROCESSING", store.StatusProcessing},
		{"  failed  ", store.StatusFailed},
		{"quarantined", store.StatusPending},
		{"", store.StatusPending},
	}
	for _, tc := range cases {
		if got := store.StatusFromServer(tc.value); got != tc.expected {
			t.Errorf("StatusFromServer(%q) = %q, want %q", tc.value, got, tc.expected)
		}
	}
}

func TestMergeNeverRegressesTerminalStatus(t *testing.T) {
	cases := []struct {
		name     string
		from     store.Status
		to       store.Status
		expected store.Status
	}{
		{"processed to pending", store.StatusProcessed, store.StatusPending, store.StatusProcessed},
		{"processed to processing", store.StatusProcessed, store.StatusProcessing, store.StatusProcessed},
		{"failed to pending", store.StatusFailed, store.StatusPending, store.StatusFailed},
		{"processed to failed", store.StatusProcessed, store.StatusFailed, store.StatusProcessed},
		{"failed to processed", store.StatusFailed, store.StatusProcessed, store.StatusFailed},
		{"processing to pending", store.StatusProcessing, store.StatusPending, store.StatusProcessing},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := store.Record{ID: "s1", Status: tc.from, SenderName: "John Doe"}
			changed := rec.Merge(store.Record{ID: "s1", Status: tc.to, SenderName: "Jane Roe"})
			if changed {
				t.Fatal("expected merge to be rejected")
			}
			if rec.Status != tc.expected {
				t.Fatalf("status regressed to %q", rec.Status)
			}
			if rec.SenderName != "John Doe" {
				t.Fatalf("fields mutated on rejected merge: %q", rec.SenderName)
			}
		})
	}
}

func TestMergeAdoptsForwardTransition(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rec := store.Record{ID: "s1", Status: store.StatusPending, CreatedAt: created}

	update := store.Record{
		ID:            "s1",
		Status:        store.StatusProcessed,
		SenderName:    "John Doe",
		SenderAddress: "1 Main St",
		UpdatedAt:     created.Add(time.Hour),
	}
	if !rec.Merge(update) {
		t.Fatal("expected merge to report a change")
	}
	if rec.Status != store.StatusProcessed {
		t.Fatalf("unexpected status %q", rec.Status)
	}
	if rec.SenderName != "John Doe" || rec.SenderAddress != "1 Main St" {
		t.Fatalf("extracted fields not adopted: %+v", rec)
	}
	if !rec.UpdatedAt.Equal(created.Add(time.Hour)) {
		t.Fatalf("updated_at not adopted: %v", rec.UpdatedAt)
	}
}

func TestMergeIdenticalSnapshotReportsNoChange(t *testing.T) {
	rec := store.Record{ID: "s1", Status: store.StatusProcessing, SenderName: "John Doe"}
	if rec.Merge(store.Record{ID: "s1", Status: store.StatusProcessing, SenderName: "John Doe"}) {
		t.Fatal("identical snapshot must not report a change")
	}
}

func TestMergeDoesNotBlankFields(t *testing.T) {
	rec := store.Record{ID: "s1", Status: store.StatusProcessed, SenderName: "John Doe"}
	rec.Merge(store.Record{ID: "s1", Status: store.StatusProcessed})
	if rec.SenderName != "John Doe" {
		t.Fatalf("empty snapshot field overwrote local value: %q", rec.SenderName)
	}
}

func TestParseStatus(t *testing.T) {
	if _, ok := store.ParseStatus("completed"); ok {
		t.Fatal("completed is server vocabulary, not a local status")
	}
	if status, ok := store.ParseStatus(" Processed "); !ok || status != store.StatusProcessed {
		t.Fatalf("ParseStatus normalization broken: %q %v", status, ok)
	}
}

func TestSessionLoggedIn(t *testing.T) {
	var nilSession *store.Session
	if nilSession.LoggedIn() {
		t.Fatal("nil session must not report logged in")
	}
	if (&store.Session{UserID: "u1"}).LoggedIn() {
		t.Fatal("empty token must not report logged in")
	}
	if !(&store.Session{UserID: "u1", Token: "tok"}).LoggedIn() {
		t.Fatal("session with token must report logged in")
	}
}
