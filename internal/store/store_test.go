package store_test

import (
	"context"
	"testing"
	"time"

	"postscan/internal/store"
	"postscan/internal/testsupport"
)

func day(n int) time.Time {
	return time.Date(2024, 1, n, 0, 0, 0, 0, time.UTC)
}

func TestSaveAndGetScan(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	rec := &store.Record{
		ID:        "s1",
		Status:    store.StatusPending,
		ImagePath: "/tmp/letter.jpg",
		ImageKey:  "uploads/k1",
		CreatedAt: day(1),
		UpdatedAt: day(1),
	}
	if err := st.SaveScan(ctx, rec); err != nil {
		t.Fatalf("SaveScan failed: %v", err)
	}

	fetched, err := st.GetScan(ctx, "s1")
	if err != nil {
		t.Fatalf("GetScan failed: %v", err)
	}
	if fetched == nil || fetched.ImageKey != "uploads/k1" || fetched.Status != store.StatusPending {
		t.Fatalf("unexpected record: %+v", fetched)
	}
	if !fetched.CreatedAt.Equal(day(1)) {
		t.Fatalf("created_at round trip broken: %v", fetched.CreatedAt)
	}
}

func TestGetScanMissingReturnsNil(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	rec, err := st.GetScan(context.Background(), "nope")
	if err != nil {
		t.Fatalf("GetScan failed: %v", err)
	}
	if rec != nil {
		t.Fatalf("expected nil for missing record, got %+v", rec)
	}
}

func TestSaveScanRequiresID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	if err := st.SaveScan(context.Background(), &store.Record{Status: store.StatusPending}); err == nil {
		t.Fatal("expected error for missing id")
	}
}

func TestActiveScansFiltersTerminal(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	seed := []store.Record{
		{ID: "s1", Status: store.StatusPending, CreatedAt: day(1)},
		{ID: "s2", Status: store.StatusProcessing, CreatedAt: day(2)},
		{ID: "s3", Status: store.StatusProcessed, CreatedAt: day(3)},
		{ID: "s4", Status: store.StatusFailed, CreatedAt: day(4)},
	}
	for i := range seed {
		if err := st.SaveScan(ctx, &seed[i]); err != nil {
			t.Fatalf("SaveScan failed: %v", err)
		}
	}

	active, err := st.ActiveScans(ctx)
	if err != nil {
		t.Fatalf("ActiveScans failed: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("expected 2 active scans, got %d", len(active))
	}
	if active[0].ID != "s1" || active[1].ID != "s2" {
		t.Fatalf("unexpected active order: %s, %s", active[0].ID, active[1].ID)
	}
}

func TestListScansNewestFirst(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	for i, id := range []string{"a", "b", "c"} {
		rec := store.Record{ID: id, Status: store.StatusPending, CreatedAt: day(i + 1)}
		if err := st.SaveScan(ctx, &rec); err != nil {
			t.Fatalf("SaveScan failed: %v", err)
		}
	}

	records, err := st.ListScans(ctx)
	if err != nil {
		t.Fatalf("ListScans failed: %v", err)
	}
	if len(records) != 3 || records[0].ID != "c" || records[2].ID != "a" {
		t.Fatalf("unexpected order: %+v", records)
	}
}

func TestApplySnapshotInsertsNewRecord(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	changed, err := st.ApplySnapshot(ctx, store.Record{ID: "s1", Status: store.StatusPending, CreatedAt: day(1)})
	if err != nil {
		t.Fatalf("ApplySnapshot failed: %v", err)
	}
	if !changed {
		t.Fatal("expected insert to report change")
	}
}

func TestApplySnapshotConvergesToProcessed(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if err := st.SaveScan(ctx, &store.Record{ID: "s1", Status: store.StatusPending, CreatedAt: day(1)}); err != nil {
		t.Fatalf("SaveScan failed: %v", err)
	}

	changed, err := st.ApplySnapshot(ctx, store.Record{
		ID:         "s1",
		Status:     store.StatusProcessed,
		SenderName: "John Doe",
	})
	if err != nil {
		t.Fatalf("ApplySnapshot failed: %v", err)
	}
	if !changed {
		t.Fatal("expected snapshot to change the record")
	}

	rec, err := st.GetScan(ctx, "s1")
	if err != nil {
		t.Fatalf("GetScan failed: %v", err)
	}
	if rec.Status != store.StatusProcessed || rec.SenderName != "John Doe" {
		t.Fatalf("snapshot not applied: %+v", rec)
	}
}

func TestApplySnapshotIgnoresRegression(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if err := st.SaveScan(ctx, &store.Record{ID: "s1", Status: store.StatusProcessed, SenderName: "John Doe", CreatedAt: day(1)}); err != nil {
		t.Fatalf("SaveScan failed: %v", err)
	}

	changed, err := st.ApplySnapshot(ctx, store.Record{ID: "s1", Status: store.StatusPending})
	if err != nil {
		t.Fatalf("ApplySnapshot failed: %v", err)
	}
	if changed {
		t.Fatal("regressing snapshot must not change the record")
	}

	rec, _ := st.GetScan(ctx, "s1")
	if rec.Status != store.StatusProcessed || rec.SenderName != "John Doe" {
		t.Fatalf("record degraded: %+v", rec)
	}
}

func TestSessionLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	session, err := st.CurrentSession(ctx)
	if err != nil {
		t.Fatalf("CurrentSession failed: %v", err)
	}
	if session != nil {
		t.Fatalf("expected no session initially, got %+v", session)
	}

	if err := st.SaveSession(ctx, store.Session{UserID: "u1", Username: "john", Email: "john@example.com", Token: "tok"}); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	session, err = st.CurrentSession(ctx)
	if err != nil {
		t.Fatalf("CurrentSession failed: %v", err)
	}
	if !session.LoggedIn() || session.Username != "john" {
		t.Fatalf("unexpected session: %+v", session)
	}

	if err := st.ClearCredential(ctx); err != nil {
		t.Fatalf("ClearCredential failed: %v", err)
	}

	session, err = st.CurrentSession(ctx)
	if err != nil {
		t.Fatalf("CurrentSession failed: %v", err)
	}
	if session == nil {
		t.Fatal("soft logout must keep the profile row")
	}
	if session.LoggedIn() {
		t.Fatal("credential must be cleared after logout")
	}
	if session.Username != "john" {
		t.Fatalf("profile data lost on logout: %+v", session)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if _, ok, err := st.GetSetting(ctx, "first_run"); err != nil || ok {
		t.Fatalf("expected unset setting, ok=%v err=%v", ok, err)
	}
	if err := st.SetSetting(ctx, "first_run", "done"); err != nil {
		t.Fatalf("SetSetting failed: %v", err)
	}
	value, ok, err := st.GetSetting(ctx, "first_run")
	if err != nil || !ok || value != "done" {
		t.Fatalf("unexpected setting round trip: %q %v %v", value, ok, err)
	}
}

func TestCountByStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	for i, status := range []store.Status{store.StatusPending, store.StatusPending, store.StatusProcessed} {
		rec := store.Record{ID: string(rune('a' + i)), Status: status, CreatedAt: day(i + 1)}
		if err := st.SaveScan(ctx, &rec); err != nil {
			t.Fatalf("SaveScan failed: %v", err)
		}
	}

	counts, err := st.CountByStatus(ctx)
	if err != nil {
		t.Fatalf("CountByStatus failed: %v", err)
	}
	if counts[store.StatusPending] != 2 || counts[store.StatusProcessed] != 1 {
		t.Fatalf("unexpected counts: %+v", counts)
	}
}
