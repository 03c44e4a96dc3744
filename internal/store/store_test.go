package store_test

import (
	"context"
	"testing"
	"time"

	"vetter/internal/store"
	"vetter/internal/testsupport"
)

func TestEnqueueThenListPending(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	before, err := st.ListPending(ctx)
	if err != nil {
		t.Fatalf("ListPending failed: %v", err)
	}

	entry, err := st.Enqueue(ctx, 42, "Night Market Deals", 1001, "https://t.me/+abc")
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if entry.ID == 0 {
		t.Fatal("expected entry ID to be assigned")
	}
	if entry.Status != store.StatusPending {
		t.Fatalf("expected pending status, got %s", entry.Status)
	}

	after, err := st.ListPending(ctx)
	if err != nil {
		t.Fatalf("ListPending failed: %v", err)
	}
	if len(after) != len(before)+1 {
		t.Fatalf("expected %d pending entries, got %d", len(before)+1, len(after))
	}
	last := after[len(after)-1]
	if last.ID != entry.ID || last.SubjectID != 42 || last.AccessToken != "https://t.me/+abc" {
		t.Fatalf("unexpected listed entry: %#v", last)
	}
}

func TestEnqueueRequiresAccessToken(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	if _, err := st.Enqueue(context.Background(), 42, "No Token", 1, "  "); err == nil {
		t.Fatal("expected error when access token missing")
	}
}

func TestEnqueueAllowsDuplicateSubjects(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	first := testsupport.Enqueue(t, st, 42, "First")
	second := testsupport.Enqueue(t, st, 42, "Second")
	if first.ID == second.ID {
		t.Fatal("expected distinct ids for duplicate subjects")
	}

	pending, err := st.ListPending(ctx)
	if err != nil {
		t.Fatalf("ListPending failed: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending entries, got %d", len(pending))
	}
	if pending[0].ID >= pending[1].ID {
		t.Fatalf("expected creation order, got ids %d, %d", pending[0].ID, pending[1].ID)
	}
}

func TestSetStatusAdvancesLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	entry := testsupport.Enqueue(t, st, 7, "Lifecycle")

	for _, status := range []store.Status{store.StatusProcessing, store.StatusDone} {
		found, err := st.SetStatus(ctx, entry.ID, status)
		if err != nil {
			t.Fatalf("SetStatus(%s) failed: %v", status, err)
		}
		if !found {
			t.Fatalf("SetStatus(%s) reported missing entry", status)
		}
		updated, err := st.GetEntry(ctx, entry.ID)
		if err != nil {
			t.Fatalf("GetEntry failed: %v", err)
		}
		if updated.Status != status {
			t.Fatalf("expected status %s, got %s", status, updated.Status)
		}
	}
}

func TestSetStatusMissingEntryIsNoOp(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	found, err := st.SetStatus(context.Background(), 9999, store.StatusDone)
	if err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	if found {
		t.Fatal("expected missing entry to be reported")
	}
}

func TestSetStatusRejectsUnknownStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	entry := testsupport.Enqueue(t, st, 7, "Unknown Status")
	if _, err := st.SetStatus(context.Background(), entry.ID, store.Status("paused")); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestRetryFailedMovesEntriesBackToPending(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	failed := testsupport.Enqueue(t, st, 1, "Failed")
	done := testsupport.Enqueue(t, st, 2, "Done")
	if _, err := st.SetStatus(ctx, failed.ID, store.StatusFailed); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	if _, err := st.SetStatus(ctx, done.ID, store.StatusDone); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}

	count, err := st.RetryFailed(ctx)
	if err != nil {
		t.Fatalf("RetryFailed failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 retried entry, got %d", count)
	}

	updated, err := st.GetEntry(ctx, failed.ID)
	if err != nil {
		t.Fatalf("GetEntry failed: %v", err)
	}
	if updated.Status != store.StatusPending {
		t.Fatalf("expected pending after retry, got %s", updated.Status)
	}
	untouched, err := st.GetEntry(ctx, done.ID)
	if err != nil {
		t.Fatalf("GetEntry failed: %v", err)
	}
	if untouched.Status != store.StatusDone {
		t.Fatalf("done entry should be untouched, got %s", untouched.Status)
	}
}

func TestResetStuckProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	entry := testsupport.Enqueue(t, st, 3, "Stuck")
	if _, err := st.SetStatus(ctx, entry.ID, store.StatusProcessing); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}

	count, err := st.ResetStuckProcessing(ctx)
	if err != nil {
		t.Fatalf("ResetStuckProcessing failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 reset entry, got %d", count)
	}

	updated, err := st.GetEntry(ctx, entry.ID)
	if err != nil {
		t.Fatalf("GetEntry failed: %v", err)
	}
	if updated.Status != store.StatusPending {
		t.Fatalf("expected pending after reset, got %s", updated.Status)
	}
}

func TestStatsAndHealth(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.Enqueue(t, st, 1, "A")
	b := testsupport.Enqueue(t, st, 2, "B")
	if _, err := st.SetStatus(ctx, b.ID, store.StatusFailed); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}

	health, err := st.Health(ctx)
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if health.Total != 2 || health.Pending != 1 || health.Failed != 1 {
		t.Fatalf("unexpected health summary: %+v", health)
	}
}

func TestCheckHealthReportsTables(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	health, err := st.CheckHealth(context.Background())
	if err != nil {
		t.Fatalf("CheckHealth failed: %v", err)
	}
	if !health.DatabaseExists || !health.DatabaseReadable {
		t.Fatalf("expected readable database: %+v", health)
	}
	if len(health.MissingTables) != 0 {
		t.Fatalf("expected no missing tables, got %v", health.MissingTables)
	}
	if !health.IntegrityCheck {
		t.Fatal("expected integrity check to pass")
	}
}

func TestSchemaVersionPersistsAcrossOpens(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	testsupport.Enqueue(t, st, 9, "Persisted")
	if err := st.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened := testsupport.MustOpenStore(t, cfg)
	entries, err := reopened.ListPending(context.Background())
	if err != nil {
		t.Fatalf("ListPending failed: %v", err)
	}
	if len(entries) != 1 || entries[0].SubjectID != 9 {
		t.Fatalf("expected persisted entry, got %#v", entries)
	}
}

func TestEntryTimestampsAreUTC(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	entry := testsupport.Enqueue(t, st, 11, "Timestamps")
	if entry.CreatedAt.IsZero() {
		t.Fatal("expected created_at to be set")
	}
	if time.Since(entry.CreatedAt) > time.Minute {
		t.Fatalf("created_at too far in the past: %s", entry.CreatedAt)
	}
}
