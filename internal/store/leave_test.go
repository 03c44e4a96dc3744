package store_test

import (
	"context"
	"testing"

	"vetter/internal/store"
	"vetter/internal/testsupport"
)

func TestLeaveQueueLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	request, err := st.EnqueueLeave(ctx, 42, "check finished")
	if err != nil {
		t.Fatalf("EnqueueLeave failed: %v", err)
	}
	if request.Status != store.StatusPending {
		t.Fatalf("expected pending leave request, got %s", request.Status)
	}

	pending, err := st.ListPendingLeaves(ctx)
	if err != nil {
		t.Fatalf("ListPendingLeaves failed: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != request.ID {
		t.Fatalf("unexpected pending leaves: %#v", pending)
	}

	found, err := st.SetLeaveStatus(ctx, request.ID, store.StatusDone)
	if err != nil {
		t.Fatalf("SetLeaveStatus failed: %v", err)
	}
	if !found {
		t.Fatal("expected leave request to be found")
	}

	pending, err = st.ListPendingLeaves(ctx)
	if err != nil {
		t.Fatalf("ListPendingLeaves failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no pending leaves, got %d", len(pending))
	}
}

func TestEnqueueLeaveDefaultsReason(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	request, err := st.EnqueueLeave(context.Background(), 7, "  ")
	if err != nil {
		t.Fatalf("EnqueueLeave failed: %v", err)
	}
	if request.Reason != "manual" {
		t.Fatalf("expected default reason, got %q", request.Reason)
	}
}
