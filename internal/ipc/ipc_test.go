package ipc

import (
	"context"
	"testing"
	"time"

	"vetter/internal/daemon"
	"vetter/internal/inspect"
	"vetter/internal/logging"
	"vetter/internal/store"
	"vetter/internal/testsupport"
	"vetter/internal/worker"
)

type stubInspector struct{}

func (stubInspector) Join(context.Context, string) error { return nil }

func (stubInspector) Analyze(_ context.Context, subjectID int64) (*inspect.Report, error) {
	return &inspect.Report{SubjectID: subjectID, JoinSuccess: true}, nil
}

func (stubInspector) Leave(context.Context, int64) error { return nil }

func newServerClient(t *testing.T) (*Client, *store.Store, func()) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	runner := worker.New(cfg, st, stubInspector{}, logging.NewNop())
	d, err := daemon.New(cfg, st, logging.NewNop(), runner)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	shutdownCh := make(chan struct{}, 1)
	server, err := NewServer(ctx, cfg.SocketPath(), d, logging.NewNop(), func() {
		shutdownCh <- struct{}{}
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	server.Serve()

	client, err := Dial(cfg.SocketPath())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}

	cleanup := func() {
		client.Close()
		cancel()
		server.Close()
		d.Close()
	}
	t.Cleanup(cleanup)
	return client, st, func() {
		select {
		case <-shutdownCh:
		case <-time.After(5 * time.Second):
			t.Fatal("shutdown callback never fired")
		}
	}
}

func TestStatusRoundTrip(t *testing.T) {
	client, st, _ := newServerClient(t)
	testsupport.Enqueue(t, st, 1, "Status Probe")

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.Running {
		t.Fatal("daemon should not report running before Start")
	}
	if status.DatabasePath == "" || status.SocketPath == "" {
		t.Fatalf("status paths incomplete: %+v", status)
	}
	if status.QueueStats["pending"] != 1 {
		t.Fatalf("pending stat = %d, want 1", status.QueueStats["pending"])
	}
}

func TestQueueListFiltersByStatus(t *testing.T) {
	client, st, _ := newServerClient(t)
	ctx := context.Background()

	pending := testsupport.Enqueue(t, st, 2, "Keep Pending")
	failed := testsupport.Enqueue(t, st, 3, "Mark Failed")
	if _, err := st.SetStatus(ctx, failed.ID, store.StatusFailed); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	resp, err := client.QueueList([]string{"pending"})
	if err != nil {
		t.Fatalf("QueueList: %v", err)
	}
	if len(resp.Entries) != 1 || resp.Entries[0].ID != pending.ID {
		t.Fatalf("unexpected entries: %+v", resp.Entries)
	}

	all, err := client.QueueList(nil)
	if err != nil {
		t.Fatalf("QueueList all: %v", err)
	}
	if len(all.Entries) != 2 {
		t.Fatalf("all entries = %d, want 2", len(all.Entries))
	}
}

func TestQueueRetryAndClear(t *testing.T) {
	client, st, _ := newServerClient(t)
	ctx := context.Background()

	entry := testsupport.Enqueue(t, st, 4, "Retry Me")
	if _, err := st.SetStatus(ctx, entry.ID, store.StatusFailed); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	retried, err := client.QueueRetry(nil)
	if err != nil {
		t.Fatalf("QueueRetry: %v", err)
	}
	if retried.Updated != 1 {
		t.Fatalf("retried = %d, want 1", retried.Updated)
	}

	if _, err := st.SetStatus(ctx, entry.ID, store.StatusDone); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	cleared, err := client.QueueClear()
	if err != nil {
		t.Fatalf("QueueClear: %v", err)
	}
	if cleared.Removed != 1 {
		t.Fatalf("removed = %d, want 1", cleared.Removed)
	}
}

func TestQueueResetStuck(t *testing.T) {
	client, st, _ := newServerClient(t)
	ctx := context.Background()

	entry := testsupport.Enqueue(t, st, 5, "Stuck")
	if _, err := st.SetStatus(ctx, entry.ID, store.StatusProcessing); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	resp, err := client.QueueReset()
	if err != nil {
		t.Fatalf("QueueReset: %v", err)
	}
	if resp.Updated != 1 {
		t.Fatalf("updated = %d, want 1", resp.Updated)
	}
}

func TestQueueAndDatabaseHealth(t *testing.T) {
	client, st, _ := newServerClient(t)
	testsupport.Enqueue(t, st, 6, "Health Probe")

	health, err := client.QueueHealth()
	if err != nil {
		t.Fatalf("QueueHealth: %v", err)
	}
	if health.Total != 1 || health.Pending != 1 {
		t.Fatalf("unexpected health: %+v", health)
	}

	db, err := client.DatabaseHealth()
	if err != nil {
		t.Fatalf("DatabaseHealth: %v", err)
	}
	if !db.DatabaseExists || !db.DatabaseReadable {
		t.Fatalf("database not healthy: %+v", db)
	}
	if !db.IntegrityCheck {
		t.Fatal("integrity check failed")
	}
	if len(db.MissingTables) != 0 {
		t.Fatalf("missing tables: %v", db.MissingTables)
	}
}

func TestStopTriggersShutdown(t *testing.T) {
	client, _, waitShutdown := newServerClient(t)

	resp, err := client.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if !resp.Stopped {
		t.Fatal("stop not acknowledged")
	}
	waitShutdown()
}
