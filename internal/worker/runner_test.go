package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"vetter/internal/inspect"
	"vetter/internal/logging"
	"vetter/internal/store"
	"vetter/internal/testsupport"
)

type fakeInspector struct {
	mu       sync.Mutex
	joinErr  error
	analyze  func(subjectID int64) (*inspect.Report, error)
	leaveErr error

	joins    []string
	analyzed []int64
	left     []int64
}

func (f *fakeInspector) Join(_ context.Context, accessToken string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.joins = append(f.joins, accessToken)
	return f.joinErr
}

func (f *fakeInspector) Analyze(_ context.Context, subjectID int64) (*inspect.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.analyzed = append(f.analyzed, subjectID)
	if f.analyze != nil {
		return f.analyze(subjectID)
	}
	return &inspect.Report{SubjectID: subjectID, JoinSuccess: true, GroupType: "group"}, nil
}

func (f *fakeInspector) Leave(_ context.Context, subjectID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.left = append(f.left, subjectID)
	return f.leaveErr
}

func (f *fakeInspector) analyzeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.analyzed)
}

func (f *fakeInspector) leaveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.left)
}

func TestSweepProcessesPendingEntry(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	entry := testsupport.Enqueue(t, st, 100, "Crafting Talk")

	inspector := &fakeInspector{}
	runner := New(cfg, st, inspector, logging.NewNop())

	if err := runner.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	updated, err := st.GetEntry(context.Background(), entry.ID)
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if updated.Status != store.StatusDone {
		t.Fatalf("status = %s, want done", updated.Status)
	}

	payload, err := st.LatestDeepResult(context.Background(), 100)
	if err != nil {
		t.Fatalf("LatestDeepResult: %v", err)
	}
	if payload == nil {
		t.Fatal("expected a deep result")
	}
	report, err := inspect.DecodeReport(payload)
	if err != nil {
		t.Fatalf("DecodeReport: %v", err)
	}
	if report.SubjectID != 100 || !report.JoinSuccess {
		t.Fatalf("unexpected report: %+v", report)
	}

	if inspector.leaveCount() != 1 {
		t.Fatalf("leave calls = %d, want 1", inspector.leaveCount())
	}
}

func TestSweepSkipsWhenResultAlreadyExists(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	entry := testsupport.Enqueue(t, st, 200, "Old News")

	report := inspect.Report{SubjectID: 200, JoinSuccess: true}
	payload, err := report.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, err := st.AppendResult(context.Background(), store.ResultRecord{
		SubjectID:  200,
		DeepResult: payload,
	}); err != nil {
		t.Fatalf("AppendResult: %v", err)
	}

	inspector := &fakeInspector{}
	runner := New(cfg, st, inspector, logging.NewNop())
	if err := runner.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	if inspector.analyzeCount() != 0 {
		t.Fatalf("analyze calls = %d, want 0", inspector.analyzeCount())
	}
	updated, err := st.GetEntry(context.Background(), entry.ID)
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if updated.Status != store.StatusDone {
		t.Fatalf("status = %s, want done", updated.Status)
	}
}

func TestSweepMarksFailedOnJoinError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	entry := testsupport.Enqueue(t, st, 300, "Locked Door")

	inspector := &fakeInspector{joinErr: errors.New("invite expired")}
	runner := New(cfg, st, inspector, logging.NewNop())
	if err := runner.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	updated, err := st.GetEntry(context.Background(), entry.ID)
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if updated.Status != store.StatusFailed {
		t.Fatalf("status = %s, want failed", updated.Status)
	}
	if inspector.analyzeCount() != 0 {
		t.Fatal("join failure must not reach analysis")
	}
	payload, err := st.LatestDeepResult(context.Background(), 300)
	if err != nil {
		t.Fatalf("LatestDeepResult: %v", err)
	}
	if payload != nil {
		t.Fatal("join failure must not produce a result row")
	}
}

func TestSweepMarksFailedOnAnalysisError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	entry := testsupport.Enqueue(t, st, 400, "Flaky Scan")

	inspector := &fakeInspector{
		analyze: func(int64) (*inspect.Report, error) {
			return nil, errors.New("client crashed")
		},
	}
	runner := New(cfg, st, inspector, logging.NewNop())
	if err := runner.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	updated, err := st.GetEntry(context.Background(), entry.ID)
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if updated.Status != store.StatusFailed {
		t.Fatalf("status = %s, want failed", updated.Status)
	}
}

func TestSweepContainsPerEntryFailures(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	bad := testsupport.Enqueue(t, st, 500, "Bad First")
	good := testsupport.Enqueue(t, st, 501, "Good Second")

	inspector := &fakeInspector{
		analyze: func(subjectID int64) (*inspect.Report, error) {
			if subjectID == 500 {
				return nil, errors.New("boom")
			}
			return &inspect.Report{SubjectID: subjectID, JoinSuccess: true}, nil
		},
	}
	runner := New(cfg, st, inspector, logging.NewNop())
	if err := runner.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	badEntry, err := st.GetEntry(context.Background(), bad.ID)
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	goodEntry, err := st.GetEntry(context.Background(), good.ID)
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if badEntry.Status != store.StatusFailed {
		t.Fatalf("bad status = %s, want failed", badEntry.Status)
	}
	if goodEntry.Status != store.StatusDone {
		t.Fatalf("good status = %s, want done", goodEntry.Status)
	}
}

func TestSweepDrainsLeaveQueue(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	if _, err := st.EnqueueLeave(context.Background(), 600, "requester asked"); err != nil {
		t.Fatalf("EnqueueLeave: %v", err)
	}

	inspector := &fakeInspector{}
	runner := New(cfg, st, inspector, logging.NewNop())
	if err := runner.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	if inspector.leaveCount() != 1 {
		t.Fatalf("leave calls = %d, want 1", inspector.leaveCount())
	}
	pending, err := st.ListPendingLeaves(context.Background())
	if err != nil {
		t.Fatalf("ListPendingLeaves: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("pending leaves = %d, want 0", len(pending))
	}
}

func TestSweepMarksLeaveFailed(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	if _, err := st.EnqueueLeave(context.Background(), 700, "manual"); err != nil {
		t.Fatalf("EnqueueLeave: %v", err)
	}

	inspector := &fakeInspector{leaveErr: errors.New("not a member")}
	runner := New(cfg, st, inspector, logging.NewNop())
	if err := runner.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	pending, err := st.ListPendingLeaves(context.Background())
	if err != nil {
		t.Fatalf("ListPendingLeaves: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("failed leave should not stay pending, got %d", len(pending))
	}
}

func TestRunnerStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	testsupport.Enqueue(t, st, 800, "Background Run")

	inspector := &fakeInspector{}
	runner := New(cfg, st, inspector, logging.NewNop())

	if err := runner.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := runner.Start(context.Background()); err == nil {
		t.Fatal("second Start should fail")
	}

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if inspector.analyzeCount() > 0 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if inspector.analyzeCount() == 0 {
		t.Fatal("background loop never processed the entry")
	}

	runner.Stop()
	if runner.Status().Running {
		t.Fatal("runner still reports running after Stop")
	}
}

func TestSweepRecordsVerdictAndNotes(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	testsupport.Enqueue(t, st, 900, "Partial Scan")

	inspector := &fakeInspector{
		analyze: func(subjectID int64) (*inspect.Report, error) {
			return &inspect.Report{
				SubjectID:   subjectID,
				JoinSuccess: true,
				Error:       "history truncated",
			}, nil
		},
	}
	runner := New(cfg, st, inspector, logging.NewNop())
	if err := runner.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	records, err := st.ResultsForSubject(context.Background(), 900)
	if err != nil {
		t.Fatalf("ResultsForSubject: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	if records[0].Verdict {
		t.Fatal("verdict should be false when the report carries an error")
	}
	if records[0].Notes != "history truncated" {
		t.Fatalf("notes = %q", records[0].Notes)
	}
}
