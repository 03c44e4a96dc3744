package worker

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"vetter/internal/config"
	"vetter/internal/inspect"
	"vetter/internal/logging"
	"vetter/internal/store"
)

// Runner is the deep worker: it sweeps the check queue, joins each pending
// subject, runs the analysis collaborator, appends the result row, and
// advances queue status. It also drains the side leave queue.
type Runner struct {
	cfg       *config.Config
	store     *store.Store
	inspector inspect.Inspector
	logger    *slog.Logger

	mu        sync.Mutex
	running   bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	lastSweep time.Time
	lastError string
	processed int64
}

// Snapshot is a point-in-time view of the runner for status reporting.
type Snapshot struct {
	Running   bool
	LastSweep time.Time
	LastError string
	Processed int64
}

// New builds a runner. A nil logger falls back to a no-op logger.
func New(cfg *config.Config, st *store.Store, inspector inspect.Inspector, logger *slog.Logger) *Runner {
	return &Runner{
		cfg:       cfg,
		store:     st,
		inspector: inspector,
		logger:    logging.NewComponentLogger(logger, "worker"),
	}
}

// Start begins background sweeping.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return errors.New("worker already running")
	}
	if r.inspector == nil {
		return errors.New("inspector not configured")
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.running = true
	r.wg.Add(1)
	go r.run(runCtx)
	return nil
}

// Stop terminates background sweeping and waits for the loop to exit.
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	cancel := r.cancel
	r.running = false
	r.cancel = nil
	r.mu.Unlock()

	cancel()
	r.wg.Wait()
}

// Status returns a point-in-time view of the runner.
func (r *Runner) Status() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Snapshot{
		Running:   r.running,
		LastSweep: r.lastSweep,
		LastError: r.lastError,
		Processed: r.processed,
	}
}

func (r *Runner) run(ctx context.Context) {
	defer r.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := r.Sweep(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			r.setLastError(err)
			r.logger.Error("queue sweep failed",
				logging.Error(err),
				logging.String(logging.FieldEventType, "sweep_failed"),
				logging.String(logging.FieldErrorHint, "check shared database access"),
			)
			if !sleepCtx(ctx, time.Duration(r.cfg.Workflow.ErrorRetryInterval)*time.Second) {
				return
			}
			continue
		}

		if !sleepCtx(ctx, r.sweepInterval()) {
			return
		}
	}
}

// Sweep runs one full pass: every pending check entry, then the pending
// leave requests. Per-entry failures are contained; only a queue read
// failure aborts the pass.
func (r *Runner) Sweep(ctx context.Context) error {
	entries, err := r.store.ListPending(ctx)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		r.processEntry(ctx, entry)
	}

	r.drainLeaves(ctx)

	r.mu.Lock()
	r.lastSweep = time.Now().UTC()
	r.mu.Unlock()
	return nil
}

func (r *Runner) processEntry(ctx context.Context, entry *store.Entry) {
	logger := r.logger.With(
		logging.Int64(logging.FieldEntryID, entry.ID),
		logging.Int64(logging.FieldSubjectID, entry.SubjectID),
	)

	// Another session may have already produced a deep result for this
	// subject. Mark the entry done without re-running the analysis.
	complete, err := r.store.IsComplete(ctx, entry.SubjectID)
	if err != nil {
		r.setLastError(err)
		logger.Error("completion check failed", logging.Error(err))
		return
	}
	if complete {
		r.advance(ctx, logger, entry.ID, store.StatusDone)
		logger.Info("result already present, skipping analysis",
			logging.String(logging.FieldEventType, "analysis_skipped"))
		return
	}

	r.advance(ctx, logger, entry.ID, store.StatusProcessing)

	if err := r.inspector.Join(ctx, entry.AccessToken); err != nil {
		r.setLastError(err)
		logger.Warn("join failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "join_failed"),
			logging.String(logging.FieldErrorHint, "verify the access token is still valid"),
		)
		r.advance(ctx, logger, entry.ID, store.StatusFailed)
		return
	}

	if settle := time.Duration(r.cfg.Inspector.SettleSeconds) * time.Second; settle > 0 {
		if !sleepCtx(ctx, settle) {
			return
		}
	}

	report, err := r.inspector.Analyze(ctx, entry.SubjectID)
	if err != nil {
		r.setLastError(err)
		logger.Error("analysis failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "analysis_failed"),
		)
		r.advance(ctx, logger, entry.ID, store.StatusFailed)
		return
	}

	payload, err := report.Encode()
	if err != nil {
		r.setLastError(err)
		logger.Error("report encode failed", logging.Error(err))
		r.advance(ctx, logger, entry.ID, store.StatusFailed)
		return
	}

	if _, err := r.store.AppendResult(ctx, store.ResultRecord{
		SubjectID:    entry.SubjectID,
		SubjectTitle: entry.SubjectTitle,
		RequesterID:  entry.RequesterID,
		DeepResult:   payload,
		Verdict:      report.Error == "",
		Notes:        report.Error,
	}); err != nil {
		r.setLastError(err)
		logger.Error("result append failed", logging.Error(err))
		r.advance(ctx, logger, entry.ID, store.StatusFailed)
		return
	}

	r.advance(ctx, logger, entry.ID, store.StatusDone)
	r.mu.Lock()
	r.processed++
	r.mu.Unlock()
	logger.Info("analysis complete",
		logging.String(logging.FieldEventType, "analysis_complete"),
		logging.Bool("join_success", report.JoinSuccess),
	)

	if r.cfg.Inspector.LeaveAfter {
		if err := r.inspector.Leave(ctx, entry.SubjectID); err != nil {
			logger.Warn("leave after analysis failed", logging.Error(err))
		}
	}
}

func (r *Runner) drainLeaves(ctx context.Context) {
	requests, err := r.store.ListPendingLeaves(ctx)
	if err != nil {
		r.setLastError(err)
		r.logger.Error("leave queue scan failed", logging.Error(err))
		return
	}

	for _, request := range requests {
		select {
		case <-ctx.Done():
			return
		default:
		}
		logger := r.logger.With(logging.Int64(logging.FieldSubjectID, request.SubjectID))
		status := store.StatusDone
		if err := r.inspector.Leave(ctx, request.SubjectID); err != nil {
			r.setLastError(err)
			logger.Warn("leave request failed", logging.Error(err))
			status = store.StatusFailed
		}
		if updated, err := r.store.SetLeaveStatus(ctx, request.ID, status); err != nil {
			logger.Error("leave status update failed", logging.Error(err))
		} else if !updated {
			logger.Warn("leave request vanished before status update")
		}
	}
}

// advance sets an entry's status and logs when the row has disappeared,
// matching the store's fail-silent contract for missing ids.
func (r *Runner) advance(ctx context.Context, logger *slog.Logger, id int64, status store.Status) {
	updated, err := r.store.SetStatus(ctx, id, status)
	if err != nil {
		r.setLastError(err)
		logger.Error("status update failed",
			logging.Error(err),
			logging.String(logging.FieldStatus, string(status)),
		)
		return
	}
	if !updated {
		logger.Warn("entry vanished before status update",
			logging.String(logging.FieldStatus, string(status)),
		)
	}
}

func (r *Runner) sweepInterval() time.Duration {
	minSec := r.cfg.Workflow.SweepIntervalMin
	maxSec := r.cfg.Workflow.SweepIntervalMax
	if minSec <= 0 {
		minSec = 1
	}
	if maxSec < minSec {
		maxSec = minSec
	}
	spread := float64(maxSec - minSec)
	return time.Duration((float64(minSec) + rand.Float64()*spread) * float64(time.Second))
}

func (r *Runner) setLastError(err error) {
	r.mu.Lock()
	r.lastError = err.Error()
	r.mu.Unlock()
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
