package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"log/slog"

	"github.com/gofrs/flock"

	"vetter/internal/config"
	"vetter/internal/logging"
	"vetter/internal/store"
	"vetter/internal/worker"
)

// Daemon hosts the deep worker and enforces single-instance execution via a
// lock file. Only one deep worker may sweep a given database at a time.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *store.Store
	runner *worker.Runner

	logPath  string
	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	DatabasePath string
	LockPath     string
	SocketPath   string
	Worker       worker.Snapshot
	QueueStats   map[store.Status]int
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, st *store.Store, logger *slog.Logger, runner *worker.Runner) (*Daemon, error) {
	if cfg == nil || st == nil || runner == nil {
		return nil, errors.New("daemon requires config, store, and worker")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "vetterd.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    st,
		runner:   runner,
		logPath:  filepath.Join(cfg.Paths.LogDir, "vetter.log"),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock and launches the worker.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another vetter daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	if err := d.runner.Start(runCtx); err != nil {
		_ = d.lock.Unlock()
		cancel()
		d.cancel = nil
		return fmt.Errorf("start worker: %w", err)
	}

	d.running.Store(true)
	d.logger.Info("vetter daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops the worker and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.runner.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("vetter daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// ListQueue returns check-queue entries filtered by optional statuses.
func (d *Daemon) ListQueue(ctx context.Context, statuses []store.Status) ([]*store.Entry, error) {
	if d.store == nil {
		return nil, errors.New("store unavailable")
	}
	return d.store.ListEntries(ctx, statuses...)
}

// ClearTerminal removes done and failed entries.
func (d *Daemon) ClearTerminal(ctx context.Context) (int64, error) {
	if d.store == nil {
		return 0, errors.New("store unavailable")
	}
	return d.store.ClearTerminal(ctx)
}

// ResetStuck transitions processing entries back to pending.
func (d *Daemon) ResetStuck(ctx context.Context) (int64, error) {
	if d.store == nil {
		return 0, errors.New("store unavailable")
	}
	return d.store.ResetStuckProcessing(ctx)
}

// RetryFailed resets failed entries (optionally a subset) back to pending.
func (d *Daemon) RetryFailed(ctx context.Context, ids []int64) (int64, error) {
	if d.store == nil {
		return 0, errors.New("store unavailable")
	}
	return d.store.RetryFailed(ctx, ids...)
}

// QueueHealth returns aggregate queue diagnostics.
func (d *Daemon) QueueHealth(ctx context.Context) (store.HealthSummary, error) {
	if d.store == nil {
		return store.HealthSummary{}, errors.New("store unavailable")
	}
	return d.store.Health(ctx)
}

// DatabaseHealth returns detailed database diagnostics.
func (d *Daemon) DatabaseHealth(ctx context.Context) (store.DatabaseHealth, error) {
	if d.store == nil {
		return store.DatabaseHealth{}, errors.New("store unavailable")
	}
	return d.store.CheckHealth(ctx)
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// Status returns the current daemon status. Queue stat errors are swallowed;
// status must work even when the database is degraded.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		DatabasePath: d.cfg.DatabasePath(),
		LockPath:     d.lockPath,
		SocketPath:   d.cfg.SocketPath(),
		Worker:       d.runner.Status(),
	}
	if stats, err := d.store.Stats(ctx); err == nil {
		status.QueueStats = stats
	}
	return status
}
