package rendezvous

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"vetter/internal/logging"
)

// ResultSource is the slice of the store the waiter polls.
type ResultSource interface {
	LatestDeepResult(ctx context.Context, subjectID int64) (json.RawMessage, error)
}

// Callback is invoked once when a result is first observed for a subject.
type Callback func(subjectID int64, report json.RawMessage)

// Outcome is the terminal state of a Wait. A timeout is reported here, not as
// an error: the caller decides how to present it.
type Outcome struct {
	Report   json.RawMessage
	TimedOut bool
	Elapsed  time.Duration
	Attempts int
}

// Waiter polls the shared store until the deep worker's result appears for a
// subject. One callback slot exists per subject; registering again replaces
// the previous callback.
type Waiter struct {
	source ResultSource
	logger *slog.Logger
	cap    time.Duration

	mu        sync.Mutex
	callbacks map[int64]Callback
}

// NewWaiter builds a waiter. cap bounds the poll interval; zero or negative
// falls back to 5s.
func NewWaiter(source ResultSource, logger *slog.Logger, cap time.Duration) *Waiter {
	if logger == nil {
		logger = logging.NewNop()
	}
	if cap <= 0 {
		cap = 5 * time.Second
	}
	return &Waiter{
		source:    source,
		logger:    logger,
		cap:       cap,
		callbacks: make(map[int64]Callback),
	}
}

// RegisterCallback stores the callback for a subject, replacing any existing
// registration. The callback fires at most once, on the first observation of
// a result, and the registration is dropped afterwards.
func (w *Waiter) RegisterCallback(subjectID int64, cb Callback) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if cb == nil {
		delete(w.callbacks, subjectID)
		return
	}
	w.callbacks[subjectID] = cb
}

// Unregister removes the callback for a subject, if any.
func (w *Waiter) Unregister(subjectID int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.callbacks, subjectID)
}

// Wait polls until a deep result exists for the subject or the timeout
// elapses. Each iteration sleeps min(cap, remaining/2), so polling tightens
// as the deadline approaches. Read errors count as "not yet" and are logged.
func (w *Waiter) Wait(ctx context.Context, subjectID int64, timeout time.Duration) Outcome {
	start := time.Now()
	deadline := start.Add(timeout)
	attempts := 0

	for {
		attempts++
		report, err := w.source.LatestDeepResult(ctx, subjectID)
		if err != nil {
			w.logger.Warn("result poll failed",
				logging.Int64(logging.FieldSubjectID, subjectID),
				logging.Error(err))
		} else if report != nil {
			w.fireCallback(subjectID, report)
			return Outcome{Report: report, Elapsed: time.Since(start), Attempts: attempts}
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}
		interval := remaining / 2
		if interval > w.cap {
			interval = w.cap
		}
		select {
		case <-ctx.Done():
			w.Unregister(subjectID)
			return Outcome{TimedOut: true, Elapsed: time.Since(start), Attempts: attempts}
		case <-time.After(interval):
		}
	}

	w.Unregister(subjectID)
	return Outcome{TimedOut: true, Elapsed: time.Since(start), Attempts: attempts}
}

func (w *Waiter) fireCallback(subjectID int64, report json.RawMessage) {
	w.mu.Lock()
	cb := w.callbacks[subjectID]
	delete(w.callbacks, subjectID)
	w.mu.Unlock()

	if cb == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("result callback panicked",
				logging.Int64(logging.FieldSubjectID, subjectID),
				logging.Any("panic", r))
		}
	}()
	cb(subjectID, report)
}
