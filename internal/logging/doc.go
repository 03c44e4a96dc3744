// Package logging assembles structured slog loggers and formatting helpers
// used across both vetter processes.
//
// It owns the console/JSON handlers, centralizes level and output plumbing,
// and exposes standardized field keys so the daemon and CLI tag log lines
// with subject IDs, entry IDs, and correlation IDs consistently. A no-op
// logger is provided for tests and wiring code that cannot fail.
package logging
