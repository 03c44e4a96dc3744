package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

const entryColumns = "id, subject_id, subject_title, requester_id, access_token, status, created_at"

// Enqueue inserts a new pending check-queue entry. Duplicate subjects are
// allowed by design; this layer never deduplicates.
func (s *Store) Enqueue(ctx context.Context, subjectID int64, subjectTitle string, requesterID int64, accessToken string) (*Entry, error) {
	if strings.TrimSpace(accessToken) == "" {
		return nil, errors.New("access token is required")
	}

	now := time.Now().UTC()
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO check_queue (subject_id, subject_title, requester_id, access_token, status, created_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		subjectID,
		nullableString(subjectTitle),
		requesterID,
		accessToken,
		StatusPending,
		formatTime(now),
	)
	if err != nil {
		return nil, fmt.Errorf("insert entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetEntry(ctx, id)
}

// GetEntry fetches a check-queue entry by identifier. Returns nil when absent.
func (s *Store) GetEntry(ctx context.Context, id int64) (*Entry, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+entryColumns+` FROM check_queue WHERE id = ?`, id)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	return entry, nil
}

// SetStatus overwrites an entry's status unconditionally. A missing id is
// reported via the boolean so callers can log a warning instead of failing.
func (s *Store) SetStatus(ctx context.Context, id int64, status Status) (bool, error) {
	if _, ok := statusSet[status]; !ok {
		return false, fmt.Errorf("unknown status %q", status)
	}
	res, err := s.execWithRetry(
		ctx,
		`UPDATE check_queue SET status = ? WHERE id = ?`,
		status,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("set status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ListPending returns all pending entries ordered by creation time. The scan
// is snapshot-consistent only; concurrent inserts may or may not appear.
func (s *Store) ListPending(ctx context.Context) ([]*Entry, error) {
	return s.ListEntries(ctx, StatusPending)
}

// ListEntries returns entries filtered by status set (or all entries when no
// status is provided), ordered by creation time.
func (s *Store) ListEntries(ctx context.Context, statuses ...Status) ([]*Entry, error) {
	ctx = ensureContext(ctx)

	var (
		rows *sql.Rows
		err  error
	)
	baseQuery := `SELECT ` + entryColumns + ` FROM check_queue`
	orderClause := ` ORDER BY created_at, id`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` WHERE status IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// RetryFailed moves failed entries back to pending for reprocessing.
func (s *Store) RetryFailed(ctx context.Context, ids ...int64) (int64, error) {
	if len(ids) == 0 {
		res, err := s.execWithRetry(
			ctx,
			`UPDATE check_queue SET status = ? WHERE status = ?`,
			StatusPending,
			StatusFailed,
		)
		if err != nil {
			return 0, fmt.Errorf("retry failed entries: %w", err)
		}
		return res.RowsAffected()
	}

	placeholders := makePlaceholders(len(ids))
	args := make([]any, 0, len(ids)+2)
	args = append(args, StatusPending, StatusFailed)
	for _, id := range ids {
		args = append(args, id)
	}
	query := `UPDATE check_queue SET status = ? WHERE status = ? AND id IN (` + placeholders + `)`
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("retry selected entries: %w", err)
	}
	return res.RowsAffected()
}

// ResetStuckProcessing returns entries stuck in processing to pending. Used
// by operators after a deep worker crash mid-entry.
func (s *Store) ResetStuckProcessing(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE check_queue SET status = ? WHERE status = ?`,
		StatusPending,
		StatusProcessing,
	)
	if err != nil {
		return 0, fmt.Errorf("reset stuck entries: %w", err)
	}
	return res.RowsAffected()
}

// ClearTerminal removes done and failed entries from the queue.
func (s *Store) ClearTerminal(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`DELETE FROM check_queue WHERE status IN (?, ?)`,
		StatusDone,
		StatusFailed,
	)
	if err != nil {
		return 0, fmt.Errorf("clear terminal entries: %w", err)
	}
	return res.RowsAffected()
}

// Stats returns a count of entries grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT status, COUNT(1) FROM check_queue GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("queue stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// Health aggregates queue state for diagnostic output.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return HealthSummary{}, err
	}
	health := HealthSummary{}
	for status, count := range stats {
		health.Total += count
		switch status {
		case StatusPending:
			health.Pending += count
		case StatusProcessing:
			health.Processing += count
		case StatusDone:
			health.Done += count
		case StatusFailed:
			health.Failed += count
		}
	}
	return health, nil
}

// CheckHealth returns diagnostic information about the shared database.
func (s *Store) CheckHealth(ctx context.Context) (DatabaseHealth, error) {
	health := DatabaseHealth{DBPath: s.path}

	if s.path == "" {
		return health, errors.New("database path is unknown")
	}

	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			health.DatabaseExists = false
			return health, nil
		}
		return health, fmt.Errorf("stat database: %w", err)
	}
	if info.IsDir() {
		return health, fmt.Errorf("database path %q is a directory", s.path)
	}
	health.DatabaseExists = true

	if s.db == nil {
		return health, errors.New("database connection unavailable")
	}

	connCtx, cancel := context.WithTimeout(ensureContext(ctx), 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(connCtx); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("ping database: %w", err)
	}
	health.DatabaseReadable = true

	expected := []string{"check_queue", "group_checks", "leave_queue"}
	present := make(map[string]struct{}, len(expected))
	rows, err := s.db.QueryContext(connCtx, "SELECT name FROM sqlite_master WHERE type = 'table'")
	if err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("query tables: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			health.Error = err.Error()
			return health, fmt.Errorf("scan table name: %w", err)
		}
		present[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("iterate tables: %w", err)
	}
	for _, name := range expected {
		if _, ok := present[name]; ok {
			health.TablesPresent = append(health.TablesPresent, name)
		} else {
			health.MissingTables = append(health.MissingTables, name)
		}
	}

	if len(health.MissingTables) == 0 {
		row := s.db.QueryRowContext(connCtx, "SELECT COUNT(*) FROM check_queue")
		if err := row.Scan(&health.TotalEntries); err != nil {
			health.Error = err.Error()
			return health, fmt.Errorf("count entries: %w", err)
		}
		row = s.db.QueryRowContext(connCtx, "SELECT COUNT(*) FROM group_checks")
		if err := row.Scan(&health.TotalResults); err != nil {
			health.Error = err.Error()
			return health, fmt.Errorf("count results: %w", err)
		}
	}

	row := s.db.QueryRowContext(connCtx, "PRAGMA integrity_check")
	var integrityResult string
	if err := row.Scan(&integrityResult); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("integrity check: %w", err)
	}
	health.IntegrityCheck = strings.EqualFold(integrityResult, "ok")

	return health, nil
}

func scanEntry(scanner interface{ Scan(dest ...any) error }) (*Entry, error) {
	var (
		id          int64
		subjectID   int64
		title       sql.NullString
		requesterID sql.NullInt64
		accessToken string
		statusStr   string
		createdRaw  sql.NullString
	)

	if err := scanner.Scan(&id, &subjectID, &title, &requesterID, &accessToken, &statusStr, &createdRaw); err != nil {
		return nil, err
	}

	entry := &Entry{
		ID:           id,
		SubjectID:    subjectID,
		SubjectTitle: title.String,
		RequesterID:  requesterID.Int64,
		AccessToken:  accessToken,
		Status:       Status(statusStr),
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		entry.CreatedAt = created
	}
	return entry, nil
}
