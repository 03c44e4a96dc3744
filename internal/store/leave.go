package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const leaveColumns = "id, subject_id, reason, status, created_at"

// EnqueueLeave inserts a pending leave-queue request for the deep worker.
func (s *Store) EnqueueLeave(ctx context.Context, subjectID int64, reason string) (*LeaveRequest, error) {
	if strings.TrimSpace(reason) == "" {
		reason = "manual"
	}

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO leave_queue (subject_id, reason, status, created_at) VALUES (?, ?, ?, ?)`,
		subjectID,
		reason,
		StatusPending,
		formatTime(time.Now().UTC()),
	)
	if err != nil {
		return nil, fmt.Errorf("insert leave request: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+leaveColumns+` FROM leave_queue WHERE id = ?`, id)
	request, err := scanLeave(row)
	if err != nil {
		return nil, fmt.Errorf("get leave request: %w", err)
	}
	return request, nil
}

// ListPendingLeaves returns pending leave requests ordered by creation time.
func (s *Store) ListPendingLeaves(ctx context.Context) ([]*LeaveRequest, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT `+leaveColumns+` FROM leave_queue WHERE status = ? ORDER BY created_at, id`,
		StatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("list pending leaves: %w", err)
	}
	defer rows.Close()

	var requests []*LeaveRequest
	for rows.Next() {
		request, err := scanLeave(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, request)
	}
	return requests, rows.Err()
}

// SetLeaveStatus overwrites a leave request's status. Missing ids are
// reported via the boolean, mirroring SetStatus.
func (s *Store) SetLeaveStatus(ctx context.Context, id int64, status Status) (bool, error) {
	if _, ok := statusSet[status]; !ok {
		return false, fmt.Errorf("unknown status %q", status)
	}
	res, err := s.execWithRetry(
		ctx,
		`UPDATE leave_queue SET status = ? WHERE id = ?`,
		status,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("set leave status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

func scanLeave(scanner interface{ Scan(dest ...any) error }) (*LeaveRequest, error) {
	var (
		id         int64
		subjectID  int64
		reason     sql.NullString
		statusStr  string
		createdRaw sql.NullString
	)

	if err := scanner.Scan(&id, &subjectID, &reason, &statusStr, &createdRaw); err != nil {
		return nil, err
	}

	request := &LeaveRequest{
		ID:        id,
		SubjectID: subjectID,
		Reason:    reason.String,
		Status:    Status(statusStr),
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		request.CreatedAt = created
	}
	return request, nil
}
