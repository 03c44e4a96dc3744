package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const resultColumns = "id, subject_id, subject_title, requester_id, front_result, deep_result, verdict, notes, created_at"

// AppendResult inserts a new result row. Rows are never updated: calling this
// twice for the same subject produces two rows, by design. A zero CreatedAt
// is stamped with the current time.
func (s *Store) AppendResult(ctx context.Context, record ResultRecord) (*ResultRecord, error) {
	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO group_checks (subject_id, subject_title, requester_id, front_result, deep_result, verdict, notes, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.SubjectID,
		nullableString(record.SubjectTitle),
		record.RequesterID,
		nullableJSON(record.FrontResult),
		nullableJSON(record.DeepResult),
		boolToInt(record.Verdict),
		nullableString(record.Notes),
		formatTime(createdAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert result: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetResult(ctx, id)
}

// GetResult fetches a result row by identifier. Returns nil when absent.
func (s *Store) GetResult(ctx context.Context, id int64) (*ResultRecord, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+resultColumns+` FROM group_checks WHERE id = ?`, id)
	record, err := scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get result: %w", err)
	}
	return record, nil
}

// LatestDeepResult returns the deep-result payload of the newest row for the
// subject that carries one, or nil when no such row exists. Newest is decided
// by creation time, then id; multiple rows per subject are expected over the
// system's lifetime.
func (s *Store) LatestDeepResult(ctx context.Context, subjectID int64) (json.RawMessage, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT deep_result FROM group_checks
         WHERE subject_id = ? AND deep_result IS NOT NULL
         ORDER BY created_at DESC, id DESC LIMIT 1`,
		subjectID,
	)
	var payload string
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("latest deep result: %w", err)
	}
	return json.RawMessage(payload), nil
}

// IsComplete reports whether a deep result exists for the subject. Presence
// of a deep result is the sole completion signal the rendezvous checks for.
func (s *Store) IsComplete(ctx context.Context, subjectID int64) (bool, error) {
	payload, err := s.LatestDeepResult(ctx, subjectID)
	if err != nil {
		return false, err
	}
	return payload != nil, nil
}

// ResultsForSubject returns the full result history for a subject, newest
// first.
func (s *Store) ResultsForSubject(ctx context.Context, subjectID int64) ([]*ResultRecord, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT `+resultColumns+` FROM group_checks WHERE subject_id = ? ORDER BY created_at DESC, id DESC`,
		subjectID,
	)
	if err != nil {
		return nil, fmt.Errorf("results for subject: %w", err)
	}
	defer rows.Close()

	var records []*ResultRecord
	for rows.Next() {
		record, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func scanResult(scanner interface{ Scan(dest ...any) error }) (*ResultRecord, error) {
	var (
		id          int64
		subjectID   int64
		title       sql.NullString
		requesterID sql.NullInt64
		frontRaw    sql.NullString
		deepRaw     sql.NullString
		verdict     sql.NullInt64
		notes       sql.NullString
		createdRaw  sql.NullString
	)

	if err := scanner.Scan(&id, &subjectID, &title, &requesterID, &frontRaw, &deepRaw, &verdict, &notes, &createdRaw); err != nil {
		return nil, err
	}

	record := &ResultRecord{
		ID:           id,
		SubjectID:    subjectID,
		SubjectTitle: title.String,
		RequesterID:  requesterID.Int64,
		Verdict:      verdict.Int64 != 0,
		Notes:        notes.String,
	}
	if frontRaw.Valid {
		record.FrontResult = json.RawMessage(frontRaw.String)
	}
	if deepRaw.Valid {
		record.DeepResult = json.RawMessage(deepRaw.String)
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		record.CreatedAt = created
	}
	return record, nil
}
