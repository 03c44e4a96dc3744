package store

import (
	"encoding/json"
	"strings"
	"time"
)

// Status represents the lifecycle of a check-queue entry. Transitions are
// one-directional: pending -> processing -> {done, failed}.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusDone       Status = "done"
	StatusFailed     Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusProcessing,
	StatusDone,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a status ends an entry's lifecycle.
func (s Status) IsTerminal() bool {
	return s == StatusDone || s == StatusFailed
}

// Entry is one requested unit of work in check_queue.
type Entry struct {
	ID           int64
	SubjectID    int64
	SubjectTitle string
	RequesterID  int64
	AccessToken  string
	Status       Status
	CreatedAt    time.Time
}

// ResultRecord is one appended row of group_checks. Rows are never updated in
// place; re-checks of a subject accumulate additional rows.
type ResultRecord struct {
	ID           int64
	SubjectID    int64
	SubjectTitle string
	RequesterID  int64
	FrontResult  json.RawMessage
	DeepResult   json.RawMessage
	Verdict      bool
	Notes        string
	CreatedAt    time.Time
}

// LeaveRequest is one row of the side leave_queue: an instruction for the
// deep worker to detach from a subject. Independent of the rendezvous.
type LeaveRequest struct {
	ID        int64
	SubjectID int64
	Reason    string
	Status    Status
	CreatedAt time.Time
}

// HealthSummary describes aggregated check-queue counts per lifecycle state.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Done       int
	Failed     int
}

// DatabaseHealth captures diagnostic information about the shared database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	TablesPresent    []string
	MissingTables    []string
	IntegrityCheck   bool
	TotalEntries     int
	TotalResults     int
	Error            string
}
