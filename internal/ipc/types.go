package ipc

// QueueEntry is the wire representation of a check-queue entry.
type QueueEntry struct {
	ID           int64  `json:"id"`
	SubjectID    int64  `json:"subject_id"`
	SubjectTitle string `json:"subject_title,omitempty"`
	RequesterID  int64  `json:"requester_id"`
	Status       string `json:"status"`
	CreatedAt    string `json:"created_at"`
}

// StatusRequest asks for daemon runtime information.
type StatusRequest struct{}

// StatusResponse reports daemon runtime information.
type StatusResponse struct {
	Running      bool           `json:"running"`
	PID          int            `json:"pid"`
	DatabasePath string         `json:"database_path"`
	LockPath     string         `json:"lock_path"`
	SocketPath   string         `json:"socket_path"`
	LastSweep    string         `json:"last_sweep,omitempty"`
	LastError    string         `json:"last_error,omitempty"`
	Processed    int64          `json:"processed"`
	QueueStats   map[string]int `json:"queue_stats,omitempty"`
}

// StopRequest asks the daemon to stop processing and shut down.
type StopRequest struct{}

// StopResponse acknowledges a stop request.
type StopResponse struct {
	Stopped bool   `json:"stopped"`
	Message string `json:"message,omitempty"`
}

// QueueListRequest filters entries by status names; empty means all.
type QueueListRequest struct {
	Statuses []string `json:"statuses,omitempty"`
}

// QueueListResponse carries the matching entries.
type QueueListResponse struct {
	Entries []QueueEntry `json:"entries"`
}

// QueueClearRequest asks for terminal entries to be removed.
type QueueClearRequest struct{}

// QueueClearResponse reports how many entries were removed.
type QueueClearResponse struct {
	Removed int64 `json:"removed"`
}

// QueueResetRequest asks for processing entries to return to pending.
type QueueResetRequest struct{}

// QueueResetResponse reports how many entries were reset.
type QueueResetResponse struct {
	Updated int64 `json:"updated"`
}

// QueueRetryRequest asks for failed entries to return to pending. Empty IDs
// means all failed entries.
type QueueRetryRequest struct {
	IDs []int64 `json:"ids,omitempty"`
}

// QueueRetryResponse reports how many entries were retried.
type QueueRetryResponse struct {
	Updated int64 `json:"updated"`
}

// QueueHealthRequest asks for aggregate queue counts.
type QueueHealthRequest struct{}

// QueueHealthResponse reports aggregate queue counts.
type QueueHealthResponse struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Done       int `json:"done"`
	Failed     int `json:"failed"`
}

// DatabaseHealthRequest asks for database diagnostics.
type DatabaseHealthRequest struct{}

// DatabaseHealthResponse reports database diagnostics.
type DatabaseHealthResponse struct {
	DBPath           string   `json:"db_path"`
	DatabaseExists   bool     `json:"database_exists"`
	DatabaseReadable bool     `json:"database_readable"`
	TablesPresent    []string `json:"tables_present,omitempty"`
	MissingTables    []string `json:"missing_tables,omitempty"`
	IntegrityCheck   bool     `json:"integrity_check"`
	TotalEntries     int      `json:"total_entries"`
	TotalResults     int      `json:"total_results"`
	Error            string   `json:"error,omitempty"`
}
