package inspect

import "context"

// Accessor grants and releases access to a subject. Join failures are
// terminal for a queue entry; Leave is best-effort.
type Accessor interface {
	Join(ctx context.Context, accessToken string) error
	Leave(ctx context.Context, subjectID int64) error
}

// Analyzer produces the deep-analysis report for a subject the worker has
// already joined.
type Analyzer interface {
	Analyze(ctx context.Context, subjectID int64) (*Report, error)
}

// Inspector is the full collaborator surface the consumer loop drives.
type Inspector interface {
	Accessor
	Analyzer
}
