package jobs

import "context"

// Store persists run state for queue restart recovery.
type Store interface {
	LoadRuns(ctx context.Context) ([]*Run, error)
	UpsertRun(ctx context.Context, run *Run) error
	DeleteRun(ctx context.Context, runID string) error
	// DeleteRunData removes all auxiliary data (spooled documents, batch
	// checkpoints) for a run.
	DeleteRunData(ctx context.Context, runID string) error
}
