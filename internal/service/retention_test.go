package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPruner struct {
	keep   int
	pruned int64
	err    error
	calls  int
}

func (p *recordingPruner) PruneHistory(_ context.Context, keep int) (int64, error) {
	p.calls++
	p.keep = keep
	return p.pruned, p.err
}

func TestRetentionSweepRemovesStaleSpoolFiles(t *testing.T) {
	dir := t.TempDir()

	staleDir := filepath.Join(dir, "run-1")
	require.NoError(t, os.MkdirAll(staleDir, 0o755))
	stalePath := filepath.Join(staleDir, "old.in")
	require.NoError(t, os.WriteFile(stalePath, []byte("stale"), 0o644))
	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(stalePath, old, old))

	freshDir := filepath.Join(dir, "run-2")
	require.NoError(t, os.MkdirAll(freshDir, 0o755))
	freshPath := filepath.Join(freshDir, "new.in")
	require.NoError(t, os.WriteFile(freshPath, []byte("fresh"), 0o644))

	pruner := &recordingPruner{pruned: 3}
	svc := NewRetentionService(RetentionConfig{
		CronExpr:     "@hourly",
		MaxAge:       24 * time.Hour,
		SpoolDir:     dir,
		HistoryLimit: 20,
	}, pruner, cron.New(cron.WithSeconds()))

	svc.Sweep(context.Background())

	assert.NoFileExists(t, stalePath)
	assert.NoDirExists(t, staleDir)
	assert.FileExists(t, freshPath)
	assert.Equal(t, 1, pruner.calls)
	assert.Equal(t, 20, pruner.keep)
}

func TestRetentionSweepToleratesPrunerErrors(t *testing.T) {
	pruner := &recordingPruner{err: assert.AnError}
	svc := NewRetentionService(RetentionConfig{
		CronExpr:     "@hourly",
		MaxAge:       time.Hour,
		SpoolDir:     t.TempDir(),
		HistoryLimit: 5,
	}, pruner, cron.New(cron.WithSeconds()))

	svc.Sweep(context.Background())

	assert.Equal(t, 1, pruner.calls)
}

func TestRetentionScheduleRegistersCronEntry(t *testing.T) {
	c := cron.New(cron.WithSeconds())
	svc := NewRetentionService(RetentionConfig{
		CronExpr:     "0 0 * * * *",
		MaxAge:       time.Hour,
		HistoryLimit: 20,
	}, &recordingPruner{}, c)

	require.NoError(t, svc.Schedule(context.Background()))
	assert.Len(t, c.Entries(), 1)
}

func TestRetentionScheduleRejectsBadExpression(t *testing.T) {
	svc := NewRetentionService(RetentionConfig{
		CronExpr: "every now and then",
	}, nil, cron.New(cron.WithSeconds()))

	err := svc.Schedule(context.Background())
	require.Error(t, err)
	assert.True(t, IsErrorType(err, ErrConfig))
}
