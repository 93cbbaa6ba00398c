package service

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/singleflight"

	"github.com/subloc/subloc/pkg/file"
	"github.com/subloc/subloc/pkg/icron"
	"github.com/subloc/subloc/pkg/log"
)

// HistoryPruner trims the history table down to its bound. Implemented by
// the persistence store.
type HistoryPruner interface {
	PruneHistory(ctx context.Context, keep int) (int64, error)
}

type RetentionConfig struct {
	CronExpr     string
	MaxAge       time.Duration
	SpoolDir     string
	HistoryLimit int
}

type retentionService struct {
	cfg    RetentionConfig
	pruner HistoryPruner
	cron   *cron.Cron
}

func NewRetentionService(
	cfg RetentionConfig,
	pruner HistoryPruner,
	cron *cron.Cron,
) retentionService {
	return retentionService{
		cfg:    cfg,
		pruner: pruner,
		cron:   cron,
	}
}

var retentionGroup singleflight.Group

func (s retentionService) Schedule(
	ctx context.Context,
) error {
	info, err := icron.GetTriggerInfo(s.cfg.CronExpr, time.Now())
	if err != nil {
		return WrapError(err, ErrConfig, "invalid retention schedule")
	}
	log.Info("Retention sweep scheduled, next run at %v", info.Next)

	runFunc := func() {
		_, _, _ = retentionGroup.Do("retention", func() (any, error) {
			s.Sweep(ctx)
			return nil, nil
		})
	}
	_, err = s.cron.AddFunc(s.cfg.CronExpr, runFunc)
	return err
}

// Sweep applies the retention policy once: history beyond its bound is
// pruned and spooled run data older than MaxAge is removed.
func (s retentionService) Sweep(ctx context.Context) {
	if s.pruner != nil && s.cfg.HistoryLimit > 0 {
		pruned, err := s.pruner.PruneHistory(ctx, s.cfg.HistoryLimit)
		if err != nil {
			log.Error("Failed to prune history: %v", err)
		} else if pruned > 0 {
			log.Info("Pruned %d history records", pruned)
		}
	}

	if s.cfg.SpoolDir == "" || s.cfg.MaxAge <= 0 {
		return
	}

	cutoff := time.Now().Add(-s.cfg.MaxAge)
	stale, err := file.FindStaleBefore(s.cfg.SpoolDir, cutoff)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Error("Failed to scan spool dir %s: %v", s.cfg.SpoolDir, err)
		}
		return
	}

	var freed uint64
	removed := 0
	for _, path := range stale {
		if info, err := os.Stat(path); err == nil {
			freed += uint64(info.Size())
		}
		if err := os.Remove(path); err != nil {
			log.Warn("Failed to remove spooled file %s: %v", path, err)
			continue
		}
		removed++
	}
	if removed > 0 {
		log.Info("Removed %d spooled files, freed %s", removed, humanize.Bytes(freed))
	}

	removeEmptyRunDirs(s.cfg.SpoolDir)
}

func removeEmptyRunDirs(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		// os.Remove leaves non-empty directories in place.
		_ = os.Remove(filepath.Join(dir, entry.Name()))
	}
}
