package persistence

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/subloc/subloc/internal/jobs"
	"github.com/subloc/subloc/internal/service"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Store keeps runs, history and batch checkpoints in SQLite and run
// documents in the spool. It implements jobs.Store, service.HistorySink
// and service.HistoryPruner.
type Store struct {
	db           *sql.DB
	spool        *Spool
	historyLimit int
}

func NewStore(path string, spool *Spool, historyLimit int) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &Store{db: db, spool: spool, historyLimit: historyLimit}
	if err := store.init(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		return fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		return fmt.Errorf("set busy timeout: %w", err)
	}
	// Bootstrap schema_migrations table so we can track applied versions.
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		version := migrationVersion(entry.Name())
		if version <= 0 {
			continue
		}
		var exists int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, version).Scan(&exists); err != nil {
			return fmt.Errorf("check migration %s: %w", entry.Name(), err)
		}
		if exists > 0 {
			continue
		}
		content, err := migrationFiles.ReadFile(filepath.Join("migrations", entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (?)`, version); err != nil {
			return fmt.Errorf("record migration %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// migrationVersion extracts the leading integer from a migration filename (e.g. "001_init.sql" → 1).
func migrationVersion(name string) int {
	for i, c := range name {
		if c < '0' || c > '9' {
			if i == 0 {
				return 0
			}
			n, _ := strconv.Atoi(name[:i])
			return n
		}
	}
	n, _ := strconv.Atoi(name)
	return n
}

func (s *Store) LoadRuns(ctx context.Context) ([]*jobs.Run, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, options_json, files_json, status, progress, error, created_at, updated_at
		 FROM runs
		 ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ret := make([]*jobs.Run, 0)
	for rows.Next() {
		var item jobs.Run
		var status string
		var optionsJSON string
		var filesJSON string
		if err := rows.Scan(
			&item.ID,
			&optionsJSON,
			&filesJSON,
			&status,
			&item.Progress,
			&item.Error,
			&item.CreatedAt,
			&item.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(optionsJSON), &item.Options); err != nil {
			return nil, fmt.Errorf("decode options for run %s: %w", item.ID, err)
		}
		var fileRows []fileRow
		if err := json.Unmarshal([]byte(filesJSON), &fileRows); err != nil {
			return nil, fmt.Errorf("decode files for run %s: %w", item.ID, err)
		}
		item.Files = fromFileRows(fileRows)
		item.Status = jobs.Status(status)
		ret = append(ret, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ret, nil
}

func (s *Store) UpsertRun(ctx context.Context, run *jobs.Run) error {
	if run == nil {
		return fmt.Errorf("run is nil")
	}
	optionsJSON, err := json.Marshal(run.Options)
	if err != nil {
		return err
	}
	filesJSON, err := json.Marshal(toFileRows(run.Files))
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO runs (
			id, options_json, files_json, status, progress, error, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			options_json=excluded.options_json,
			files_json=excluded.files_json,
			status=excluded.status,
			progress=excluded.progress,
			error=excluded.error,
			updated_at=excluded.updated_at`,
		run.ID,
		string(optionsJSON),
		string(filesJSON),
		string(run.Status),
		run.Progress,
		run.Error,
		run.CreatedAt,
		run.UpdatedAt,
	)
	return err
}

func (s *Store) DeleteRun(ctx context.Context, runID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, runID)
	return err
}

// DeleteRunData removes everything stored outside the run row: batch
// checkpoints and the spooled documents.
func (s *Store) DeleteRunData(ctx context.Context, runID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM run_batch_checkpoints WHERE run_id = ?`, runID); err != nil {
		return err
	}
	if s.spool != nil {
		if err := s.spool.RemoveRun(runID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) SaveBatchCheckpoint(ctx context.Context, runID, fileID string, batchStart, batchEnd int, translatedLines []string) error {
	payload, err := json.Marshal(translatedLines)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO run_batch_checkpoints (run_id, file_id, batch_start, batch_end, translated_json, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(run_id, file_id, batch_start, batch_end) DO UPDATE SET
			translated_json=excluded.translated_json,
			updated_at=excluded.updated_at`,
		runID,
		fileID,
		batchStart,
		batchEnd,
		string(payload),
		time.Now().UTC(),
	)
	return err
}

func (s *Store) LoadBatchCheckpoints(ctx context.Context, runID, fileID string) ([]BatchCheckpoint, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT run_id, file_id, batch_start, batch_end, translated_json, updated_at
		 FROM run_batch_checkpoints
		 WHERE run_id = ? AND file_id = ?
		 ORDER BY batch_start ASC`,
		runID,
		fileID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ret := make([]BatchCheckpoint, 0)
	for rows.Next() {
		var item BatchCheckpoint
		var translatedJSON string
		if err := rows.Scan(&item.RunID, &item.FileID, &item.BatchStart, &item.BatchEnd, &translatedJSON, &item.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(translatedJSON), &item.TranslatedLines); err != nil {
			return nil, err
		}
		ret = append(ret, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ret, nil
}

// AppendHistory inserts one record and trims the table down to the
// configured bound in the same transaction.
func (s *Store) AppendHistory(ctx context.Context, record service.HistoryRecord) error {
	createdAt := record.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(
		ctx,
		`INSERT INTO history (filename, source_lang, target_lang, word_count, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		record.Filename,
		record.SourceLang,
		record.TargetLang,
		record.WordCount,
		createdAt,
	); err != nil {
		return err
	}

	if s.historyLimit > 0 {
		if _, err = tx.ExecContext(
			ctx,
			`DELETE FROM history WHERE id NOT IN (
				SELECT id FROM history ORDER BY created_at DESC, id DESC LIMIT ?
			)`,
			s.historyLimit,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListHistory returns the most recent records, newest first.
func (s *Store) ListHistory(ctx context.Context, limit int) ([]service.HistoryRecord, error) {
	if limit <= 0 {
		limit = s.historyLimit
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, filename, source_lang, target_lang, word_count, created_at
		 FROM history
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ret := make([]service.HistoryRecord, 0)
	for rows.Next() {
		var item service.HistoryRecord
		if err := rows.Scan(&item.ID, &item.Filename, &item.SourceLang, &item.TargetLang, &item.WordCount, &item.CreatedAt); err != nil {
			return nil, err
		}
		ret = append(ret, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ret, nil
}

// PruneHistory deletes everything beyond the keep most recent records and
// reports how many rows went away.
func (s *Store) PruneHistory(ctx context.Context, keep int) (int64, error) {
	if keep <= 0 {
		keep = s.historyLimit
	}
	if keep <= 0 {
		return 0, nil
	}
	res, err := s.db.ExecContext(
		ctx,
		`DELETE FROM history WHERE id NOT IN (
			SELECT id FROM history ORDER BY created_at DESC, id DESC LIMIT ?
		)`,
		keep,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
