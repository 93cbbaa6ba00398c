package persistence

import (
	"context"
	"fmt"
	"sync"
)

// FileCheckpointStore caches the batch checkpoints of a single file within
// a run and writes new ones through to SQLite. It satisfies
// translator.CheckpointStore.
type FileCheckpointStore struct {
	store  *Store
	runID  string
	fileID string

	mu     sync.RWMutex
	cached map[string][]string
}

func NewFileCheckpointStore(ctx context.Context, store *Store, runID, fileID string) (*FileCheckpointStore, error) {
	if store == nil {
		return nil, fmt.Errorf("store is nil")
	}
	if runID == "" || fileID == "" {
		return nil, fmt.Errorf("run id and file id are required")
	}

	checkpoints, err := store.LoadBatchCheckpoints(ctx, runID, fileID)
	if err != nil {
		return nil, err
	}

	cached := make(map[string][]string, len(checkpoints))
	for _, cp := range checkpoints {
		cached[batchKey(cp.BatchStart, cp.BatchEnd)] = append([]string(nil), cp.TranslatedLines...)
	}

	return &FileCheckpointStore{
		store:  store,
		runID:  runID,
		fileID: fileID,
		cached: cached,
	}, nil
}

func (s *FileCheckpointStore) Load(start, end int) ([]string, bool) {
	if s == nil {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	ret, ok := s.cached[batchKey(start, end)]
	if !ok {
		return nil, false
	}
	return append([]string(nil), ret...), true
}

func (s *FileCheckpointStore) Save(ctx context.Context, start, end int, translated []string) error {
	if s == nil {
		return nil
	}
	copyData := append([]string(nil), translated...)
	if err := s.store.SaveBatchCheckpoint(ctx, s.runID, s.fileID, start, end, copyData); err != nil {
		return err
	}
	s.mu.Lock()
	s.cached[batchKey(start, end)] = copyData
	s.mu.Unlock()
	return nil
}

func batchKey(start, end int) string {
	return fmt.Sprintf("%d:%d", start, end)
}
