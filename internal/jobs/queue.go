package jobs

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/subloc/subloc/internal/service"
	"github.com/subloc/subloc/pkg/log"
)

type Executor func(ctx context.Context, run *Run) error

// Queue holds translation runs and feeds them to workers in enqueue order.
// Runs are kept in memory and mirrored to the store on every status change
// so a restart can pick up where it left off.
type Queue struct {
	workerCount int
	maxRuns     int
	store       Store

	mu         sync.RWMutex
	runs       map[string]*Run
	started    bool
	pendingIDs chan string
	stopCh     chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup
}

func NewQueue(workerCount int, store Store) *Queue {
	if workerCount <= 0 {
		workerCount = 1
	}
	q := &Queue{
		workerCount: workerCount,
		maxRuns:     100,
		store:       store,
		runs:        make(map[string]*Run),
		pendingIDs:  make(chan string, 1024),
		stopCh:      make(chan struct{}),
	}
	q.hydrateFromStore(context.Background())
	return q
}

func (q *Queue) Enqueue(req RunRequest) *Run {
	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now()
	run := &Run{
		ID:        id,
		Options:   req.Options,
		Files:     req.Files,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	q.mu.Lock()
	q.runs[run.ID] = run
	started := q.started
	snapshot := cloneRun(run)
	q.mu.Unlock()

	q.persistRun(snapshot)
	if started {
		q.enqueuePendingID(run.ID)
	}
	return snapshot
}

func (q *Queue) Get(id string) (*Run, bool) {
	q.mu.RLock()
	run, ok := q.runs[id]
	q.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return cloneRun(run), true
}

// List returns run snapshots, newest first.
func (q *Queue) List() []*Run {
	q.mu.RLock()
	ret := make([]*Run, 0, len(q.runs))
	for _, run := range q.runs {
		ret = append(ret, cloneRun(run))
	}
	q.mu.RUnlock()

	sort.Slice(ret, func(i, j int) bool {
		if !ret[i].CreatedAt.Equal(ret[j].CreatedAt) {
			return ret[i].CreatedAt.After(ret[j].CreatedAt)
		}
		return ret[i].ID < ret[j].ID
	})
	return ret
}

func (q *Queue) Start(exec Executor) {
	q.mu.Lock()
	if q.started {
		q.mu.Unlock()
		return
	}
	q.started = true

	type pendingRun struct {
		id        string
		createdAt time.Time
	}
	pending := make([]pendingRun, 0)
	for id, run := range q.runs {
		if run.Status == StatusPending {
			pending = append(pending, pendingRun{id: id, createdAt: run.CreatedAt})
		}
	}
	q.mu.Unlock()

	sort.Slice(pending, func(i, j int) bool {
		return pending[i].createdAt.Before(pending[j].createdAt)
	})
	for _, p := range pending {
		q.enqueuePendingID(p.id)
	}

	for range q.workerCount {
		q.wg.Add(1)
		go q.worker(exec)
	}
}

func (q *Queue) Stop() {
	q.stopOnce.Do(func() {
		close(q.stopCh)
		q.wg.Wait()
	})
}

func (q *Queue) worker(exec Executor) {
	defer q.wg.Done()

	for {
		select {
		case <-q.stopCh:
			return
		case id := <-q.pendingIDs:
			run, ok := q.markRunning(id)
			if !ok {
				continue
			}

			err := exec(context.Background(), run)
			if err != nil {
				q.markFailed(id, err)
				continue
			}
			q.markSuccess(id)
		}
	}
}

func (q *Queue) enqueuePendingID(id string) {
	select {
	case q.pendingIDs <- id:
	default:
		go func() { q.pendingIDs <- id }()
	}
}

// UpdateProgress records overall run progress while the run is executing.
// Progress never moves backwards.
func (q *Queue) UpdateProgress(id string, progress float64) {
	q.mu.Lock()
	defer q.mu.Unlock()

	run, ok := q.runs[id]
	if !ok || run.Status != StatusRunning {
		return
	}
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	if progress > run.Progress {
		run.Progress = progress
		run.UpdatedAt = time.Now()
	}
}

// UpdateFile replaces the stored state of one file within a run.
func (q *Queue) UpdateFile(id string, item service.FileItem) {
	q.mu.Lock()
	defer q.mu.Unlock()

	run, ok := q.runs[id]
	if !ok {
		return
	}
	for i, f := range run.Files {
		if f != nil && f.ID == item.ID {
			clone := item
			run.Files[i] = &clone
			run.UpdatedAt = time.Now()
			return
		}
	}
}

func (q *Queue) markRunning(id string) (*Run, bool) {
	q.mu.Lock()
	run, ok := q.runs[id]
	if !ok || run.Status != StatusPending {
		q.mu.Unlock()
		return nil, false
	}
	run.Status = StatusRunning
	run.UpdatedAt = time.Now()
	snapshot := cloneRun(run)
	q.mu.Unlock()

	q.persistRun(snapshot)
	return snapshot, true
}

func (q *Queue) markSuccess(id string) {
	q.mu.Lock()
	run, ok := q.runs[id]
	if !ok {
		q.mu.Unlock()
		return
	}
	run.Status = StatusSuccess
	run.Progress = 100
	run.Error = ""
	run.UpdatedAt = time.Now()
	pruned := q.pruneTerminalRunsLocked()
	snapshot := cloneRun(run)
	q.mu.Unlock()

	q.persistRun(snapshot)
	q.deleteRunsFromStore(pruned)
}

func (q *Queue) markFailed(id string, err error) {
	q.mu.Lock()
	run, ok := q.runs[id]
	if !ok {
		q.mu.Unlock()
		return
	}
	run.Status = StatusFailed
	if err != nil {
		run.Error = err.Error()
	}
	run.UpdatedAt = time.Now()
	pruned := q.pruneTerminalRunsLocked()
	snapshot := cloneRun(run)
	q.mu.Unlock()

	q.persistRun(snapshot)
	q.deleteRunsFromStore(pruned)
}

func (q *Queue) pruneTerminalRunsLocked() []string {
	if q.maxRuns <= 0 || len(q.runs) <= q.maxRuns {
		return nil
	}

	type candidate struct {
		id        string
		updatedAt time.Time
	}
	terminal := make([]candidate, 0, len(q.runs))
	for id, run := range q.runs {
		if run == nil || !run.Status.Terminal() {
			continue
		}
		terminal = append(terminal, candidate{id: id, updatedAt: run.UpdatedAt})
	}
	if len(terminal) == 0 {
		return nil
	}

	sort.Slice(terminal, func(i, j int) bool {
		return terminal[i].updatedAt.Before(terminal[j].updatedAt)
	})

	toRemove := len(q.runs) - q.maxRuns
	if toRemove <= 0 {
		return nil
	}
	if toRemove > len(terminal) {
		toRemove = len(terminal)
	}

	pruned := make([]string, 0, toRemove)
	for i := 0; i < toRemove; i++ {
		delete(q.runs, terminal[i].id)
		pruned = append(pruned, terminal[i].id)
	}
	return pruned
}

func (q *Queue) deleteRunsFromStore(ids []string) {
	if q.store == nil || len(ids) == 0 {
		return
	}
	for _, id := range ids {
		if err := q.store.DeleteRunData(context.Background(), id); err != nil {
			log.Error("Failed to delete data for pruned run %s: %v", id, err)
		}
		if err := q.store.DeleteRun(context.Background(), id); err != nil {
			log.Error("Failed to delete pruned run %s from store: %v", id, err)
		}
	}
}

func (q *Queue) hydrateFromStore(ctx context.Context) {
	if q.store == nil {
		return
	}
	loaded, err := q.store.LoadRuns(ctx)
	if err != nil {
		log.Error("Failed to load runs from store: %v", err)
		return
	}

	now := time.Now()
	toPersist := make([]*Run, 0)
	q.mu.Lock()
	for _, raw := range loaded {
		if raw == nil || raw.ID == "" {
			continue
		}
		run := cloneRun(raw)
		if run.Status == StatusRunning {
			// The previous process died mid-run; start it over. Batch
			// checkpoints keep the rework small.
			run.Status = StatusPending
			run.Progress = 0
			run.UpdatedAt = now
			toPersist = append(toPersist, cloneRun(run))
		}
		q.runs[run.ID] = run
	}
	q.mu.Unlock()

	for _, run := range toPersist {
		q.persistRun(run)
	}
}

func (q *Queue) persistRun(run *Run) {
	if q.store == nil || run == nil {
		return
	}
	if err := q.store.UpsertRun(context.Background(), run); err != nil {
		log.Error("Failed to persist run %s: %v", run.ID, err)
	}
}

func cloneRun(run *Run) *Run {
	if run == nil {
		return nil
	}
	tmp := *run
	if run.Files != nil {
		files := make([]*service.FileItem, len(run.Files))
		for i, f := range run.Files {
			if f == nil {
				continue
			}
			c := *f
			files[i] = &c
		}
		tmp.Files = files
	}
	return &tmp
}
