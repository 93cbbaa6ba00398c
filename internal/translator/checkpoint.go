package translator

import "context"

// CheckpointStore persists translated batches so an interrupted run can be
// resumed without re-translating spans that already completed. Load and Save
// address a batch by its half-open entry range.
type CheckpointStore interface {
	Load(start, end int) ([]string, bool)
	Save(ctx context.Context, start, end int, translated []string) error
}

type checkpointStoreContextKey struct{}

// WithCheckpointStore attaches store to ctx for the duration of a pipeline
// run. A nil store leaves ctx untouched.
func WithCheckpointStore(ctx context.Context, store CheckpointStore) context.Context {
	if store == nil {
		return ctx
	}
	return context.WithValue(ctx, checkpointStoreContextKey{}, store)
}

func checkpointStoreFromContext(ctx context.Context) CheckpointStore {
	if ctx == nil {
		return nil
	}
	store, _ := ctx.Value(checkpointStoreContextKey{}).(CheckpointStore)
	return store
}
