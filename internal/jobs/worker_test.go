package jobs

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_Worker_TransitionsStatus(t *testing.T) {
	q := NewQueue(1, nil)
	q.Start(func(_ context.Context, run *Run) error {
		require.Len(t, run.Files, 1)
		return nil
	})
	defer q.Stop()

	run := q.Enqueue(runRequest("a.srt"))

	require.Eventually(t, func() bool {
		got, ok := q.Get(run.ID)
		if !ok || got == nil {
			return false
		}
		return got.Status == StatusSuccess
	}, time.Second, 10*time.Millisecond)
}

func TestQueue_Worker_RunsOneRunAtATime(t *testing.T) {
	q := NewQueue(1, nil)

	var mu sync.Mutex
	active := 0
	maxActive := 0
	q.Start(func(_ context.Context, _ *Run) error {
		mu.Lock()
		active++
		if active > maxActive {
			maxActive = active
		}
		mu.Unlock()

		time.Sleep(5 * time.Millisecond)

		mu.Lock()
		active--
		mu.Unlock()
		return nil
	})
	defer q.Stop()

	runs := make([]*Run, 0, 3)
	for _, name := range []string{"a.srt", "b.srt", "c.srt"} {
		runs = append(runs, q.Enqueue(runRequest(name)))
	}

	for _, run := range runs {
		require.Eventually(t, func() bool {
			got, ok := q.Get(run.ID)
			return ok && got.Status == StatusSuccess
		}, time.Second, 10*time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, maxActive)
}
