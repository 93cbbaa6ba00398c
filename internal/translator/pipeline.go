package translator

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/subloc/subloc/internal/subtitle"
	"github.com/subloc/subloc/pkg/log"
)

const (
	// DefaultBatchSize caps how many cues travel in one request.
	DefaultBatchSize = 100
	// DefaultConcurrentLimit caps how many batches are in flight at once.
	DefaultConcurrentLimit = 5
)

// Pipeline drives a document's translatable entries through the client
// in fixed batches. Batches are dispatched in windows: every batch in a
// window runs concurrently and the next window starts only after the
// current one has fully settled. A failed batch keeps its entries'
// original text and never aborts the run.
type Pipeline struct {
	client          Client
	batchSize       int
	concurrentLimit int
}

func NewPipeline(client Client, batchSize, concurrentLimit int) *Pipeline {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if concurrentLimit <= 0 {
		concurrentLimit = DefaultConcurrentLimit
	}

	return &Pipeline{
		client:          client,
		batchSize:       batchSize,
		concurrentLimit: concurrentLimit,
	}
}

// BatchResult records the outcome of one batch: the half-open entry
// range it covered and the error when its request failed.
type BatchResult struct {
	Index int
	Start int
	End   int
	Err   error
}

// Report summarizes one pipeline run.
type Report struct {
	Total      int // translatable entries handed to Run
	Translated int // entries whose batch succeeded
	Failed     int // entries kept original because their batch failed
	Batches    []*BatchResult
}

// Err aggregates batch failures; nil when every batch succeeded.
func (r *Report) Err() error {
	var failed int
	var first error
	for _, b := range r.Batches {
		if b.Err != nil {
			failed++
			if first == nil {
				first = b.Err
			}
		}
	}
	if failed == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d batches failed: %w", failed, len(r.Batches), first)
}

// Run translates the entries in place. Progress is reported after each
// batch settles as completed/total, clamped to 0.99; only the caller
// reports full completion.
func (p *Pipeline) Run(ctx context.Context, entries []*subtitle.Entry, opts Options, onProgress func(float64)) *Report {
	report := &Report{Total: len(entries)}
	if len(entries) == 0 {
		return report
	}

	report.Batches = p.partition(len(entries))

	var (
		mu        sync.Mutex
		completed int
	)
	settle := func(count int) {
		mu.Lock()
		defer mu.Unlock()
		completed += count
		if onProgress != nil {
			progress := float64(completed) / float64(report.Total)
			if progress > 0.99 {
				progress = 0.99
			}
			onProgress(progress)
		}
	}

	for start := 0; start < len(report.Batches); start += p.concurrentLimit {
		end := min(start+p.concurrentLimit, len(report.Batches))
		window := report.Batches[start:end]

		g := new(errgroup.Group)
		for _, b := range window {
			b := b
			g.Go(func() error {
				p.runBatch(ctx, entries, b, opts)
				settle(b.End - b.Start)
				// Failures live in the batch result; returning them here
				// would cancel sibling batches.
				return nil
			})
		}
		_ = g.Wait()
	}

	for _, b := range report.Batches {
		if b.Err != nil {
			report.Failed += b.End - b.Start
		} else {
			report.Translated += b.End - b.Start
		}
	}

	return report
}

func (p *Pipeline) partition(total int) []*BatchResult {
	var batches []*BatchResult
	for start := 0; start < total; start += p.batchSize {
		batches = append(batches, &BatchResult{
			Index: len(batches),
			Start: start,
			End:   min(start+p.batchSize, total),
		})
	}
	return batches
}

func (p *Pipeline) runBatch(ctx context.Context, entries []*subtitle.Entry, b *BatchResult, opts Options) {
	batch := entries[b.Start:b.End]
	texts := make([]string, len(batch))
	for i, e := range batch {
		texts[i] = e.Text
	}

	checkpoints := checkpointStoreFromContext(ctx)

	var translations []string
	cached := false
	if checkpoints != nil {
		translations, cached = checkpoints.Load(b.Start, b.End)
	}

	if !cached {
		var err error
		translations, err = p.client.TranslateBatch(ctx, texts, opts)
		if err != nil {
			b.Err = fmt.Errorf("batch %d (entries %d-%d) failed: %w", b.Index+1, b.Start+1, b.End, err)
			log.Warn("translation batch %d failed, keeping original text for entries %d-%d: %v", b.Index+1, b.Start+1, b.End, err)
			return
		}
		if checkpoints != nil {
			if err := checkpoints.Save(ctx, b.Start, b.End, translations); err != nil {
				log.Warn("failed to checkpoint batch %d (entries %d-%d): %v", b.Index+1, b.Start+1, b.End, err)
			}
		}
	}

	if len(translations) != len(batch) {
		log.Warn("translation batch %d returned %d values for %d entries", b.Index+1, len(translations), len(batch))
	}

	for i, e := range batch {
		// Positions the provider left out or blank keep the original.
		if i < len(translations) && strings.TrimSpace(translations[i]) != "" {
			e.Text = translations[i]
		}
	}
}
