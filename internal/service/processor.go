package service

import (
	"context"
	"os"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/subloc/subloc/internal/subtitle"
	"github.com/subloc/subloc/internal/translator"
	"github.com/subloc/subloc/pkg/file"
	"github.com/subloc/subloc/pkg/log"
)

// RunCallbacks let the caller observe a run while it executes. Every field
// is optional.
type RunCallbacks struct {
	// OnProgress receives overall run progress in percent, 0 to 100.
	// It stays below 100 until every file has reached a terminal status.
	OnProgress func(progress float64)

	// OnFile receives a snapshot of a file item after each status change.
	OnFile func(item FileItem)

	// Checkpoints, when set, supplies a per-file checkpoint store so that
	// a re-enqueued run skips batches that already completed.
	Checkpoints func(ctx context.Context, fileID string) translator.CheckpointStore
}

// Processor runs uploaded subtitle files through parse, translate and
// reconstruct. Files are processed one at a time, in upload order.
type Processor struct {
	pipeline *translator.Pipeline
	history  HistorySink
}

func NewProcessor(client translator.Client, batchSize, concurrentLimit int, history HistorySink) *Processor {
	return &Processor{
		pipeline: translator.NewPipeline(client, batchSize, concurrentLimit),
		history:  history,
	}
}

// Process translates files sequentially. A failing file is marked error and
// the run moves on to the next one; Process itself only fails on invalid
// input, never because of an individual file.
func (p *Processor) Process(ctx context.Context, files []*FileItem, opts RunOptions, cb RunCallbacks) error {
	if len(files) == 0 {
		return NewError(ErrValidation, "no files to process")
	}
	if err := opts.Validate(); err != nil {
		return err
	}

	total := len(files)
	report := func(fileIndex int, fileProgress float64) {
		if cb.OnProgress == nil {
			return
		}
		cb.OnProgress((float64(fileIndex) + fileProgress) / float64(total) * 100)
	}

	for i, item := range files {
		fileCtx := ctx
		if cb.Checkpoints != nil {
			if store := cb.Checkpoints(ctx, item.ID); store != nil {
				fileCtx = translator.WithCheckpointStore(ctx, store)
			}
		}

		onBatch := func(fileProgress float64) { report(i, fileProgress) }
		p.processFile(fileCtx, item, opts, onBatch, cb.OnFile)

		if i < total-1 {
			report(i+1, 0)
		}
	}

	if cb.OnProgress != nil {
		cb.OnProgress(100)
	}
	return nil
}

func (p *Processor) processFile(ctx context.Context, item *FileItem, opts RunOptions, onBatch func(float64), onFile func(FileItem)) {
	item.Status = StatusProcessing
	emitFile(onFile, item)

	err := SafeExecute(func() error {
		return p.translateFile(ctx, item, opts, onBatch)
	})
	if err != nil {
		item.Status = StatusError
		item.Error = err.Error()
		log.Error("File %s failed: %v", item.Name, err)
		emitFile(onFile, item)
		return
	}

	item.Status = StatusDone
	item.Error = ""
	emitFile(onFile, item)

	p.appendHistory(ctx, item, opts)
}

func (p *Processor) translateFile(ctx context.Context, item *FileItem, opts RunOptions, onBatch func(float64)) error {
	if item.OriginalText == "" && item.Path != "" {
		data, err := os.ReadFile(item.Path)
		if err != nil {
			return WrapError(err, ErrFileRead, "failed to read subtitle file").WithContext("path", item.Path)
		}
		item.OriginalText = string(data)
	}
	if strings.TrimSpace(item.OriginalText) == "" {
		return NewError(ErrValidation, "subtitle file is empty").WithContext("file", item.Name)
	}

	doc := subtitle.Parse(item.OriginalText, item.Name)
	item.Format = doc.Format

	source := opts.SourceLang
	if IsAutoSource(source) {
		source = ""
		if tag := subtitle.DetectLanguage(doc.Entries); tag != language.Und {
			source = tag.String()
		}
	}
	item.SourceLang = source

	if opts.StripSDH {
		for _, e := range doc.TranslatableEntries() {
			e.Text = subtitle.StripSDH(e.Text)
		}
	}

	// Entries stripped down to nothing drop out of the translatable set.
	entries := doc.TranslatableEntries()
	report := p.pipeline.Run(ctx, entries, translator.Options{
		SourceLang:   source,
		TargetLang:   opts.TargetLang,
		CustomPrompt: opts.CustomPrompt,
	}, onBatch)
	if err := report.Err(); err != nil {
		log.Warn("File %s: %d of %d entries keep their original text: %v",
			item.Name, report.Failed, report.Total, err)
	}

	out, err := subtitle.Reconstruct(doc)
	if err != nil {
		return WrapError(err, ErrReconstruct, "failed to reconstruct subtitle document").WithContext("file", item.Name)
	}

	item.TranslatedText = out
	item.WordCount = countWords(entries)

	// Files that came in through the spool leave through it too, so the
	// translated document survives a restart.
	if item.Path != "" {
		outPath := file.ReplaceExt(item.Path, "out")
		if err := os.WriteFile(outPath, []byte(out), 0o644); err != nil {
			return WrapError(err, ErrFileWrite, "failed to write translated document").WithContext("path", outPath)
		}
	}
	return nil
}

func (p *Processor) appendHistory(ctx context.Context, item *FileItem, opts RunOptions) {
	if p.history == nil {
		return
	}
	record := HistoryRecord{
		Filename:   item.Name,
		SourceLang: item.SourceLang,
		TargetLang: opts.TargetLang,
		WordCount:  item.WordCount,
		CreatedAt:  time.Now(),
	}
	if err := p.history.AppendHistory(ctx, record); err != nil {
		log.Warn("Failed to record history for %s: %v", item.Name, err)
	}
}

func countWords(entries []*subtitle.Entry) int {
	total := 0
	for _, e := range entries {
		total += len(strings.Fields(e.Text))
	}
	return total
}

func emitFile(onFile func(FileItem), item *FileItem) {
	if onFile != nil {
		onFile(*item)
	}
}
