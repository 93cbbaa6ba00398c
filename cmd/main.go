package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/subloc/subloc/internal/config"
	"github.com/subloc/subloc/internal/httpapi"
	"github.com/subloc/subloc/internal/jobs"
	"github.com/subloc/subloc/internal/llm"
	"github.com/subloc/subloc/internal/persistence"
	"github.com/subloc/subloc/internal/service"
	"github.com/subloc/subloc/internal/translator"
	"github.com/subloc/subloc/pkg/log"
)

const shutdownTimeout = 10 * time.Second

type scheduler interface {
	Schedule(ctx context.Context) error
}

type cronEngine interface {
	Start()
	Stop() context.Context
}

type httpServer interface {
	ListenAndServe(addr string) error
	Shutdown(ctx context.Context) error
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Error("Failed to load configuration: %v", err)
		os.Exit(1)
	}
	log.InitLogger(log.ParseLevel(cfg.System.LogLevel))

	spool, err := persistence.NewSpool(cfg.SpoolDir())
	if err != nil {
		log.Error("Failed to prepare spool directory: %v", err)
		os.Exit(1)
	}
	store, err := persistence.NewStore(cfg.DBPath(), spool, cfg.Retention.HistoryLimit)
	if err != nil {
		log.Error("Failed to open database: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	client, err := llm.NewClient(&llm.Config{
		APIKey:      cfg.LLM.APIKey,
		APIURL:      cfg.LLM.APIURL,
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
		SiteURL:     cfg.LLM.SiteURL,
		AppName:     cfg.LLM.AppName,
	})
	if err != nil {
		log.Error("Failed to create LLM client: %v", err)
		os.Exit(1)
	}

	processor := service.NewProcessor(
		translator.NewLLMTranslator(client),
		cfg.Translate.BatchSize,
		cfg.Translate.ConcurrentLimit,
		store,
	)

	queue := jobs.NewQueue(1, store)
	queue.Start(runExecutor(queue, processor, store))
	defer queue.Stop()

	// The retention schedule uses a mandatory seconds field, so the cron
	// engine must parse with seconds too.
	engine := cron.New(cron.WithSeconds())
	retention := service.NewRetentionService(service.RetentionConfig{
		CronExpr:     cfg.Retention.CronExpr,
		MaxAge:       time.Duration(cfg.Retention.MaxAgeHours) * time.Hour,
		SpoolDir:     cfg.SpoolDir(),
		HistoryLimit: cfg.Retention.HistoryLimit,
	}, store, engine)

	httpSrv := httpapi.NewServer(queue, spool,
		httpapi.WithUI(cfg.HTTP.UIStaticDir, cfg.HTTP.UIEnabled),
		httpapi.WithHistoryStore(store),
		httpapi.WithMaxUploadBytes(cfg.HTTP.MaxUploadBytes()),
		httpapi.WithCORSOrigins(cfg.HTTP.CORSOrigins),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := runWithComponents(ctx, cfg, retention, engine, httpSrv); err != nil {
		log.Error("Fatal: %v", err)
		os.Exit(1)
	}
}

// runExecutor adapts the processor to the queue: each run is handed over
// as a snapshot, and file and progress updates flow back through the
// queue so API clients see them live.
func runExecutor(queue *jobs.Queue, processor *service.Processor, store *persistence.Store) jobs.Executor {
	return func(ctx context.Context, run *jobs.Run) error {
		callbacks := service.RunCallbacks{
			OnProgress: func(progress float64) {
				queue.UpdateProgress(run.ID, progress)
			},
			OnFile: func(item service.FileItem) {
				queue.UpdateFile(run.ID, item)
			},
			Checkpoints: func(ctx context.Context, fileID string) translator.CheckpointStore {
				cps, err := persistence.NewFileCheckpointStore(ctx, store, run.ID, fileID)
				if err != nil {
					log.Warn("Run %s: checkpoints unavailable for file %s: %v", run.ID, fileID, err)
					return nil
				}
				return cps
			},
		}
		return processor.Process(ctx, run.Files, run.Options, callbacks)
	}
}

// runWithComponents starts the cron engine and the HTTP server, then
// blocks until the context is cancelled or the server fails. Components
// are injected so tests can substitute fakes.
func runWithComponents(ctx context.Context, cfg *config.Config, retention scheduler, engine cronEngine, httpSrv httpServer) error {
	if err := retention.Schedule(ctx); err != nil {
		return err
	}
	engine.Start()
	defer engine.Stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening on %s", cfg.HTTP.Addr)
		errCh <- httpSrv.ListenAndServe(cfg.HTTP.Addr)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
