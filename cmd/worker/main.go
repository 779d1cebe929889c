package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/puntourbano/eventdesk/internal/app"
	"github.com/puntourbano/eventdesk/internal/collections"
	jobmetrics "github.com/puntourbano/eventdesk/internal/jobs"
	"github.com/puntourbano/eventdesk/internal/platform/db"
	"github.com/puntourbano/eventdesk/internal/quotes"
	"github.com/puntourbano/eventdesk/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadBatchConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	sender, err := app.NewSender(cfg, logger)
	if err != nil {
		logger.Error("init sender", slog.Any("error", err))
		os.Exit(1)
	}

	collector := collections.NewCollector(quotes.NewRepository(pool), sender, cfg.Location(), logger)
	scanJob := jobs.NewExpirationScanJob(collector, cfg.CollectionsDestination, logger,
		jobmetrics.NewMetrics(nil))

	scanTask, err := jobs.NewExpirationScanTask(jobs.ExpirationScanPayload{})
	if err != nil {
		logger.Error("build expiration scan task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskCollectionsExpirationScan, Handler: scanJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.CollectionsCron, Task: scanTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
		Location: cfg.Location(),
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("worker started", slog.String("cron", cfg.CollectionsCron), slog.String("timezone", cfg.Timezone))
	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
