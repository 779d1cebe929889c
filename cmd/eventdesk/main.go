package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/puntourbano/eventdesk/cmd/eventdesk/cli"
	"github.com/puntourbano/eventdesk/internal/app"
	"github.com/puntourbano/eventdesk/internal/attachments"
	"github.com/puntourbano/eventdesk/internal/auth"
	"github.com/puntourbano/eventdesk/internal/calendar"
	"github.com/puntourbano/eventdesk/internal/catalog"
	"github.com/puntourbano/eventdesk/internal/collections"
	"github.com/puntourbano/eventdesk/internal/observability"
	"github.com/puntourbano/eventdesk/internal/platform/cache"
	"github.com/puntourbano/eventdesk/internal/platform/db"
	"github.com/puntourbano/eventdesk/internal/quotes"
	"github.com/puntourbano/eventdesk/internal/realtime"
	"github.com/puntourbano/eventdesk/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	if len(os.Args) > 1 && os.Args[1] == "jobs" {
		os.Exit(runJobs(ctx, cfg, os.Args[2:]))
	}

	if err := serve(ctx, cfg, logger); err != nil {
		logger.Error("eventdesk", slog.Any("error", err))
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		return err
	}
	defer dbpool.Close()

	var publisher realtime.Publisher = realtime.Discard{}
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, change events disabled", slog.Any("error", err))
	} else {
		publisher = realtime.NewPublisher(redisClient)
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	store, err := app.NewStore(cfg)
	if err != nil {
		return err
	}
	sender, err := app.NewSender(cfg, logger)
	if err != nil {
		return err
	}

	quoteRepo := quotes.NewRepository(dbpool)
	quoteService := quotes.NewService(quotes.Deps{
		Repo:      quoteRepo,
		Events:    calendar.NewRepository(dbpool),
		Storage:   store,
		Paths:     attachments.NewPathGenerator(),
		Changes:   publisher,
		Messenger: sender,
		ReviewTo:  cfg.ReviewDestination,
		Logger:    logger,
	})
	collector := collections.NewCollector(quoteRepo, sender, cfg.Location(), logger)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	params := app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		Auth:               auth.NewMiddleware([]byte(cfg.AuthJWTSecret), logger),
		QuotesHandler:      quotes.NewHandler(quoteService, logger),
		CatalogHandler:     catalog.NewHandler(catalog.NewRepository(dbpool), logger),
		CollectionsHandler: collections.NewHandler(collector, cfg.CollectionsDestination, logger),
		JobHandler:         jobs.NewHandler(inspector, logger),
		Metrics:            observability.NewMetrics(),
	}
	if cfg.StorageDriver == app.StorageDisk {
		params.FilesDir = cfg.StorageDir
	}

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      app.NewRouter(params),
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	if redisClient != nil {
		g.Go(func() error {
			watchChanges(gctx, redisClient, logger)
			return nil
		})
	}
	return g.Wait()
}

// watchChanges logs quote change events until ctx ends.
func watchChanges(ctx context.Context, client *redis.Client, logger *slog.Logger) {
	sub, err := realtime.Subscribe(ctx, client)
	if err != nil {
		logger.Warn("subscribe to changes", slog.Any("error", err))
		return
	}
	defer sub.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-sub.Events():
			if !ok {
				return
			}
			logger.Debug("change", slog.String("entity", change.Entity), slog.String("id", change.ID), slog.String("op", change.Op))
		}
	}
}

func runJobs(ctx context.Context, cfg *app.Config, args []string) int {
	jobsCLI, err := cli.NewJobsCLI(cfg.RedisAddr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer jobsCLI.Close()

	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: eventdesk jobs trigger <task> [destination] [YYYY-MM-DD] | stats | scheduled")
		return 2
	}
	switch args[0] {
	case "trigger":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: eventdesk jobs trigger <task> [destination] [YYYY-MM-DD]")
			return 2
		}
		info, err := jobsCLI.Trigger(ctx, args[1], args[2:]...)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Printf("enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
	case "stats":
		stats, err := jobsCLI.InspectQueue(ctx)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Printf("queue=%s pending=%d active=%d scheduled=%d retry=%d\n", stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry)
	case "scheduled":
		infos, err := jobsCLI.ListScheduled(ctx, 20)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		for _, info := range infos {
			fmt.Printf("%s %s next=%s\n", info.ID, info.Type, info.NextProcessAt.Format(time.RFC3339))
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown jobs command %q\n", args[0])
		return 2
	}
	return 0
}
