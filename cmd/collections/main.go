// Command collections reports quotes whose expiration date has passed and
// sends the summary to the collections contact. It always exits 0 so a
// scheduler never retries it.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/puntourbano/eventdesk/cmd/eventdesk/cli"
	"github.com/puntourbano/eventdesk/internal/app"
	"github.com/puntourbano/eventdesk/internal/collections"
	"github.com/puntourbano/eventdesk/internal/platform/db"
	"github.com/puntourbano/eventdesk/internal/quotes"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadBatchConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		return
	}
	logger := app.NewLogger(cfg)

	to := flag.String("to", cfg.CollectionsDestination, "destination phone number")
	date := flag.String("date", "", "reference date YYYY-MM-DD (default today)")
	flag.Parse()

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		return
	}
	defer pool.Close()

	sender, err := app.NewSender(cfg, logger)
	if err != nil {
		logger.Error("init sender", slog.Any("error", err))
		return
	}

	collector := collections.NewCollector(quotes.NewRepository(pool), sender, cfg.Location(), logger)
	cli.ExpirationsCommand(ctx, collector, cli.ExpirationsOptions{
		Destination:   *to,
		ReferenceDate: *date,
	})
}
