package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/puntourbano/eventdesk/internal/collections"
	jobmetrics "github.com/puntourbano/eventdesk/internal/jobs"
	"github.com/puntourbano/eventdesk/internal/quotes"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

type collectionsNotifier interface {
	Notify(ctx context.Context, ref time.Time, dest string) (collections.Result, error)
}

// ExpirationScanJob runs the collections check from the queue.
type ExpirationScanJob struct {
	Collector   collectionsNotifier
	Destination string
	Logger      *slog.Logger
	Metrics     *jobmetrics.Metrics
}

// NewExpirationScanJob initialises the expiration scan handler. destination
// is used when the task payload carries none.
func NewExpirationScanJob(collector collectionsNotifier, destination string, logger *slog.Logger, metrics *jobmetrics.Metrics) *ExpirationScanJob {
	return &ExpirationScanJob{
		Collector:   collector,
		Destination: destination,
		Logger:      logger,
		Metrics:     metrics,
	}
}

// Handle executes the expiration scan.
func (j *ExpirationScanJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Collector == nil {
		return errors.New("expiration scan: handler not configured")
	}
	var payload ExpirationScanPayload
	if len(t.Payload()) > 0 {
		if decodeErr := json.Unmarshal(t.Payload(), &payload); decodeErr != nil {
			return fmt.Errorf("expiration scan: decode payload: %v: %w", decodeErr, asynq.SkipRetry)
		}
	}
	var ref time.Time
	if payload.ReferenceDate != "" {
		parsed, parseErr := quotes.ParseDate(payload.ReferenceDate)
		if parseErr != nil {
			return fmt.Errorf("expiration scan: %v: %w", parseErr, asynq.SkipRetry)
		}
		ref = *parsed
	}
	dest := payload.Destination
	if dest == "" {
		dest = j.Destination
	}

	tracker := j.metrics().Track(TaskCollectionsExpirationScan)
	defer func() {
		err = tracker.End(err)
	}()

	logger := j.logger().With(slog.String("reference_date", payload.ReferenceDate))
	logger.Info("starting expiration scan")

	result, err := j.Collector.Notify(ctx, ref, dest)
	if err != nil {
		logger.Error("expiration scan failed", slog.Any("error", err))
		return err
	}
	j.metrics().ObserveExpired(len(result.Matches), result.Delivery != nil)
	logger.Info("expiration scan completed",
		slog.Int("expired", len(result.Matches)),
		slog.Bool("sent", result.Delivery != nil),
	)
	return nil
}

func (j *ExpirationScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskCollectionsExpirationScan))
	}
	return slog.Default().With(slog.String("job", TaskCollectionsExpirationScan))
}

func (j *ExpirationScanJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
