package collections

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/puntourbano/eventdesk/internal/notify"
	"github.com/puntourbano/eventdesk/internal/quotes"
)

// QuoteLister reads the quote collection.
type QuoteLister interface {
	List(ctx context.Context, filter quotes.ListFilter) ([]quotes.Quote, error)
}

// Result is the outcome of one expiration check.
type Result struct {
	ReferenceDate time.Time
	Matches       []quotes.Quote
	Message       string
	// Delivery is set when the message was handed to the sender.
	Delivery *notify.Delivery
}

// Collector runs the expiration scan for every trigger: the HTTP action, the
// batch command and the scheduled job.
type Collector struct {
	quotes   QuoteLister
	sender   notify.Sender
	location *time.Location
	logger   *slog.Logger
	clock    func() time.Time
}

// NewCollector constructs a Collector. loc decides which calendar day "today" is.
func NewCollector(lister QuoteLister, sender notify.Sender, loc *time.Location, logger *slog.Logger) *Collector {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{quotes: lister, sender: sender, location: loc, logger: logger, clock: time.Now}
}

// Today returns the current date in the collector's location.
func (c *Collector) Today() time.Time {
	now := c.clock().In(c.location)
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, c.location)
}

// Check scans quotes expiring on or before ref and formats the message. A
// zero ref means today. A read failure aborts the check.
func (c *Collector) Check(ctx context.Context, ref time.Time) (Result, error) {
	today := c.Today()
	if ref.IsZero() {
		ref = today
	}
	cutoff, err := quotes.ParseDate(ref.Format(quotes.DateLayout))
	if err != nil {
		return Result{}, err
	}
	candidates, err := c.quotes.List(ctx, quotes.ListFilter{ExpiringOnOrBefore: cutoff})
	if err != nil {
		return Result{}, fmt.Errorf("collections: read quotes: %w", err)
	}
	matches := ScanExpired(candidates, ref)
	return Result{
		ReferenceDate: ref,
		Matches:       matches,
		Message:       FormatReport(matches, today),
	}, nil
}

// Notify runs Check and hands a non-empty report to the sender for dest.
func (c *Collector) Notify(ctx context.Context, ref time.Time, dest string) (Result, error) {
	result, err := c.Check(ctx, ref)
	if err != nil {
		return Result{}, err
	}
	if len(result.Matches) == 0 {
		c.logger.Info("no expired quotes", slog.String("reference_date", result.ReferenceDate.Format(quotes.DateLayout)))
		return result, nil
	}
	if c.sender == nil {
		return result, fmt.Errorf("collections: sender not configured")
	}
	delivery, err := c.sender.Send(ctx, notify.Message{To: dest, Text: result.Message})
	if err != nil {
		return result, fmt.Errorf("collections: send report: %w", err)
	}
	result.Delivery = &delivery
	c.logger.Info("collections report sent",
		slog.Int("expired", len(result.Matches)),
		slog.String("channel", delivery.Channel),
		slog.String("reference_date", result.ReferenceDate.Format(quotes.DateLayout)),
	)
	return result, nil
}
