package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/puntourbano/eventdesk/internal/collections"
	"github.com/puntourbano/eventdesk/internal/quotes"
)

type collectionsNotifier interface {
	Notify(ctx context.Context, ref time.Time, dest string) (collections.Result, error)
}

// ExpirationsOptions configures ExpirationsCommand.
type ExpirationsOptions struct {
	Destination string
	// ReferenceDate is YYYY-MM-DD; empty means today.
	ReferenceDate string
	Stdout        io.Writer
	Stderr        io.Writer
}

// ExpirationsCommand checks for expired quotes and sends the collections
// report. Failures are written to Stderr. The exit code is always 0.
func ExpirationsCommand(ctx context.Context, collector collectionsNotifier, opts ExpirationsOptions) int {
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	var ref time.Time
	if opts.ReferenceDate != "" {
		parsed, err := quotes.ParseDate(opts.ReferenceDate)
		if err != nil {
			fmt.Fprintf(stderr, "expirations: %v\n", err)
			return 0
		}
		ref = *parsed
	}

	result, err := collector.Notify(ctx, ref, opts.Destination)
	if err != nil {
		fmt.Fprintf(stderr, "expirations: %v\n", err)
		return 0
	}
	if len(result.Matches) == 0 {
		fmt.Fprintln(stdout, result.Message)
		return 0
	}
	fmt.Fprintf(stdout, "%d expired quotes as of %s\n", len(result.Matches), result.ReferenceDate.Format(quotes.DateLayout))
	if result.Delivery != nil {
		fmt.Fprintf(stdout, "sent via %s", result.Delivery.Channel)
		if result.Delivery.Link != "" {
			fmt.Fprintf(stdout, ": %s", result.Delivery.Link)
		}
		if result.Delivery.Reference != "" {
			fmt.Fprintf(stdout, " (%s)", result.Delivery.Reference)
		}
		fmt.Fprintln(stdout)
	}
	return 0
}
