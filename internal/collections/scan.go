// Package collections finds expired unpaid quotes and builds the collections
// notice sent to the payments contact.
package collections

import (
	"time"

	"github.com/puntourbano/eventdesk/internal/quotes"
)

// ScanExpired keeps the quotes whose expiration date is on or before ref and
// whose status still awaits payment. Dates compare as YYYY-MM-DD strings, with
// ref taken in its own location. Input order is preserved.
func ScanExpired(items []quotes.Quote, ref time.Time) []quotes.Quote {
	cutoff := ref.Format(quotes.DateLayout)
	var out []quotes.Quote
	for _, q := range items {
		if q.ExpirationDate == nil || q.Status.Settled() {
			continue
		}
		if quotes.FormatDate(q.ExpirationDate) <= cutoff {
			out = append(out, q)
		}
	}
	return out
}
