package quotes

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a quote. The values are the labels kept in
// the quotes table and shown by the status selector.
type Status string

const (
	StatusDraft         Status = "Borrador"
	StatusSent          Status = "Enviada"
	StatusAccepted      Status = "Aceptada"
	StatusPartiallyPaid Status = "Pago Parcial"
	StatusPaid          Status = "Pagada"
	StatusVoid          Status = "Nula"
	StatusRejected      Status = "Rechazada"
	StatusClosed        Status = "Cerrada"
)

// Statuses lists every status in selector order.
var Statuses = []Status{
	StatusDraft,
	StatusSent,
	StatusAccepted,
	StatusPartiallyPaid,
	StatusPaid,
	StatusVoid,
	StatusRejected,
	StatusClosed,
}

// Valid reports whether s is a member of the closed status set.
func (s Status) Valid() bool {
	for _, candidate := range Statuses {
		if s == candidate {
			return true
		}
	}
	return false
}

// Settled reports whether the quote no longer awaits collection.
func (s Status) Settled() bool {
	return s == StatusPaid || s == StatusRejected || s == StatusClosed
}

// ParseStatus converts a selector value into a Status.
func ParseStatus(raw string) (Status, error) {
	status := Status(strings.TrimSpace(raw))
	if !status.Valid() {
		return "", validationf("unknown status %q", raw)
	}
	return status, nil
}

// ClientType classifies the client a quote is addressed to.
type ClientType string

const (
	ClientTypeUnspecified ClientType = ""
	ClientTypeCompany     ClientType = "Empresa"
	ClientTypeProducer    ClientType = "Productora"
	ClientTypeIndividual  ClientType = "Particular"
)

// Valid reports whether t is a known client type, unspecified included.
func (t ClientType) Valid() bool {
	switch t {
	case ClientTypeUnspecified, ClientTypeCompany, ClientTypeProducer, ClientTypeIndividual:
		return true
	}
	return false
}

// AttachmentKind names one of the two documents a quote may carry.
type AttachmentKind string

const (
	AttachmentVoucher AttachmentKind = "voucher"
	AttachmentInvoice AttachmentKind = "invoice"
)

// ParseAttachmentKind validates a kind coming from a route or a form.
func ParseAttachmentKind(raw string) (AttachmentKind, error) {
	switch kind := AttachmentKind(strings.ToLower(strings.TrimSpace(raw))); kind {
	case AttachmentVoucher, AttachmentInvoice:
		return kind, nil
	}
	return "", validationf("unknown attachment kind %q", raw)
}

// Attachment references an uploaded document.
type Attachment struct {
	Kind AttachmentKind `json:"kind"`
	URL  string         `json:"url"`
}

// Attachments holds at most one attachment per kind.
type Attachments struct {
	Voucher *Attachment `json:"voucher,omitempty"`
	Invoice *Attachment `json:"invoice,omitempty"`
}

// Get returns the attachment of the given kind, or nil.
func (a Attachments) Get(kind AttachmentKind) *Attachment {
	switch kind {
	case AttachmentVoucher:
		return a.Voucher
	case AttachmentInvoice:
		return a.Invoice
	}
	return nil
}

// Set replaces the reference for kind. Earlier references are dropped.
func (a *Attachments) Set(kind AttachmentKind, url string) {
	att := &Attachment{Kind: kind, URL: url}
	switch kind {
	case AttachmentVoucher:
		a.Voucher = att
	case AttachmentInvoice:
		a.Invoice = att
	}
}

// Quote is the root aggregate of the quote lifecycle.
type Quote struct {
	ID             string
	Client         string
	ClientType     ClientType
	EventName      string
	EventNotes     string
	Location       string
	EventDate      *time.Time
	ExpirationDate *time.Time
	SetupTime      string
	TeardownTime   string
	Items          Ledger
	// NetTotal is the snapshot of Items.NetTotal taken when the quote was saved.
	NetTotal       decimal.Decimal
	Status         Status
	PaymentDueDate *time.Time
	Attachments    Attachments
	CreatedAt      time.Time
}

// Totals derives tax and gross amounts from the stored net total.
func (q Quote) Totals() Totals {
	return ComputeTotals(q.NetTotal)
}

// ListFilter narrows quote listings.
type ListFilter struct {
	// Search matches client, id or event name, case-insensitively.
	Search string
	// ExpiringOnOrBefore keeps quotes whose expiration date is set and not after the given day.
	ExpiringOnOrBefore *time.Time
}

// DateLayout is the ISO-8601 calendar date representation used at every boundary.
const DateLayout = "2006-01-02"

// ParseDate parses an optional YYYY-MM-DD value. Empty input yields nil.
func ParseDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return nil, validationf("invalid date %q (expected YYYY-MM-DD)", raw)
	}
	return &t, nil
}

// FormatDate renders an optional date as YYYY-MM-DD, or "" when absent.
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DateLayout)
}

// DateOnly drops the clock part of t, keeping its calendar day in UTC.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func normalizeDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := DateOnly(*t)
	return &d
}
