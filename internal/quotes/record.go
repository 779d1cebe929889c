package quotes

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Column names of the quotes table.
const (
	colID             = "id"
	colClient         = "client"
	colClientType     = "client_type"
	colLocation       = "location"
	colEventName      = "event_name"
	colEventNotes     = "event_notes"
	colEventDate      = "event_date"
	colExpirationDate = "expiration_date"
	colPaymentDate    = "payment_date"
	colTiming         = "timing"
	colTotal          = "total"
	colStatus         = "status"
	colItems          = "items"
	colVoucherURL     = "voucher_url"
	colInvoiceURL     = "invoice_url"
	colCreatedAt      = "created_at"
)

// record is the flattened row shape of a quote.
type record struct {
	ID             string
	Client         string
	ClientType     string
	Location       string
	EventName      string
	EventNotes     string
	EventDate      *time.Time
	ExpirationDate *time.Time
	PaymentDate    *time.Time
	Timing         []byte
	Total          string
	Status         string
	Items          []byte
	VoucherURL     *string
	InvoiceURL     *string
	CreatedAt      time.Time
}

type timingDocument struct {
	Setup    string `json:"montaje"`
	Teardown string `json:"desmontaje"`
}

type itemsDocument struct {
	Furnishings []itemRecord `json:"accesorios"`
	Logistics   []itemRecord `json:"logistica"`
	Other       []itemRecord `json:"otros"`
}

type itemRecord struct {
	Name  string     `json:"name"`
	Cant  int        `json:"cant"`
	Days  int        `json:"days"`
	Unit  jsonAmount `json:"unit"`
	Total jsonAmount `json:"total"`
}

// jsonAmount keeps amounts as bare JSON numbers inside the items document.
type jsonAmount decimal.Decimal

func (a jsonAmount) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(a).String()), nil
}

func (a *jsonAmount) UnmarshalJSON(b []byte) error {
	if string(b) == `""` || string(b) == "null" {
		*a = jsonAmount(decimal.Zero)
		return nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return err
	}
	*a = jsonAmount(d)
	return nil
}

// quoteColumns lists every column in insert and select order.
var quoteColumns = []string{
	colID, colClient, colClientType, colLocation, colEventName, colEventNotes,
	colEventDate, colExpirationDate, colPaymentDate, colTiming, colTotal, colStatus,
	colItems, colVoucherURL, colInvoiceURL, colCreatedAt,
}

func toRecord(q Quote) (record, error) {
	timing, err := json.Marshal(timingDocument{Setup: q.SetupTime, Teardown: q.TeardownTime})
	if err != nil {
		return record{}, fmt.Errorf("encode timing: %w", err)
	}
	items, err := json.Marshal(itemsDocument{
		Furnishings: toItemRecords(q.Items.Rows(CategoryFurnishings)),
		Logistics:   toItemRecords(q.Items.Rows(CategoryLogistics)),
		Other:       toItemRecords(q.Items.Rows(CategoryOther)),
	})
	if err != nil {
		return record{}, fmt.Errorf("encode items: %w", err)
	}
	rec := record{
		ID:             q.ID,
		Client:         q.Client,
		ClientType:     string(q.ClientType),
		Location:       q.Location,
		EventName:      q.EventName,
		EventNotes:     q.EventNotes,
		EventDate:      normalizeDate(q.EventDate),
		ExpirationDate: normalizeDate(q.ExpirationDate),
		PaymentDate:    normalizeDate(q.PaymentDueDate),
		Timing:         timing,
		Total:          q.NetTotal.String(),
		Status:         string(q.Status),
		Items:          items,
		CreatedAt:      q.CreatedAt,
	}
	if att := q.Attachments.Voucher; att != nil {
		url := att.URL
		rec.VoucherURL = &url
	}
	if att := q.Attachments.Invoice; att != nil {
		url := att.URL
		rec.InvoiceURL = &url
	}
	return rec, nil
}

func fromRecord(rec record) (Quote, error) {
	total, err := decimal.NewFromString(rec.Total)
	if err != nil {
		return Quote{}, fmt.Errorf("decode total of quote %s: %w", rec.ID, err)
	}
	q := Quote{
		ID:             rec.ID,
		Client:         rec.Client,
		ClientType:     ClientType(rec.ClientType),
		Location:       rec.Location,
		EventName:      rec.EventName,
		EventNotes:     rec.EventNotes,
		EventDate:      normalizeDate(rec.EventDate),
		ExpirationDate: normalizeDate(rec.ExpirationDate),
		PaymentDueDate: normalizeDate(rec.PaymentDate),
		NetTotal:       total,
		Status:         Status(rec.Status),
		CreatedAt:      rec.CreatedAt,
	}
	if len(rec.Timing) > 0 {
		var timing timingDocument
		if err := json.Unmarshal(rec.Timing, &timing); err != nil {
			return Quote{}, fmt.Errorf("decode timing of quote %s: %w", rec.ID, err)
		}
		q.SetupTime = timing.Setup
		q.TeardownTime = timing.Teardown
	}
	if len(rec.Items) > 0 {
		var doc itemsDocument
		if err := json.Unmarshal(rec.Items, &doc); err != nil {
			return Quote{}, fmt.Errorf("decode items of quote %s: %w", rec.ID, err)
		}
		ledger, err := NewLedger(map[Category][]LineItem{
			CategoryFurnishings: fromItemRecords(doc.Furnishings),
			CategoryLogistics:   fromItemRecords(doc.Logistics),
			CategoryOther:       fromItemRecords(doc.Other),
		})
		if err != nil {
			return Quote{}, err
		}
		q.Items = ledger
	}
	if rec.VoucherURL != nil {
		q.Attachments.Set(AttachmentVoucher, *rec.VoucherURL)
	}
	if rec.InvoiceURL != nil {
		q.Attachments.Set(AttachmentInvoice, *rec.InvoiceURL)
	}
	return q, nil
}

func toItemRecords(items []LineItem) []itemRecord {
	out := make([]itemRecord, 0, len(items))
	for _, item := range items {
		out = append(out, itemRecord{
			Name:  item.Name,
			Cant:  item.Quantity,
			Days:  item.Days,
			Unit:  jsonAmount(item.UnitPrice),
			Total: jsonAmount(item.LineTotal()),
		})
	}
	return out
}

// fromItemRecords ignores the stored row total; it is derived from the other fields.
func fromItemRecords(recs []itemRecord) []LineItem {
	if len(recs) == 0 {
		return nil
	}
	out := make([]LineItem, 0, len(recs))
	for _, rec := range recs {
		out = append(out, LineItem{
			Name:      rec.Name,
			Quantity:  rec.Cant,
			Days:      rec.Days,
			UnitPrice: decimal.Decimal(rec.Unit),
		})
	}
	return out
}
