package quotes

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/puntourbano/eventdesk/internal/calendar"
	"github.com/puntourbano/eventdesk/internal/notify"
)

// LineItemRequest is one row of the create payload. Total is accepted and
// ignored; row totals are always recomputed.
type LineItemRequest struct {
	Name      string           `json:"name"`
	Quantity  int              `json:"cant"`
	Days      int              `json:"days"`
	UnitPrice decimal.Decimal  `json:"unit"`
	Total     *decimal.Decimal `json:"total,omitempty"`
}

// CreateRequest is the JSON body of POST /quotes.
type CreateRequest struct {
	Client         string                       `json:"client"`
	ClientType     string                       `json:"client_type"`
	EventName      string                       `json:"event_name"`
	EventNotes     string                       `json:"event_notes"`
	Location       string                       `json:"location"`
	EventDate      string                       `json:"event_date"`
	ExpirationDate string                       `json:"expiration_date"`
	SetupTime      string                       `json:"setup_time"`
	TeardownTime   string                       `json:"teardown_time"`
	Items          map[string][]LineItemRequest `json:"items"`
}

// Input converts the request into a CreateInput, parsing dates and categories.
func (r CreateRequest) Input() (CreateInput, error) {
	eventDate, err := ParseDate(r.EventDate)
	if err != nil {
		return CreateInput{}, err
	}
	expiration, err := ParseDate(r.ExpirationDate)
	if err != nil {
		return CreateInput{}, err
	}
	rows := make(map[Category][]LineItem, len(r.Items))
	for key, items := range r.Items {
		category, err := ParseCategory(key)
		if err != nil {
			return CreateInput{}, err
		}
		for _, item := range items {
			rows[category] = append(rows[category], LineItem{
				Name:      item.Name,
				Quantity:  item.Quantity,
				Days:      item.Days,
				UnitPrice: item.UnitPrice,
			})
		}
	}
	ledger, err := NewLedger(rows)
	if err != nil {
		return CreateInput{}, err
	}
	return CreateInput{
		Client:         r.Client,
		ClientType:     ClientType(r.ClientType),
		EventName:      r.EventName,
		EventNotes:     r.EventNotes,
		Location:       r.Location,
		EventDate:      eventDate,
		ExpirationDate: expiration,
		SetupTime:      r.SetupTime,
		TeardownTime:   r.TeardownTime,
		Items:          ledger,
	}, nil
}

// StatusRequest is the JSON body of POST /quotes/{id}/status.
type StatusRequest struct {
	Status string `json:"status"`
}

// PaymentDateRequest is the JSON body of POST /quotes/{id}/payment-date.
// A null or empty date clears it.
type PaymentDateRequest struct {
	PaymentDate *string `json:"payment_date"`
}

// AttachRequest is the JSON body of PUT /quotes/{id}/attachments/{kind}.
type AttachRequest struct {
	URL string `json:"url"`
}

// LineItemView is a row as returned to clients.
type LineItemView struct {
	Name      string          `json:"name"`
	Quantity  int             `json:"cant"`
	Days      int             `json:"days"`
	UnitPrice decimal.Decimal `json:"unit"`
	Total     decimal.Decimal `json:"total"`
}

// View is the JSON representation of a quote. Total repeats Gross, the
// amount shown in listings.
type View struct {
	ID             string                    `json:"id"`
	Client         string                    `json:"client"`
	ClientType     string                    `json:"client_type"`
	EventName      string                    `json:"event_name"`
	EventNotes     string                    `json:"event_notes"`
	Location       string                    `json:"location"`
	EventDate      string                    `json:"event_date,omitempty"`
	ExpirationDate string                    `json:"expiration_date,omitempty"`
	SetupTime      string                    `json:"setup_time"`
	TeardownTime   string                    `json:"teardown_time"`
	Items          map[string][]LineItemView `json:"items"`
	Net            decimal.Decimal           `json:"net"`
	Tax            decimal.Decimal           `json:"tax"`
	Gross          decimal.Decimal           `json:"gross"`
	Total          decimal.Decimal           `json:"total"`
	Status         string                    `json:"status"`
	PaymentDate    string                    `json:"payment_date,omitempty"`
	Attachments    Attachments               `json:"attachments"`
	CreatedAt      time.Time                 `json:"created_at"`
}

// NewView renders q for clients.
func NewView(q Quote) View {
	totals := q.Totals()
	items := make(map[string][]LineItemView, len(Categories))
	for _, c := range Categories {
		rows := q.Items.Rows(c)
		views := make([]LineItemView, 0, len(rows))
		for _, row := range rows {
			views = append(views, LineItemView{
				Name:      row.Name,
				Quantity:  row.Quantity,
				Days:      row.Days,
				UnitPrice: row.UnitPrice,
				Total:     row.LineTotal(),
			})
		}
		items[string(c)] = views
	}
	return View{
		ID:             q.ID,
		Client:         q.Client,
		ClientType:     string(q.ClientType),
		EventName:      q.EventName,
		EventNotes:     q.EventNotes,
		Location:       q.Location,
		EventDate:      FormatDate(q.EventDate),
		ExpirationDate: FormatDate(q.ExpirationDate),
		SetupTime:      q.SetupTime,
		TeardownTime:   q.TeardownTime,
		Items:          items,
		Net:            totals.Net,
		Tax:            totals.Tax,
		Gross:          totals.Gross,
		Total:          totals.Gross,
		Status:         string(q.Status),
		PaymentDate:    FormatDate(q.PaymentDueDate),
		Attachments:    q.Attachments,
		CreatedAt:      q.CreatedAt,
	}
}

// SideEffectView reports the acceptance side effect.
type SideEffectView struct {
	Triggered       bool            `json:"triggered"`
	Acknowledgement string          `json:"acknowledgement,omitempty"`
	Event           *calendar.Event `json:"event,omitempty"`
	Error           string          `json:"error,omitempty"`
}

// StatusChangeView is the response of POST /quotes/{id}/status.
type StatusChangeView struct {
	Quote      View           `json:"quote"`
	SideEffect SideEffectView `json:"side_effect"`
}

// NewStatusChangeView renders change for clients.
func NewStatusChangeView(change StatusChange) StatusChangeView {
	effect := SideEffectView{
		Triggered:       change.SideEffect.Triggered,
		Acknowledgement: change.SideEffect.Acknowledgement,
		Event:           change.SideEffect.Event,
	}
	if change.SideEffect.Err != nil {
		effect.Error = change.SideEffect.Err.Error()
	}
	return StatusChangeView{Quote: NewView(change.Quote), SideEffect: effect}
}

// NotifyView is the response of POST /quotes/{id}/notify.
type NotifyView struct {
	Message  string          `json:"message"`
	Delivery notify.Delivery `json:"delivery"`
}
