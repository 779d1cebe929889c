package quotes

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/puntourbano/eventdesk/internal/calendar"
)

// AcceptedAcknowledgement is shown to the operator after a quote is accepted.
const AcceptedAcknowledgement = "¡Éxito! Cotización aceptada."

// SideEffect reports what the acceptance dispatcher did for one status change.
type SideEffect struct {
	// Triggered is true when the new status was Accepted.
	Triggered bool
	// Event is the stored calendar entry, nil when none was created.
	Event *calendar.Event
	// Acknowledgement is informational text for the caller.
	Acknowledgement string
	// Err holds the calendar failure. The status change stays applied.
	Err error
}

// StatusChange is the result of SetStatus: the persisted quote plus the
// outcome of the acceptance side effect.
type StatusChange struct {
	Quote      Quote
	SideEffect SideEffect
}

// BuildAcceptanceEvent derives the calendar entry for an accepted quote. It
// returns false when the quote has no event date.
func BuildAcceptanceEvent(q Quote) (calendar.Event, bool) {
	if q.EventDate == nil {
		return calendar.Event{}, false
	}
	eventName := strings.TrimSpace(q.EventName)

	title := strings.TrimSpace(q.EventNotes)
	if title == "" {
		name := eventName
		if name == "" {
			name = "Evento"
		}
		title = fmt.Sprintf("%s - %s", name, q.Client)
	}

	described := eventName
	if described == "" {
		described = "N/A"
	}

	return calendar.Event{
		Date:        DateOnly(*q.EventDate),
		Title:       title,
		Type:        calendar.TypeNote,
		Description: fmt.Sprintf("Evento: %s - Cliente: %s", described, q.Client),
		Time:        calendar.DefaultTime,
	}, true
}

// Dispatcher runs the side effects attached to status transitions.
type Dispatcher struct {
	events calendar.Writer
	logger *slog.Logger
}

// NewDispatcher constructs a Dispatcher writing to the calendar collaborator.
func NewDispatcher(events calendar.Writer, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{events: events, logger: logger}
}

// StatusChanged is called after status has been persisted for q. Only
// Accepted produces work; every call creates a new calendar entry.
func (d *Dispatcher) StatusChanged(ctx context.Context, q Quote) SideEffect {
	if q.Status != StatusAccepted {
		return SideEffect{}
	}
	effect := SideEffect{Triggered: true, Acknowledgement: AcceptedAcknowledgement}

	event, ok := BuildAcceptanceEvent(q)
	if !ok {
		return effect
	}
	if d.events == nil {
		effect.Err = fmt.Errorf("%w: calendar collaborator not configured", ErrPersistence)
		d.logger.Warn("quote accepted without calendar entry", slog.String("quote_id", q.ID), slog.Any("error", effect.Err))
		return effect
	}

	stored, err := d.events.Insert(ctx, event)
	if err != nil {
		effect.Err = fmt.Errorf("create calendar entry for quote %s: %w", q.ID, err)
		d.logger.Warn("quote accepted without calendar entry", slog.String("quote_id", q.ID), slog.Any("error", err))
		return effect
	}
	effect.Event = &stored
	d.logger.Info("calendar entry created", slog.String("quote_id", q.ID), slog.String("event_id", stored.ID))
	return effect
}
