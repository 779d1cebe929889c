// Package calendar stores agenda entries shown on the shared events calendar.
package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	// TypeNote marks free-form entries, including the ones derived from accepted quotes.
	TypeNote = "note"
	// DefaultTime is the start time given to entries that carry no explicit time.
	DefaultTime = "09:00"
)

// Event is one calendar entry.
type Event struct {
	ID          string    `json:"id,omitempty"`
	Date        time.Time `json:"date"`
	Title       string    `json:"title"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Time        string    `json:"time"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

// Writer inserts calendar entries and returns them as stored.
type Writer interface {
	Insert(ctx context.Context, event Event) (Event, error)
}

type dbtx interface {
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository is the Postgres backed calendar store.
type Repository struct {
	db dbtx
}

// NewRepository constructs a Repository over the pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

// Insert stores the event and fills in its generated id and creation time.
func (r *Repository) Insert(ctx context.Context, event Event) (Event, error) {
	const query = `INSERT INTO events (date, title, type, description, time)
VALUES ($1, $2, $3, $4, $5)
RETURNING id::text, created_at`
	err := r.db.QueryRow(ctx, query, event.Date, event.Title, event.Type, event.Description, event.Time).
		Scan(&event.ID, &event.CreatedAt)
	if err != nil {
		return Event{}, fmt.Errorf("calendar: insert event: %w", err)
	}
	return event, nil
}
