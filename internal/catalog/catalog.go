// Package catalog reads the rental inventory used to seed quote line items.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/puntourbano/eventdesk/internal/platform/httpx"
)

// Item is a billable inventory entry.
type Item struct {
	ID       string          `json:"id"`
	Code     string          `json:"code"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
}

// Reader lists the catalog snapshot.
type Reader interface {
	List(ctx context.Context) ([]Item, error)
}

type querier interface {
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
}

// Repository reads the inventory table.
type Repository struct {
	db querier
}

// NewRepository constructs a Repository over the pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

// List returns every item, newest first.
func (r *Repository) List(ctx context.Context) ([]Item, error) {
	const query = `SELECT id::text, COALESCE(code, ''), name, COALESCE(category, ''), price::text, COALESCE(stock, 0)
FROM inventory ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("catalog: list: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var item Item
		var price string
		if err := rows.Scan(&item.ID, &item.Code, &item.Name, &item.Category, &price, &item.Stock); err != nil {
			return nil, fmt.Errorf("catalog: scan: %w", err)
		}
		item.Price, err = decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("catalog: price of %s: %w", item.ID, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: list: %w", err)
	}
	return items, nil
}

// Handler serves the catalog snapshot to the quote form. Concurrent
// requests share one read.
type Handler struct {
	reader Reader
	logger *slog.Logger
	group  singleflight.Group
}

// NewHandler constructs a catalog Handler.
func NewHandler(reader Reader, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{reader: reader, logger: logger}
}

// MountRoutes attaches catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/catalog", h.list)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.load(r.Context())
	if err != nil {
		h.logger.Error("list catalog failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusServiceUnavailable, "Catalog Unavailable", err.Error())
		return
	}
	if items == nil {
		items = []Item{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) load(ctx context.Context) ([]Item, error) {
	resultChan := h.group.DoChan("catalog", func() (interface{}, error) {
		return h.reader.List(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return nil, res.Err
		}
		items, _ := res.Val.([]Item)
		return items, nil
	}
}
