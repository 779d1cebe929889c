package collections

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/puntourbano/eventdesk/internal/notify"
	"github.com/puntourbano/eventdesk/internal/platform/httpx"
	"github.com/puntourbano/eventdesk/internal/quotes"
)

type notifier interface {
	Notify(ctx context.Context, ref time.Time, dest string) (Result, error)
}

// Handler exposes the on-demand expiration check.
type Handler struct {
	collector   notifier
	destination string
	logger      *slog.Logger
}

// NewHandler constructs a Handler sending reports to destination.
func NewHandler(collector notifier, destination string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{collector: collector, destination: destination, logger: logger}
}

// MountRoutes registers the collections routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/collections/check", h.check)
}

type checkRequest struct {
	ReferenceDate string `json:"reference_date"`
}

type expiredView struct {
	ID             string `json:"id"`
	Client         string `json:"client"`
	ExpirationDate string `json:"expiration_date"`
	Total          string `json:"total"`
}

type checkResponse struct {
	ReferenceDate string           `json:"reference_date"`
	Count         int              `json:"count"`
	Quotes        []expiredView    `json:"quotes"`
	Message       string           `json:"message"`
	Delivery      *notify.Delivery `json:"delivery,omitempty"`
}

func (h *Handler) check(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := httpx.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		httpx.RespondError(w, err)
		return
	}
	var ref time.Time
	if req.ReferenceDate != "" {
		parsed, err := quotes.ParseDate(req.ReferenceDate)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		ref = *parsed
	}

	result, err := h.collector.Notify(r.Context(), ref, h.destination)
	if err != nil {
		h.logger.Error("collections check failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	resp := checkResponse{
		ReferenceDate: result.ReferenceDate.Format(quotes.DateLayout),
		Count:         len(result.Matches),
		Quotes:        make([]expiredView, 0, len(result.Matches)),
		Message:       result.Message,
		Delivery:      result.Delivery,
	}
	for _, q := range result.Matches {
		resp.Quotes = append(resp.Quotes, expiredView{
			ID:             q.ID,
			Client:         q.Client,
			ExpirationDate: quotes.FormatDate(q.ExpirationDate),
			Total:          q.NetTotal.String(),
		})
	}
	httpx.JSON(w, http.StatusOK, resp)
}
