package quotes

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/puntourbano/eventdesk/internal/auth"
	"github.com/puntourbano/eventdesk/internal/notify"
	"github.com/puntourbano/eventdesk/internal/platform/httpx"
)

// maxUploadBytes bounds multipart attachment uploads.
const maxUploadBytes = 10 << 20

type quoteService interface {
	Create(ctx context.Context, input CreateInput) (*Quote, error)
	Get(ctx context.Context, id string) (*Quote, error)
	List(ctx context.Context, filter ListFilter) ([]Quote, error)
	SetStatus(ctx context.Context, id, status string) (*StatusChange, error)
	SetPaymentDueDate(ctx context.Context, id string, date *time.Time) (*Quote, error)
	Attach(ctx context.Context, id string, kind AttachmentKind, url string) (*Quote, error)
	Upload(ctx context.Context, id string, kind AttachmentKind, filename string, data []byte, contentType string) (*Quote, error)
	NotifyReview(ctx context.Context, id string) (notify.Delivery, error)
}

// Handler exposes the quote lifecycle over JSON.
type Handler struct {
	service quoteService
	logger  *slog.Logger
}

// NewHandler constructs a Handler.
func NewHandler(service quoteService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

// MountRoutes registers quote routes on r.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/quotes", h.list)
	r.Post("/quotes", h.create)
	r.Route("/quotes/{id}", func(r chi.Router) {
		r.Get("/", h.get)
		r.Post("/status", h.setStatus)
		r.Post("/payment-date", h.setPaymentDate)
		r.Post("/attachments/{kind}", h.upload)
		r.Put("/attachments/{kind}", h.attach)
		r.Post("/notify", h.notifyReview)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{Search: r.URL.Query().Get("q")}
	if raw := r.URL.Query().Get("expiring_before"); raw != "" {
		date, err := ParseDate(raw)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		filter.ExpiringOnOrBefore = date
	}
	items, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	views := make([]View, 0, len(items))
	for _, q := range items {
		views = append(views, NewView(q))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"quotes": views})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	q, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, NewView(*q))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	input, err := req.Input()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	q, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, NewView(*q))
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	change, err := h.service.SetStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, NewStatusChangeView(*change))
}

func (h *Handler) setPaymentDate(w http.ResponseWriter, r *http.Request) {
	var req PaymentDateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	var date *time.Time
	if req.PaymentDate != nil {
		parsed, err := ParseDate(*req.PaymentDate)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		date = parsed
	}
	q, err := h.service.SetPaymentDueDate(r.Context(), chi.URLParam(r, "id"), date)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, NewView(*q))
}

func (h *Handler) attach(w http.ResponseWriter, r *http.Request) {
	kind, err := ParseAttachmentKind(chi.URLParam(r, "kind"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req AttachRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	q, err := h.service.Attach(r.Context(), chi.URLParam(r, "id"), kind, req.URL)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, NewView(*q))
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	kind, err := ParseAttachmentKind(chi.URLParam(r, "kind"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.fail(w, r, validationf("invalid multipart form: %v", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		h.fail(w, r, validationf("file field is required"))
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		h.fail(w, r, validationf("read upload: %v", err))
		return
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	q, err := h.service.Upload(r.Context(), chi.URLParam(r, "id"), kind, header.Filename, data, contentType)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, NewView(*q))
}

func (h *Handler) notifyReview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	q, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	delivery, err := h.service.NotifyReview(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, NotifyView{Message: ReviewMessage(*q), Delivery: delivery})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if !errors.Is(err, ErrValidation) {
		h.logger.Error("quote request failed",
			slog.String("path", r.URL.Path),
			slog.String("user", auth.SubjectFromContext(r.Context())),
			slog.Any("error", err),
		)
	}
	httpx.RespondError(w, err)
}
