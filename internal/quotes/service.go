package quotes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/puntourbano/eventdesk/internal/attachments"
	"github.com/puntourbano/eventdesk/internal/auth"
	"github.com/puntourbano/eventdesk/internal/calendar"
	"github.com/puntourbano/eventdesk/internal/notify"
	"github.com/puntourbano/eventdesk/internal/realtime"
)

const (
	idLength      = 8
	idMaxAttempts = 3
	changeEntity  = "quote"
)

// CreateInput is the payload of the create flow.
type CreateInput struct {
	Client         string     `validate:"required,max=200"`
	ClientType     ClientType `validate:"omitempty,oneof=Empresa Productora Particular"`
	EventName      string     `validate:"max=200"`
	EventNotes     string
	Location       string `validate:"max=300"`
	EventDate      *time.Time
	ExpirationDate *time.Time
	SetupTime      string
	TeardownTime   string
	Items          Ledger
}

// Deps groups the collaborators of the quote service.
type Deps struct {
	Repo      Repository
	Events    calendar.Writer
	Storage   attachments.Store
	Paths     *attachments.PathGenerator
	Changes   realtime.Publisher
	Messenger notify.Sender
	// ReviewTo is the destination of review notifications.
	ReviewTo string
	Logger   *slog.Logger
}

// Service implements the quote lifecycle.
type Service struct {
	repo       Repository
	dispatcher *Dispatcher
	storage    attachments.Store
	paths      *attachments.PathGenerator
	changes    realtime.Publisher
	messenger  notify.Sender
	reviewTo   string
	logger     *slog.Logger
	validate   *validator.Validate

	clock func() time.Time
	newID func() string
}

// NewService constructs a Service.
func NewService(deps Deps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	paths := deps.Paths
	if paths == nil {
		paths = attachments.NewPathGenerator()
	}
	changes := deps.Changes
	if changes == nil {
		changes = realtime.Discard{}
	}
	return &Service{
		repo:       deps.Repo,
		dispatcher: NewDispatcher(deps.Events, logger),
		storage:    deps.Storage,
		paths:      paths,
		changes:    changes,
		messenger:  deps.Messenger,
		reviewTo:   deps.ReviewTo,
		logger:     logger,
		validate:   validator.New(),
		clock:      time.Now,
		newID:      shortID,
	}
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:idLength]
}

// Create validates input and stores a new Draft quote.
func (s *Service) Create(ctx context.Context, input CreateInput) (*Quote, error) {
	input.Client = strings.TrimSpace(input.Client)
	input.EventName = strings.TrimSpace(input.EventName)
	input.Location = strings.TrimSpace(input.Location)
	if err := s.validate.Struct(input); err != nil {
		return nil, validationError(err)
	}

	q := Quote{
		Client:         input.Client,
		ClientType:     input.ClientType,
		EventName:      input.EventName,
		EventNotes:     strings.TrimSpace(input.EventNotes),
		Location:       input.Location,
		EventDate:      normalizeDate(input.EventDate),
		ExpirationDate: normalizeDate(input.ExpirationDate),
		SetupTime:      strings.TrimSpace(input.SetupTime),
		TeardownTime:   strings.TrimSpace(input.TeardownTime),
		Items:          input.Items,
		NetTotal:       input.Items.NetTotal(),
		Status:         StatusDraft,
		CreatedAt:      s.clock().UTC().Truncate(time.Microsecond),
	}

	var err error
	for attempt := 0; attempt < idMaxAttempts; attempt++ {
		q.ID = s.newID()
		err = s.repo.Insert(ctx, q)
		if !errors.Is(err, ErrDuplicateID) {
			break
		}
		s.logger.Warn("quote id collision", slog.String("quote_id", q.ID))
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("quote created", slog.String("quote_id", q.ID), slog.String("net_total", q.NetTotal.String()))
	s.publish(ctx, q.ID, realtime.OpInsert)
	return &q, nil
}

// Get loads one quote.
func (s *Service) Get(ctx context.Context, id string) (*Quote, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, validationf("quote id is required")
	}
	return s.repo.Get(ctx, id)
}

// List returns quotes matching filter, newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Quote, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	filter.ExpiringOnOrBefore = normalizeDate(filter.ExpiringOnOrBefore)
	return s.repo.List(ctx, filter)
}

// SetStatus persists status for the quote and then runs the acceptance side
// effect. Any status may follow any other. A side effect failure is reported
// in the result and leaves the new status in place.
func (s *Service) SetStatus(ctx context.Context, id, status string) (*StatusChange, error) {
	next, err := ParseStatus(status)
	if err != nil {
		return nil, err
	}
	q, err := s.update(ctx, id, Fields{colStatus: string(next)})
	if err != nil {
		return nil, err
	}
	s.logger.Info("quote status changed",
		slog.String("quote_id", q.ID),
		slog.String("status", string(q.Status)),
		slog.String("user", auth.SubjectFromContext(ctx)),
		slog.String("email", auth.EmailFromContext(ctx)),
	)

	return &StatusChange{
		Quote:      *q,
		SideEffect: s.dispatcher.StatusChanged(ctx, *q),
	}, nil
}

// SetPaymentDueDate sets or clears the payment due date.
func (s *Service) SetPaymentDueDate(ctx context.Context, id string, date *time.Time) (*Quote, error) {
	return s.update(ctx, id, Fields{colPaymentDate: normalizeDate(date)})
}

// Attach records url as the attachment of kind, replacing any previous one.
func (s *Service) Attach(ctx context.Context, id string, kind AttachmentKind, url string) (*Quote, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, validationf("attachment url is required")
	}
	col, err := attachmentColumn(kind)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, id, Fields{col: url})
}

// Upload stores data under a fresh object path and attaches its URL.
func (s *Service) Upload(ctx context.Context, id string, kind AttachmentKind, filename string, data []byte, contentType string) (*Quote, error) {
	if _, err := attachmentColumn(kind); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, validationf("attachment file is empty")
	}
	if s.storage == nil {
		return nil, fmt.Errorf("%w: storage not configured", ErrStorage)
	}
	q, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	objectPath := s.paths.Next(q.ID, string(kind), filename)
	url, err := s.storage.Upload(ctx, objectPath, data, contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	s.logger.Info("attachment uploaded", slog.String("quote_id", q.ID), slog.String("kind", string(kind)), slog.String("path", objectPath))
	return s.Attach(ctx, q.ID, kind, url)
}

// ReviewMessage is the text asking a reviewer to check a quote.
func ReviewMessage(q Quote) string {
	return fmt.Sprintf("Hola, se ha generado/actualizado la cotización #%s para el cliente %s. Por favor revisar.", q.ID, q.Client)
}

// NotifyReview hands the review message for the quote to the messaging sender.
func (s *Service) NotifyReview(ctx context.Context, id string) (notify.Delivery, error) {
	q, err := s.Get(ctx, id)
	if err != nil {
		return notify.Delivery{}, err
	}
	if s.messenger == nil {
		return notify.Delivery{}, errors.New("messaging sender not configured")
	}
	delivery, err := s.messenger.Send(ctx, notify.Message{To: s.reviewTo, Text: ReviewMessage(*q)})
	if err != nil {
		return notify.Delivery{}, fmt.Errorf("send review notification for quote %s: %w", q.ID, err)
	}
	return delivery, nil
}

func (s *Service) update(ctx context.Context, id string, fields Fields) (*Quote, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, validationf("quote id is required")
	}
	if err := s.repo.Update(ctx, id, fields); err != nil {
		return nil, err
	}
	s.publish(ctx, id, realtime.OpUpdate)
	return s.repo.Get(ctx, id)
}

func (s *Service) publish(ctx context.Context, id, op string) {
	change := realtime.Change{Entity: changeEntity, ID: id, Op: op}
	if err := s.changes.Publish(ctx, change); err != nil {
		s.logger.Warn("publish quote change", slog.String("quote_id", id), slog.Any("error", err))
	}
}

func attachmentColumn(kind AttachmentKind) (string, error) {
	switch kind {
	case AttachmentVoucher:
		return colVoucherURL, nil
	case AttachmentInvoice:
		return colInvoiceURL, nil
	}
	return "", validationf("unknown attachment kind %q", kind)
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return validationf("%v", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return validationf("%s", strings.Join(msgs, "; "))
}
