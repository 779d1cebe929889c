package quotes

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/puntourbano/eventdesk/internal/calendar"
	"github.com/puntourbano/eventdesk/internal/notify"
	"github.com/puntourbano/eventdesk/internal/realtime"
)

type mockRepository struct {
	mu        sync.Mutex
	quotes    map[string]Quote
	insertErr []error
	updateErr error
	inserts   int
}

func newMockRepository() *mockRepository {
	return &mockRepository{quotes: make(map[string]Quote)}
}

func (m *mockRepository) Insert(ctx context.Context, q Quote) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inserts++
	if len(m.insertErr) > 0 {
		err := m.insertErr[0]
		m.insertErr = m.insertErr[1:]
		if err != nil {
			return err
		}
	}
	if _, ok := m.quotes[q.ID]; ok {
		return ErrDuplicateID
	}
	m.quotes[q.ID] = q
	return nil
}

func (m *mockRepository) Get(ctx context.Context, id string) (*Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.quotes[id]
	if !ok {
		return nil, notFound(id)
	}
	return &q, nil
}

func (m *mockRepository) List(ctx context.Context, filter ListFilter) ([]Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Quote, 0, len(m.quotes))
	for _, q := range m.quotes {
		if filter.Search != "" && !strings.Contains(strings.ToLower(q.Client), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *mockRepository) Update(ctx context.Context, id string, fields Fields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	q, ok := m.quotes[id]
	if !ok {
		return notFound(id)
	}
	for col, value := range fields {
		switch col {
		case colStatus:
			q.Status = Status(value.(string))
		case colPaymentDate:
			q.PaymentDueDate = value.(*time.Time)
		case colVoucherURL:
			q.Attachments.Set(AttachmentVoucher, value.(string))
		case colInvoiceURL:
			q.Attachments.Set(AttachmentInvoice, value.(string))
		default:
			return errors.New("unexpected column " + col)
		}
	}
	m.quotes[id] = q
	return nil
}

type mockCalendar struct {
	mu     sync.Mutex
	events []calendar.Event
	err    error
}

func (m *mockCalendar) Insert(ctx context.Context, event calendar.Event) (calendar.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return calendar.Event{}, m.err
	}
	event.ID = fmt.Sprintf("evt-%d", len(m.events)+1)
	m.events = append(m.events, event)
	return event, nil
}

type mockStore struct {
	paths []string
	err   error
}

func (m *mockStore) Upload(ctx context.Context, objectPath string, data []byte, contentType string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.paths = append(m.paths, objectPath)
	return "https://files.example/" + objectPath, nil
}

type mockPublisher struct {
	changes []realtime.Change
	err     error
}

func (m *mockPublisher) Publish(ctx context.Context, change realtime.Change) error {
	m.changes = append(m.changes, change)
	return m.err
}

type mockSender struct {
	messages []notify.Message
	err      error
}

func (m *mockSender) Send(ctx context.Context, msg notify.Message) (notify.Delivery, error) {
	if m.err != nil {
		return notify.Delivery{}, m.err
	}
	m.messages = append(m.messages, msg)
	return notify.Delivery{Channel: "link", Link: "https://wa.me/" + msg.To}, nil
}
