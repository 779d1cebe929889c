package quotes

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/puntourbano/eventdesk/internal/auth"
)

func newTestRouter(t *testing.T) (http.Handler, *serviceFixture) {
	t.Helper()
	f := newServiceFixture(t)
	r := chi.NewRouter()
	NewHandler(f.svc, nil).MountRoutes(r)
	return r, f
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHandlerCreateAndGet(t *testing.T) {
	h, _ := newTestRouter(t)

	rr := doJSON(t, h, http.MethodPost, "/quotes", `{
		"client": "ACME",
		"client_type": "Empresa",
		"event_name": "Aniversario",
		"event_date": "2026-03-14",
		"expiration_date": "2026-03-01",
		"items": {
			"accesorios": [{"name": "Silla", "cant": 3, "days": 2, "unit": 1000}],
			"otros": [{"name": "Flete", "cant": 1, "days": 1, "unit": 1500, "total": 1}]
		}
	}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var created View
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, "id000001", created.ID)
	assert.Equal(t, string(StatusDraft), created.Status)
	assert.Equal(t, "7500", created.Net.String())
	assert.Equal(t, "1425", created.Tax.String())
	assert.Equal(t, "8925", created.Gross.String())
	assert.Equal(t, "8925", created.Total.String())
	require.Len(t, created.Items["otros"], 1)
	assert.Equal(t, "1500", created.Items["otros"][0].Total.String())

	rr = doJSON(t, h, http.MethodGet, "/quotes/id000001", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var got View
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "2026-03-14", got.EventDate)
	assert.Equal(t, "2026-03-01", got.ExpirationDate)
}

func TestHandlerCreateValidation(t *testing.T) {
	h, _ := newTestRouter(t)

	rr := doJSON(t, h, http.MethodPost, "/quotes", `{"client": ""}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "client")

	rr = doJSON(t, h, http.MethodPost, "/quotes", `{"client": "ACME", "items": {"sonido": []}}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSON(t, h, http.MethodPost, "/quotes", `{"client": "ACME", "event_date": "14/03/2026"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandlerGetUnknownQuote(t *testing.T) {
	h, _ := newTestRouter(t)
	rr := doJSON(t, h, http.MethodGet, "/quotes/nope", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "quote not found")
}

func TestHandlerSetStatusReturnsSideEffect(t *testing.T) {
	h, f := newTestRouter(t)
	date := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	q := f.create(t, &date)

	rr := doJSON(t, h, http.MethodPost, "/quotes/"+q.ID+"/status", `{"status": "Aceptada"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var view StatusChangeView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	assert.Equal(t, "Aceptada", view.Quote.Status)
	assert.True(t, view.SideEffect.Triggered)
	assert.Equal(t, AcceptedAcknowledgement, view.SideEffect.Acknowledgement)
	require.NotNil(t, view.SideEffect.Event)
	assert.Equal(t, "note", view.SideEffect.Event.Type)

	rr = doJSON(t, h, http.MethodPost, "/quotes/"+q.ID+"/status", `{"status": "Perdida"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandlerPaymentDate(t *testing.T) {
	h, f := newTestRouter(t)
	q := f.create(t, nil)

	rr := doJSON(t, h, http.MethodPost, "/quotes/"+q.ID+"/payment-date", `{"payment_date": "2026-04-30"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"payment_date":"2026-04-30"`)

	rr = doJSON(t, h, http.MethodPost, "/quotes/"+q.ID+"/payment-date", `{"payment_date": null}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), `"payment_date"`)
}

func TestHandlerAttachAndUpload(t *testing.T) {
	h, f := newTestRouter(t)
	q := f.create(t, nil)

	rr := doJSON(t, h, http.MethodPut, "/quotes/"+q.ID+"/attachments/voucher", `{"url": "https://files.example/pago.jpg"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "https://files.example/pago.jpg")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "factura.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/quotes/"+q.ID+"/attachments/invoice", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var view View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.NotNil(t, view.Attachments.Invoice)
	assert.Contains(t, view.Attachments.Invoice.URL, q.ID+"/invoice_")
	require.NotNil(t, view.Attachments.Voucher)

	rr = doJSON(t, h, http.MethodPut, "/quotes/"+q.ID+"/attachments/receipt", `{"url": "https://x"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandlerUploadStorageFailure(t *testing.T) {
	h, f := newTestRouter(t)
	q := f.create(t, nil)
	f.store.err = assert.AnError

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "pago.png")
	require.NoError(t, err)
	_, _ = part.Write([]byte{0x89, 'P', 'N', 'G'})
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/quotes/"+q.ID+"/attachments/voucher", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHandlerListAndNotify(t *testing.T) {
	h, f := newTestRouter(t)
	q := f.create(t, nil)

	rr := doJSON(t, h, http.MethodGet, "/quotes?q=sur", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var list struct {
		Quotes []View `json:"quotes"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list.Quotes, 1)
	assert.Equal(t, q.ID, list.Quotes[0].ID)

	rr = doJSON(t, h, http.MethodPost, "/quotes/"+q.ID+"/notify", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var notified NotifyView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &notified))
	assert.Contains(t, notified.Message, "#"+q.ID)
	assert.Equal(t, "https://wa.me/56911112222", notified.Delivery.Link)
}

func TestHandlerLogsAuthenticatedUser(t *testing.T) {
	f := newServiceFixture(t)
	q := f.create(t, nil)
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	f.svc.logger = logger
	r := chi.NewRouter()
	NewHandler(f.svc, logger).MountRoutes(r)

	send := func(path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req = req.WithContext(auth.WithIdentity(req.Context(), "user-7", "ventas@example.cl"))
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		return rr
	}

	rr := send("/quotes/"+q.ID+"/status", `{"status": "Enviada"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, logs.String(), "quote status changed")
	assert.Contains(t, logs.String(), "user=user-7")
	assert.Contains(t, logs.String(), "email=ventas@example.cl")

	logs.Reset()
	rr = send("/quotes/missing/status", `{"status": "Enviada"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, logs.String(), "quote request failed")
	assert.Contains(t, logs.String(), "user=user-7")
}
