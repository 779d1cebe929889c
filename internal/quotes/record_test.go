package quotes

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleQuote(t *testing.T) Quote {
	t.Helper()
	items, err := NewLedger(map[Category][]LineItem{
		CategoryFurnishings: {{Name: "Silla", Quantity: 3, Days: 2, UnitPrice: dec("1000")}},
		CategoryOther:       {{Name: "Flete", Quantity: 1, Days: 1, UnitPrice: dec("1500")}},
	})
	require.NoError(t, err)
	eventDate := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	expiration := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	q := Quote{
		ID:             "a1b2c3d4",
		Client:         "Productora Sur",
		ClientType:     ClientTypeProducer,
		EventName:      "Lanzamiento",
		EventNotes:     "Entrada por calle lateral",
		Location:       "Santiago",
		EventDate:      &eventDate,
		ExpirationDate: &expiration,
		SetupTime:      "08:00",
		TeardownTime:   "23:30",
		Items:          items,
		NetTotal:       items.NetTotal(),
		Status:         StatusSent,
		CreatedAt:      time.Date(2026, 2, 1, 12, 30, 0, 123000, time.UTC),
	}
	q.Attachments.Set(AttachmentInvoice, "https://files.example/a1b2c3d4/invoice_1.pdf")
	return q
}

func assertSameQuote(t *testing.T, want, got Quote) {
	t.Helper()
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Client, got.Client)
	assert.Equal(t, want.ClientType, got.ClientType)
	assert.Equal(t, want.EventName, got.EventName)
	assert.Equal(t, want.EventNotes, got.EventNotes)
	assert.Equal(t, want.Location, got.Location)
	assert.Equal(t, FormatDate(want.EventDate), FormatDate(got.EventDate))
	assert.Equal(t, FormatDate(want.ExpirationDate), FormatDate(got.ExpirationDate))
	assert.Equal(t, FormatDate(want.PaymentDueDate), FormatDate(got.PaymentDueDate))
	assert.Equal(t, want.SetupTime, got.SetupTime)
	assert.Equal(t, want.TeardownTime, got.TeardownTime)
	assert.True(t, want.NetTotal.Equal(got.NetTotal), "net %s != %s", want.NetTotal, got.NetTotal)
	assert.Equal(t, want.Status, got.Status)
	assert.Equal(t, want.Attachments, got.Attachments)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
	for _, c := range Categories {
		wantRows, gotRows := want.Items.Rows(c), got.Items.Rows(c)
		require.Len(t, gotRows, len(wantRows), "category %s", c)
		for i := range wantRows {
			assert.Equal(t, wantRows[i].Name, gotRows[i].Name)
			assert.Equal(t, wantRows[i].Quantity, gotRows[i].Quantity)
			assert.Equal(t, wantRows[i].Days, gotRows[i].Days)
			assert.True(t, wantRows[i].UnitPrice.Equal(gotRows[i].UnitPrice))
		}
	}
}

func TestRecordRoundTrip(t *testing.T) {
	q := sampleQuote(t)

	rec, err := toRecord(q)
	require.NoError(t, err)
	assert.Equal(t, "7500", rec.Total)
	assert.Equal(t, "Productora", rec.ClientType)
	assert.Nil(t, rec.VoucherURL)
	require.NotNil(t, rec.InvoiceURL)

	back, err := fromRecord(rec)
	require.NoError(t, err)
	assertSameQuote(t, q, back)
}

func TestRecordItemsDocumentShape(t *testing.T) {
	rec, err := toRecord(sampleQuote(t))
	require.NoError(t, err)

	var doc map[string][]map[string]any
	require.NoError(t, json.Unmarshal(rec.Items, &doc))
	require.Len(t, doc["accesorios"], 1)
	assert.Empty(t, doc["logistica"])
	row := doc["accesorios"][0]
	assert.Equal(t, "Silla", row["name"])
	assert.EqualValues(t, 3, row["cant"])
	assert.EqualValues(t, 2, row["days"])
	assert.EqualValues(t, 1000, row["unit"])
	assert.EqualValues(t, 6000, row["total"])

	var timing map[string]string
	require.NoError(t, json.Unmarshal(rec.Timing, &timing))
	assert.Equal(t, map[string]string{"montaje": "08:00", "desmontaje": "23:30"}, timing)
}

func TestFromRecordIgnoresStoredRowTotal(t *testing.T) {
	rec := record{
		ID:     "x",
		Client: "Cliente",
		Total:  "10",
		Status: string(StatusDraft),
		Items:  []byte(`{"accesorios":[{"name":"Mesa","cant":2,"days":1,"unit":5,"total":999}],"otros":[{"name":"","cant":0,"days":0,"unit":"","total":0}]}`),
	}
	q, err := fromRecord(rec)
	require.NoError(t, err)
	rows := q.Items.Rows(CategoryFurnishings)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].LineTotal().Equal(dec("10")))
	assert.True(t, q.Items.Rows(CategoryOther)[0].UnitPrice.IsZero())
}

func TestFromRecordRejectsBadTotal(t *testing.T) {
	_, err := fromRecord(record{ID: "x", Total: "abc"})
	assert.Error(t, err)
}
