package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubReader struct {
	items []Item
	err   error
}

func (s stubReader) List(ctx context.Context) ([]Item, error) {
	return s.items, s.err
}

func serveCatalog(t *testing.T, reader Reader) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	NewHandler(reader, nil).MountRoutes(r)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/catalog", nil))
	return rr
}

func TestHandlerListsItems(t *testing.T) {
	rr := serveCatalog(t, stubReader{items: []Item{{ID: "1", Name: "Silla Tiffany", Category: "Sillas", Price: decimal.NewFromInt(2500), Stock: 120}}})
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Items []Item `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Items, 1)
	assert.Equal(t, "Silla Tiffany", body.Items[0].Name)
	assert.True(t, body.Items[0].Price.Equal(decimal.NewFromInt(2500)))
}

func TestHandlerEmptyCatalog(t *testing.T) {
	rr := serveCatalog(t, stubReader{})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"items":[]}`, rr.Body.String())
}

func TestHandlerReadFailure(t *testing.T) {
	rr := serveCatalog(t, stubReader{err: errors.New("catalog: list: connection reset")})
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "connection reset")
}
