package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func mustToken(t *testing.T, secret []byte, subject string, expires time.Time) string {
	t.Helper()
	claims := Claims{
		Email: "ventas@example.cl",
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return token
}

func serve(t *testing.T, header string) (*httptest.ResponseRecorder, string) {
	t.Helper()
	var subject string
	handler := NewMiddleware(testSecret, nil).Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject = SubjectFromContext(r.Context())
		assert.Equal(t, "ventas@example.cl", EmailFromContext(r.Context()))
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/api/quotes", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr, subject
}

func TestMiddlewareAcceptsValidToken(t *testing.T) {
	rr, subject := serve(t, "Bearer "+mustToken(t, testSecret, "user-1", time.Now().Add(time.Hour)))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "user-1", subject)
}

func TestMiddlewareRejectsMissingToken(t *testing.T) {
	rr, _ := serve(t, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestMiddlewareRejectsWrongSecret(t *testing.T) {
	rr, _ := serve(t, "Bearer "+mustToken(t, []byte("other"), "user-1", time.Now().Add(time.Hour)))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestMiddlewareRejectsExpiredToken(t *testing.T) {
	rr, _ := serve(t, "Bearer "+mustToken(t, testSecret, "user-1", time.Now().Add(-time.Minute)))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestParseJWTRequiresSubject(t *testing.T) {
	_, err := ParseJWT(mustToken(t, testSecret, "", time.Now().Add(time.Hour)), testSecret)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", BearerToken("Bearer abc"))
	assert.Equal(t, "abc", BearerToken("bearer  abc "))
	assert.Equal(t, "", BearerToken("Basic abc"))
	assert.Equal(t, "", BearerToken("abc"))
}
