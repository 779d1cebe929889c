package auth

import (
	"log/slog"
	"net/http"

	"github.com/puntourbano/eventdesk/internal/platform/httpx"
)

// Middleware rejects requests without a valid bearer token.
type Middleware struct {
	secret []byte
	logger *slog.Logger
}

// NewMiddleware constructs a Middleware verifying tokens signed with secret.
func NewMiddleware(secret []byte, logger *slog.Logger) *Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &Middleware{secret: secret, logger: logger}
}

// Wrap applies token verification to next.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := ParseJWT(BearerToken(r.Header.Get("Authorization")), m.secret)
		if err != nil {
			m.logger.Warn("request rejected", slog.String("path", r.URL.Path), slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		ctx := WithIdentity(r.Context(), claims.Subject, claims.Email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
