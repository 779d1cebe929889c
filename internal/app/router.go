package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/puntourbano/eventdesk/internal/auth"
	"github.com/puntourbano/eventdesk/internal/catalog"
	"github.com/puntourbano/eventdesk/internal/collections"
	"github.com/puntourbano/eventdesk/internal/observability"
	"github.com/puntourbano/eventdesk/internal/quotes"
	"github.com/puntourbano/eventdesk/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	Auth               *auth.Middleware
	QuotesHandler      *quotes.Handler
	CatalogHandler     *catalog.Handler
	CollectionsHandler *collections.Handler
	JobHandler         *jobs.Handler
	Metrics            *observability.Metrics
	// FilesDir is served under /files when attachments live on local disk.
	FilesDir string
}

// NewRouter constructs the chi.Router with eventdesk defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	if params.FilesDir != "" {
		fileServer := http.StripPrefix("/files/", http.FileServer(http.Dir(params.FilesDir)))
		r.Handle("/files/*", fileServer)
	}

	r.Route("/api", func(r chi.Router) {
		if params.Auth != nil {
			r.Use(params.Auth.Wrap)
		}
		if params.CatalogHandler != nil {
			params.CatalogHandler.MountRoutes(r)
		}
		if params.QuotesHandler != nil {
			params.QuotesHandler.MountRoutes(r)
		}
		if params.CollectionsHandler != nil {
			params.CollectionsHandler.MountRoutes(r)
		}
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	return r
}
