package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"annal/pkg/platform/middleware/auth"
	"annal/pkg/platform/middleware/metadata"
)

// NewRouter wires the public endpoints. Reads are open; mutations require a
// registrar bearer token.
func NewRouter(h *Handler, jwtSigningKey string, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(metadata.RequestLogger(logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/domains", func(r chi.Router) {
		r.Get("/{name}", h.handleGetDomain)
		r.Get("/{name}/revisions", h.handleListRevisions)
		r.Get("/{name}/at", h.handleDomainAt)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireToken(jwtSigningKey))
			r.Post("/", h.handleCreateDomain)
			r.Put("/{name}", h.handleUpdateDomain)
		})
	})
	return r
}
