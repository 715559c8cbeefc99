package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter builds the admin HTTP surface. The /api/v1 routes are only
// mounted when jwtSecret is set.
func NewRouter(handler *AdminHandler, jwtSecret string, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(PrometheusMetricsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	if jwtSecret == "" {
		logger.Warn("ADMIN_JWT_SECRET not set, admin API disabled")
		return r
	}
	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Use(AdminAuthMiddleware(jwtSecret, logger))
		handler.RegisterRoutes(v1)
	})
	return r
}
