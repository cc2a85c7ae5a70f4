package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/scriptorium/claimledger/internal/api/handlers"
	mw "github.com/scriptorium/claimledger/internal/api/middleware"
	"github.com/scriptorium/claimledger/internal/buildconfig"
	"github.com/scriptorium/claimledger/internal/config"
	"github.com/scriptorium/claimledger/internal/registry"
	"go.uber.org/zap"
)

// NewRouter builds the read-only HTTP surface over the ledger. Mutations
// stay single-writer through the CLI; nothing here writes.
func NewRouter(reg *registry.Registry, logger *zap.Logger) *chi.Mux {
	claimHandler := handlers.NewClaimHandler(reg)
	validateHandler := handlers.NewValidateHandler(reg)
	metrics := mw.NewMetricsCollector()

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(mw.RequestID)
	r.Use(mw.Logging(logger))
	r.Use(metrics.Middleware)
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst()))
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok","version":"` + buildconfig.Version() + `"}`))
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.BearerAuth(config.APIToken()))
		r.Get("/claims", claimHandler.List)
		r.Get("/claims/{id}", claimHandler.Get)
		r.Get("/claims/{id}/ancestors", claimHandler.Ancestors)
		r.Post("/validate", validateHandler.Validate)
		r.Get("/stats", handlers.NewStatsHandler(reg, metrics).Stats)
	})

	return r
}
