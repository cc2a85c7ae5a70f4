package handlers

import (
	"net/http"

	mw "github.com/scriptorium/claimledger/internal/api/middleware"
	"github.com/scriptorium/claimledger/internal/buildconfig"
	"github.com/scriptorium/claimledger/internal/registry"
)

// StatsHandler reports ledger and server counters.
type StatsHandler struct {
	reg     *registry.Registry
	metrics *mw.MetricsCollector
}

func NewStatsHandler(reg *registry.Registry, metrics *mw.MetricsCollector) *StatsHandler {
	return &StatsHandler{reg: reg, metrics: metrics}
}

func (h *StatsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	snap := h.reg.Snapshot()

	byStatus := make(map[string]int)
	byTier := make(map[int]int)
	for _, c := range snap.All() {
		byStatus[string(c.Status)]++
		byTier[int(c.Tier)]++
	}
	requests, errCount := h.metrics.Counts()
	writeJSON(w, http.StatusOK, map[string]any{
		"version":          buildconfig.Version(),
		"commit":           buildconfig.Commit(),
		"ledger_version":   snap.Version(),
		"claims":           snap.Len(),
		"claims_by_status": byStatus,
		"claims_by_tier":   byTier,
		"requests":         requests,
		"request_errors":   errCount,
	})
}
