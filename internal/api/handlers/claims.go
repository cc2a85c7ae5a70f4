package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/scriptorium/claimledger/internal/domain"
	"github.com/scriptorium/claimledger/internal/graph"
	"github.com/scriptorium/claimledger/internal/registry"
)

// ClaimHandler serves read-only ledger queries. Every request pins its own
// snapshot, so responses are internally consistent even while the single
// writer appends.
type ClaimHandler struct {
	reg *registry.Registry
}

func NewClaimHandler(reg *registry.Registry) *ClaimHandler {
	return &ClaimHandler{reg: reg}
}

type claimResponse struct {
	domain.Claim
	TierLabel  string `json:"tier_label"`
	Superseded bool   `json:"superseded,omitempty"`
}

func (h *ClaimHandler) List(w http.ResponseWriter, r *http.Request) {
	snap := h.reg.Snapshot()

	q := r.URL.Query()
	scope := q.Get("scope")
	status := q.Get("status")
	if status != "" && !domain.ValidStatus(status) {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}
	tier := -1
	if t := q.Get("tier"); t != "" {
		n, err := strconv.Atoi(t)
		if err != nil || !domain.ValidTier(n) {
			writeError(w, http.StatusBadRequest, "invalid tier")
			return
		}
		tier = n
	}

	claims := []claimResponse{}
	for _, c := range snap.All() {
		if scope != "" && c.Scope != scope {
			continue
		}
		if status != "" && c.Status != domain.Status(status) {
			continue
		}
		if tier >= 0 && int(c.Tier) != tier {
			continue
		}
		claims = append(claims, claimResponse{
			Claim:     c,
			TierLabel: domain.GetTierBehavior(c.Tier).Label,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"snapshot_version": snap.Version(),
		"claims":           claims,
	})
}

func (h *ClaimHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseClaimID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid claim id")
		return
	}
	snap := h.reg.Snapshot()
	c, ok := snap.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "claim not found")
		return
	}
	g, gerr := graph.Build(snap)
	resp := claimResponse{
		Claim:     c,
		TierLabel: domain.GetTierBehavior(c.Tier).Label,
	}
	if gerr == nil {
		resp.Superseded = g.IsSuperseded(id)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *ClaimHandler) Ancestors(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseClaimID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid claim id")
		return
	}
	snap := h.reg.Snapshot()
	if _, ok := snap.Get(id); !ok {
		writeError(w, http.StatusNotFound, "claim not found")
		return
	}
	g, err := graph.Build(snap)
	if err != nil {
		// A structurally broken ledger is a server-side condition.
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	ancestors, err := g.Ancestors(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":        id,
		"ancestors": ancestors,
	})
}
