package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/scriptorium/claimledger/internal/registry"
	"github.com/scriptorium/claimledger/internal/resolver"
	"github.com/scriptorium/claimledger/internal/scanner"
)

// ValidateHandler resolves ad-hoc text against the current ledger, for
// editor integrations that want diagnostics without a filesystem pass.
type ValidateHandler struct {
	reg *registry.Registry
}

func NewValidateHandler(reg *registry.Registry) *ValidateHandler {
	return &ValidateHandler{reg: reg}
}

type validateRequest struct {
	Text    string `json:"text"`
	Binding bool   `json:"binding,omitempty"`
}

func (h *ValidateHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	snap := h.reg.Snapshot()
	citations := scanner.ScanAll("", req.Text)
	diags := resolver.New(snap).Resolve(citations, resolver.Options{Binding: req.Binding})

	writeJSON(w, http.StatusOK, map[string]any{
		"snapshot_version": snap.Version(),
		"citations":        len(citations),
		"diagnostics":      diags,
	})
}
