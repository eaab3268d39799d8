// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
)

// ResetHandler handles administrative reset requests.
type ResetHandler struct {
	deps Dependencies
}

// NewResetHandler creates a new reset handler.
func NewResetHandler(deps Dependencies) *ResetHandler {
	return &ResetHandler{deps: deps}
}

// HandleReset handles POST /reset requests. The aggregate is zeroed; used
// only for test and benchmark sequencing between runs.
func (h *ResetHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	h.deps.Reset(r.Context())
	w.WriteHeader(http.StatusOK)
}
