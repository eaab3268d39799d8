// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/recnos/onemrc/internal/domain/model"
)

// EventHandler handles event ingestion requests.
type EventHandler struct {
	deps Dependencies
}

// NewEventHandler creates a new event handler.
func NewEventHandler(deps Dependencies) *EventHandler {
	return &EventHandler{deps: deps}
}

// HandlePostEvent handles POST /event requests. Accepted events answer with
// a bare 200; validation failures answer 400 so callers can count them as
// failed attempts.
func (h *EventHandler) HandlePostEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: invalid JSON", ErrBadRequest))
		return
	}

	event := model.Event{UserID: req.UserID, Value: req.Value}
	if err := h.deps.Accept(r.Context(), event); err != nil {
		if errors.Is(err, model.ErrInvalidEvent) {
			writeError(w, http.StatusBadRequest, "invalid_event", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal", err)
		return
	}

	w.WriteHeader(http.StatusOK)
}
