package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/eventease/eventease-gobackend/internal/services"
	"github.com/eventease/eventease-gobackend/internal/store"
)

// EventHandler handles the organizer-facing event endpoints.
type EventHandler struct {
	service   *services.EventService
	jwtSecret []byte
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(service *services.EventService, jwtSecret []byte) *EventHandler {
	return &EventHandler{service: service, jwtSecret: jwtSecret}
}

// CreateEvent handles POST /api/event
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	if _, err := authUserID(r, h.jwtSecret); err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var req struct {
		Title         string  `json:"title"`
		Description   string  `json:"description"`
		Capacity      int     `json:"capacity"`
		PriceAmount   float64 `json:"price_amount"`
		PriceCurrency string  `json:"price_currency"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	event, err := h.service.CreateEvent(r.Context(), req.Title, req.Description, req.Capacity, req.PriceAmount, req.PriceCurrency)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, event)
}

// ListEvents handles GET /api/events
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.service.ListEvents(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// GetEvent handles GET /api/event/{eventID}
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["eventID"]

	event, err := h.service.GetEvent(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "event not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get event")
		return
	}
	writeJSON(w, http.StatusOK, event)
}
