package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/eventease/eventease-gobackend/internal/services"
	"github.com/eventease/eventease-gobackend/internal/store"
)

// PaymentHandler handles registration, checkout, payment status and the
// gateway callback.
type PaymentHandler struct {
	registrations *services.RegistrationService
	callbacks     *services.CallbackService
	users         *services.UserService
	jwtSecret     []byte
}

// NewPaymentHandler constructs a PaymentHandler.
func NewPaymentHandler(
	registrations *services.RegistrationService,
	callbacks *services.CallbackService,
	users *services.UserService,
	jwtSecret []byte,
) *PaymentHandler {
	return &PaymentHandler{
		registrations: registrations,
		callbacks:     callbacks,
		users:         users,
		jwtSecret:     jwtSecret,
	}
}

// Register handles POST /api/event/{eventID}/register (free events).
func (h *PaymentHandler) Register(w http.ResponseWriter, r *http.Request) {
	userID, err := authUserID(r, h.jwtSecret)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	eventID := mux.Vars(r)["eventID"]

	result, err := h.registrations.Register(r.Context(), eventID, userID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "event not found")
		case errors.Is(err, services.ErrPaidEvent):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, services.ErrCapacityExceeded):
			writeError(w, http.StatusConflict, "event is fully booked")
		default:
			log.Printf("register failed for event %s: %v", eventID, err)
			writeError(w, http.StatusInternalServerError, "registration failed")
		}
		return
	}

	status := http.StatusCreated
	if result.State == services.StateAlreadyRegistered {
		status = http.StatusOK
	}
	writeJSON(w, status, result)
}

// Checkout handles POST /api/event/{eventID}/checkout (paid events). The
// caller re-confirms their password before a checkout session is opened.
func (h *PaymentHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, err := authUserID(r, h.jwtSecret)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	eventID := mux.Vars(r)["eventID"]

	var req struct {
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := h.users.VerifyPassword(r.Context(), userID, req.Password); err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			writeError(w, http.StatusForbidden, "password confirmation failed")
			return
		}
		writeError(w, http.StatusInternalServerError, "password confirmation failed")
		return
	}

	result, err := h.registrations.InitializePurchase(r.Context(), eventID, userID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "event not found")
		case errors.Is(err, services.ErrFreeEvent):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, services.ErrAlreadyTicketed):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, services.ErrCapacityExceeded):
			writeError(w, http.StatusConflict, "event is fully booked")
		case errors.Is(err, services.ErrGateway):
			writeError(w, http.StatusBadGateway, "payment gateway unavailable, please retry")
		default:
			log.Printf("checkout failed for event %s: %v", eventID, err)
			writeError(w, http.StatusInternalServerError, "checkout failed")
		}
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// PaymentStatus handles GET /api/payment/{txRef}
func (h *PaymentHandler) PaymentStatus(w http.ResponseWriter, r *http.Request) {
	if _, err := authUserID(r, h.jwtSecret); err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	txRef := mux.Vars(r)["txRef"]

	result, err := h.registrations.PaymentStatus(r.Context(), txRef)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "transaction not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch payment status")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// MyPayments handles GET /api/user/payments
func (h *PaymentHandler) MyPayments(w http.ResponseWriter, r *http.Request) {
	userID, err := authUserID(r, h.jwtSecret)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	txs, err := h.registrations.PaymentsByUser(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch payments")
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

// Callback handles GET/POST /api/payment/callback. The gateway delivers the
// transaction reference; everything else about the outcome is re-queried
// from the gateway's verify endpoint, never trusted from the request.
func (h *PaymentHandler) Callback(w http.ResponseWriter, r *http.Request) {
	txRef := r.URL.Query().Get("tx_ref")
	if txRef == "" {
		txRef = r.URL.Query().Get("trx_ref")
	}
	if txRef == "" {
		writeError(w, http.StatusBadRequest, "tx_ref is required")
		return
	}

	tx, err := h.callbacks.HandleCallback(r.Context(), txRef)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]interface{}{"transaction": tx})
	case errors.Is(err, services.ErrReconciliationRequired):
		// The ledger is settled; only the admission needs operator attention.
		// The gateway must not redeliver, so this is still a 200.
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"transaction":             tx,
			"reconciliation_required": true,
		})
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "transaction not found")
	case errors.Is(err, services.ErrGateway):
		writeError(w, http.StatusBadGateway, "verification unavailable, transaction left pending")
	default:
		log.Printf("callback processing failed for %s: %v", txRef, err)
		writeError(w, http.StatusInternalServerError, "callback processing failed")
	}
}
