package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/eventease/eventease-gobackend/internal/models"
	"github.com/eventease/eventease-gobackend/internal/store"
	"github.com/eventease/eventease-gobackend/internal/txref"
)

// PaymentGateway is the outbound contract to the payment provider.
type PaymentGateway interface {
	Initialize(ctx context.Context, req ChapaInitializeRequest) (*ChapaInitializeResult, error)
	Verify(ctx context.Context, txRef string) (*ChapaVerifyResult, error)
}

// Registration states reported to callers.
const (
	StateFreeAdmitted      = "free_admitted"
	StateAlreadyRegistered = "already_registered"
	StatePaymentPending    = "payment_pending"
)

// RegistrationResult is the outcome of a free-event registration attempt.
type RegistrationResult struct {
	State   string        `json:"state"`
	EventID string        `json:"event_id"`
	UserID  string        `json:"user_id"`
	Event   *models.Event `json:"event,omitempty"`
}

// CheckoutResult carries the gateway redirect for a paid-event purchase.
type CheckoutResult struct {
	State       string  `json:"state"`
	TxRef       string  `json:"tx_ref"`
	CheckoutURL string  `json:"checkout_url"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
}

// PaymentStatusResult joins a ledger snapshot with its event summary.
type PaymentStatusResult struct {
	Transaction *models.PaymentTransaction `json:"transaction"`
	Event       *models.Event              `json:"event,omitempty"`
}

// RegistrationService orchestrates free-event admission and paid-event
// checkout. A user becomes a confirmed attendee of a paid event only after
// the gateway callback verifies the payment (see CallbackService).
type RegistrationService struct {
	events      store.EventStore
	ledger      store.TransactionStore
	users       store.UserStore
	gateway     PaymentGateway
	refs        *txref.Generator
	callbackURL string
	returnURL   string
}

// NewRegistrationService constructs a RegistrationService.
func NewRegistrationService(
	events store.EventStore,
	ledger store.TransactionStore,
	users store.UserStore,
	gateway PaymentGateway,
	refs *txref.Generator,
	callbackURL, returnURL string,
) *RegistrationService {
	return &RegistrationService{
		events:      events,
		ledger:      ledger,
		users:       users,
		gateway:     gateway,
		refs:        refs,
		callbackURL: callbackURL,
		returnURL:   returnURL,
	}
}

// Register admits a user to a free event. Registering twice is an idempotent
// success; a full event is ErrCapacityExceeded; a paid event is rejected
// with ErrPaidEvent because purchase and registration are distinct steps.
func (s *RegistrationService) Register(ctx context.Context, eventID, userID string) (*RegistrationResult, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !event.IsFree() {
		return nil, ErrPaidEvent
	}

	result, err := s.events.TryAdmit(ctx, eventID, userID)
	if err != nil {
		return nil, err
	}
	if result.Admitted {
		log.Printf("user %s admitted to free event %s", userID, eventID)
		event, _ = s.events.GetByID(ctx, eventID)
		return &RegistrationResult{State: StateFreeAdmitted, EventID: eventID, UserID: userID, Event: event}, nil
	}
	if result.Reason == store.ReasonAlreadyRegistered {
		return &RegistrationResult{State: StateAlreadyRegistered, EventID: eventID, UserID: userID, Event: event}, nil
	}
	return nil, ErrCapacityExceeded
}

// InitializePurchase creates a pending ledger row for a paid event and asks
// the gateway for a checkout session. The capacity check here is optimistic;
// the binding admission happens at callback time. If the gateway call fails
// the pending row stays behind untouched - it can never be promoted without
// a verified callback, so it is harmless.
func (s *RegistrationService) InitializePurchase(ctx context.Context, eventID, userID string) (*CheckoutResult, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.IsFree() {
		return nil, ErrFreeEvent
	}

	ticketed, err := s.ledger.HasSuccess(ctx, eventID, userID)
	if err != nil {
		return nil, err
	}
	if ticketed {
		return nil, ErrAlreadyTicketed
	}
	if event.Remaining() == 0 {
		return nil, ErrCapacityExceeded
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	tx, err := s.createPending(ctx, event, userID)
	if err != nil {
		return nil, err
	}

	firstName, lastName := splitName(user.FullName)
	init, err := s.gateway.Initialize(ctx, ChapaInitializeRequest{
		Amount:      event.PriceAmount,
		Currency:    event.PriceCurrency,
		Email:       user.Email,
		FirstName:   firstName,
		LastName:    lastName,
		TxRef:       tx.TxRef,
		CallbackURL: s.callbackURL + "?tx_ref=" + tx.TxRef,
		ReturnURL:   s.returnURL + "?tx_ref=" + tx.TxRef,
		Title:       event.Title,
		Description: "Ticket for " + event.Title,
	})
	if err != nil {
		log.Printf("gateway initialize failed for %s: %v", tx.TxRef, err)
		return nil, err
	}

	if err := s.ledger.SetGatewayReference(ctx, tx.TxRef, init.GatewayReference, init.CheckoutURL); err != nil {
		log.Printf("failed to record gateway reference for %s: %v", tx.TxRef, err)
	}

	log.Printf("checkout initialized: tx_ref=%s event=%s user=%s", tx.TxRef, eventID, userID)
	return &CheckoutResult{
		State:       StatePaymentPending,
		TxRef:       tx.TxRef,
		CheckoutURL: init.CheckoutURL,
		Amount:      event.PriceAmount,
		Currency:    event.PriceCurrency,
	}, nil
}

// createPending inserts a fresh pending row, regenerating the reference on
// the off chance it collides with an existing one.
func (s *RegistrationService) createPending(ctx context.Context, event *models.Event, userID string) (*models.PaymentTransaction, error) {
	const maxAttempts = 3
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		tx := &models.PaymentTransaction{
			TxRef:     s.refs.Generate(),
			EventID:   event.ID,
			UserID:    userID,
			Amount:    event.PriceAmount,
			Currency:  event.PriceCurrency,
			Status:    models.StatusPending,
			CreatedAt: time.Now().UTC(),
		}
		err = s.ledger.Insert(ctx, tx)
		if err == nil {
			return tx, nil
		}
		if !errors.Is(err, store.ErrDuplicateTxRef) {
			return nil, err
		}
		log.Printf("transaction reference collision, regenerating (attempt %d)", attempt+1)
	}
	return nil, fmt.Errorf("could not generate a unique transaction reference: %w", err)
}

// PaymentStatus returns the ledger's view of a transaction joined with its
// event summary. The ledger state is authoritative, never the redirect that
// brought the caller here.
func (s *RegistrationService) PaymentStatus(ctx context.Context, txRef string) (*PaymentStatusResult, error) {
	tx, err := s.ledger.FindByTxRef(ctx, txRef)
	if err != nil {
		return nil, err
	}
	event, err := s.events.GetByID(ctx, tx.EventID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	return &PaymentStatusResult{Transaction: tx, Event: event}, nil
}

// PaymentsByUser lists a user's payment attempts, newest first.
func (s *RegistrationService) PaymentsByUser(ctx context.Context, userID string) ([]models.PaymentTransaction, error) {
	return s.ledger.FindByUser(ctx, userID)
}

func splitName(full string) (string, string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}
