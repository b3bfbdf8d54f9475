package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/eventease/eventease-gobackend/internal/models"
	"github.com/eventease/eventease-gobackend/internal/store"
)

// CallbackService reconciles the gateway's asynchronous verdict with the
// local ledger and attendee state. Trust comes from re-querying the
// gateway's verify endpoint, never from the callback parameters themselves.
type CallbackService struct {
	events          store.EventStore
	ledger          store.TransactionStore
	users           store.UserStore
	reconciliations store.ReconciliationStore
	gateway         PaymentGateway
	mailer          Mailer
}

// NewCallbackService constructs a CallbackService.
func NewCallbackService(
	events store.EventStore,
	ledger store.TransactionStore,
	users store.UserStore,
	reconciliations store.ReconciliationStore,
	gateway PaymentGateway,
	mailer Mailer,
) *CallbackService {
	return &CallbackService{
		events:          events,
		ledger:          ledger,
		users:           users,
		reconciliations: reconciliations,
		gateway:         gateway,
		mailer:          mailer,
	}
}

// HandleCallback processes one gateway callback delivery for txRef.
//
// Replays of an already-resolved transaction return the stored terminal
// state with no side effects. A verify transport failure leaves the
// transaction pending and propagates the gateway error for the gateway to
// retry. On the first transition to success the user is admitted; if the
// event filled between initialization and verification the payment stays
// recorded as success, the user is NOT admitted, and the call returns the
// transaction together with ErrReconciliationRequired.
func (s *CallbackService) HandleCallback(ctx context.Context, txRef string) (*models.PaymentTransaction, error) {
	tx, err := s.ledger.FindByTxRef(ctx, txRef)
	if err != nil {
		return nil, err
	}
	if tx.Status.Terminal() {
		log.Printf("callback replay for %s, already %s", txRef, tx.Status)
		return tx, nil
	}

	result, err := s.gateway.Verify(ctx, txRef)
	if err != nil {
		// Unknown outcome: leave the transaction pending.
		log.Printf("verify failed for %s, leaving pending: %v", txRef, err)
		return nil, err
	}

	status := models.StatusFailed
	switch result.Status {
	case "success":
		status = models.StatusSuccess
	case "cancelled", "canceled", "aborted":
		status = models.StatusCancelled
	}

	updated, err := s.ledger.MarkTerminal(ctx, txRef, status, result.Raw)
	if errors.Is(err, store.ErrInvalidTransition) {
		// A concurrent delivery won the transition; its side effects already
		// happened. Report the stored state.
		log.Printf("concurrent callback resolved %s first, now %s", txRef, updated.Status)
		return updated, nil
	}
	if errors.Is(err, store.ErrDuplicateSuccess) {
		// Another transaction for this (event, user) pair already reached
		// success. Record the conflict instead of double-admitting.
		return s.resolveSuccessConflict(ctx, tx, result.Raw)
	}
	if err != nil {
		return nil, err
	}

	if status != models.StatusSuccess {
		log.Printf("transaction %s resolved as %s", txRef, status)
		return updated, nil
	}

	admit, err := s.events.TryAdmit(ctx, tx.EventID, tx.UserID)
	if err != nil {
		log.Printf("reconciliation required: admit after payment %s failed: %v", txRef, err)
		s.recordReconciliation(ctx, updated, "admission error: "+err.Error())
		return updated, ErrReconciliationRequired
	}
	if !admit.Admitted {
		if admit.Reason == store.ReasonAlreadyRegistered {
			// Membership already exists; nothing to reconcile.
			log.Printf("payment %s verified, user %s already attending event %s", txRef, tx.UserID, tx.EventID)
			return updated, nil
		}
		log.Printf("reconciliation required: payment %s succeeded but event %s is full", txRef, tx.EventID)
		s.recordReconciliation(ctx, updated, "event filled before payment verification")
		return updated, ErrReconciliationRequired
	}

	log.Printf("payment %s verified, user %s admitted to event %s", txRef, tx.UserID, tx.EventID)
	s.sendConfirmation(ctx, updated)
	return updated, nil
}

// resolveSuccessConflict marks the losing transaction failed with a conflict
// note and records the payment for operator follow-up.
func (s *CallbackService) resolveSuccessConflict(ctx context.Context, tx *models.PaymentTransaction, raw map[string]interface{}) (*models.PaymentTransaction, error) {
	payload := map[string]interface{}{
		"conflict":     "a successful transaction already exists for this event and user",
		"gateway_body": raw,
	}
	updated, err := s.ledger.MarkTerminal(ctx, tx.TxRef, models.StatusFailed, payload)
	if err != nil && !errors.Is(err, store.ErrInvalidTransition) {
		return nil, err
	}
	log.Printf("reconciliation required: gateway reported success for %s but (event=%s,user=%s) already holds a success", tx.TxRef, tx.EventID, tx.UserID)
	s.recordReconciliation(ctx, tx, "second verified success for the same event and user")
	return updated, ErrReconciliationRequired
}

func (s *CallbackService) recordReconciliation(ctx context.Context, tx *models.PaymentTransaction, reason string) {
	rec := &models.Reconciliation{
		TxRef:     tx.TxRef,
		EventID:   tx.EventID,
		UserID:    tx.UserID,
		Reason:    reason,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.reconciliations.Create(ctx, rec); err != nil {
		// The distinct log line above is the last resort if persistence fails.
		log.Printf("failed to persist reconciliation record for %s: %v", tx.TxRef, err)
	}
}

// sendConfirmation mails the attendee. Failures are logged and never roll
// back the admission or the ledger state.
func (s *CallbackService) sendConfirmation(ctx context.Context, tx *models.PaymentTransaction) {
	if s.mailer == nil {
		return
	}
	event, err := s.events.GetByID(ctx, tx.EventID)
	if err != nil {
		log.Printf("confirmation email skipped for %s: %v", tx.TxRef, err)
		return
	}
	user, err := s.users.GetByID(ctx, tx.UserID)
	if err != nil {
		log.Printf("confirmation email skipped for %s: %v", tx.TxRef, err)
		return
	}
	if err := s.mailer.SendPaymentConfirmation(ctx, tx, event, user); err != nil {
		log.Printf("confirmation email failed for %s: %v", tx.TxRef, err)
	}
}
