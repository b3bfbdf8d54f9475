// Package store defines the persistence contracts for the registration and
// payment subsystem, plus the sentinel errors handlers branch on. Two
// implementations exist: mongostore (production) and memstore (tests).
package store

import (
	"context"
	"errors"

	"github.com/eventease/eventease-gobackend/internal/models"
)

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateTxRef is returned when inserting a transaction whose
// reference already exists. Callers regenerate the reference and retry.
var ErrDuplicateTxRef = errors.New("transaction reference already exists")

// ErrInvalidTransition is returned when a terminal transaction is asked to
// transition again. Repeated gateway callbacks land here.
var ErrInvalidTransition = errors.New("transaction already in a terminal state")

// ErrDuplicateSuccess is returned when a transition to success would create
// a second successful transaction for the same (event, user) pair.
var ErrDuplicateSuccess = errors.New("a successful transaction already exists for this event and user")

// Admission reasons reported by TryAdmit when admission is refused.
const (
	ReasonAlreadyRegistered = "already_registered"
	ReasonEventFull         = "event_full"
)

// AdmitResult is the outcome of a single admission attempt. Refusals are
// results, not errors: callers branch on Reason.
type AdmitResult struct {
	Admitted bool   `json:"admitted"`
	Reason   string `json:"reason,omitempty"`
}

// EventStore persists events and enforces the capacity invariant. TryAdmit
// must be a single atomic conditional update: under concurrent calls for the
// last open slot, exactly one caller is admitted.
type EventStore interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id string) (*models.Event, error)
	List(ctx context.Context) ([]models.Event, error)
	TryAdmit(ctx context.Context, eventID, userID string) (AdmitResult, error)
	Remove(ctx context.Context, eventID, userID string) (bool, error)
	AttendeeCount(ctx context.Context, eventID string) (int, error)
	CapacityRemaining(ctx context.Context, eventID string) (int, error)
}

// TransactionStore persists the payment ledger. MarkTerminal is guarded by
// the pending status: exactly one caller observes the first transition, all
// later callers get ErrInvalidTransition.
type TransactionStore interface {
	Insert(ctx context.Context, tx *models.PaymentTransaction) error
	SetGatewayReference(ctx context.Context, txRef, gatewayRef, checkoutURL string) error
	FindByTxRef(ctx context.Context, txRef string) (*models.PaymentTransaction, error)
	FindByUser(ctx context.Context, userID string) ([]models.PaymentTransaction, error)
	HasSuccess(ctx context.Context, eventID, userID string) (bool, error)
	MarkTerminal(ctx context.Context, txRef string, status models.TxStatus, payload map[string]interface{}) (*models.PaymentTransaction, error)
}

// UserStore persists user accounts.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// ReconciliationStore records payments that succeeded without admission.
type ReconciliationStore interface {
	Create(ctx context.Context, rec *models.Reconciliation) error
	List(ctx context.Context) ([]models.Reconciliation, error)
}
