package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/eventease/eventease-gobackend/internal/models"
	"github.com/eventease/eventease-gobackend/internal/store"
)

// TransactionStore holds the payment ledger in a process-local map keyed by
// transaction reference.
type TransactionStore struct {
	mu           sync.Mutex
	transactions map[string]*models.PaymentTransaction
}

// NewTransactionStore returns an empty TransactionStore.
func NewTransactionStore() *TransactionStore {
	return &TransactionStore{transactions: make(map[string]*models.PaymentTransaction)}
}

func (s *TransactionStore) Insert(ctx context.Context, tx *models.PaymentTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[tx.TxRef]; ok {
		return store.ErrDuplicateTxRef
	}
	cp := *tx
	s.transactions[tx.TxRef] = &cp
	return nil
}

func (s *TransactionStore) SetGatewayReference(ctx context.Context, txRef, gatewayRef, checkoutURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.transactions[txRef]
	if !ok {
		return store.ErrNotFound
	}
	tx.GatewayReference = gatewayRef
	tx.CheckoutURL = checkoutURL
	return nil
}

func (s *TransactionStore) FindByTxRef(ctx context.Context, txRef string) (*models.PaymentTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.transactions[txRef]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *tx
	return &cp, nil
}

func (s *TransactionStore) FindByUser(ctx context.Context, userID string) ([]models.PaymentTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var txs []models.PaymentTransaction
	for _, tx := range s.transactions {
		if tx.UserID == userID {
			txs = append(txs, *tx)
		}
	}
	sort.Slice(txs, func(i, j int) bool { return txs[i].CreatedAt.After(txs[j].CreatedAt) })
	return txs, nil
}

func (s *TransactionStore) HasSuccess(ctx context.Context, eventID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasSuccessLocked(eventID, userID, ""), nil
}

// MarkTerminal checks the pending precondition and applies the transition
// under one lock: exactly one caller observes the first transition, later
// callers get the stored row with ErrInvalidTransition.
func (s *TransactionStore) MarkTerminal(ctx context.Context, txRef string, status models.TxStatus, payload map[string]interface{}) (*models.PaymentTransaction, error) {
	if !status.Terminal() {
		return nil, fmt.Errorf("mark terminal: %q is not a terminal status", status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.transactions[txRef]
	if !ok {
		return nil, store.ErrNotFound
	}
	if tx.Status.Terminal() {
		cp := *tx
		return &cp, store.ErrInvalidTransition
	}
	if status == models.StatusSuccess && s.hasSuccessLocked(tx.EventID, tx.UserID, txRef) {
		return nil, store.ErrDuplicateSuccess
	}

	now := time.Now().UTC()
	tx.Status = status
	tx.VerifiedAt = &now
	if payload != nil {
		tx.VerificationPayload = payload
	}
	cp := *tx
	return &cp, nil
}

func (s *TransactionStore) hasSuccessLocked(eventID, userID, excludeTxRef string) bool {
	for ref, tx := range s.transactions {
		if ref == excludeTxRef {
			continue
		}
		if tx.EventID == eventID && tx.UserID == userID && tx.Status == models.StatusSuccess {
			return true
		}
	}
	return false
}

// ReconciliationStore holds reconciliation records in memory.
type ReconciliationStore struct {
	mu      sync.Mutex
	records []models.Reconciliation
}

// NewReconciliationStore returns an empty ReconciliationStore.
func NewReconciliationStore() *ReconciliationStore {
	return &ReconciliationStore{}
}

func (s *ReconciliationStore) Create(ctx context.Context, rec *models.Reconciliation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, *rec)
	return nil
}

func (s *ReconciliationStore) List(ctx context.Context) ([]models.Reconciliation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Reconciliation(nil), s.records...), nil
}
