package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/eventease/eventease-gobackend/internal/models"
	"github.com/eventease/eventease-gobackend/internal/store"
)

// TransactionStore persists the payment ledger in the "transactions"
// collection, keyed by transaction reference.
type TransactionStore struct {
	collection *mongo.Collection
}

// NewTransactionStore constructs a TransactionStore on the given database handle.
func NewTransactionStore(db *mongo.Database) *TransactionStore {
	return &TransactionStore{collection: db.Collection("transactions")}
}

// Insert adds a new ledger row. The _id primary key is the final authority on
// reference uniqueness; a collision surfaces as ErrDuplicateTxRef so the
// caller can regenerate and retry.
func (s *TransactionStore) Insert(ctx context.Context, tx *models.PaymentTransaction) error {
	if _, err := s.collection.InsertOne(ctx, tx); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrDuplicateTxRef
		}
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// SetGatewayReference records the gateway's own reference and checkout URL
// on a freshly initialized transaction.
func (s *TransactionStore) SetGatewayReference(ctx context.Context, txRef, gatewayRef, checkoutURL string) error {
	res, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": txRef},
		bson.M{"$set": bson.M{"gateway_reference": gatewayRef, "checkout_url": checkoutURL}},
	)
	if err != nil {
		return fmt.Errorf("set gateway reference: %w", err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *TransactionStore) FindByTxRef(ctx context.Context, txRef string) (*models.PaymentTransaction, error) {
	var tx models.PaymentTransaction
	if err := s.collection.FindOne(ctx, bson.M{"_id": txRef}).Decode(&tx); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("fetch transaction: %w", err)
	}
	return &tx, nil
}

func (s *TransactionStore) FindByUser(ctx context.Context, userID string) ([]models.PaymentTransaction, error) {
	cur, err := s.collection.Find(ctx,
		bson.M{"user_id": userID},
		options.Find().SetSort(bson.M{"created_at": -1}),
	)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer cur.Close(ctx)

	var txs []models.PaymentTransaction
	if err := cur.All(ctx, &txs); err != nil {
		return nil, fmt.Errorf("decode transactions: %w", err)
	}
	return txs, nil
}

func (s *TransactionStore) HasSuccess(ctx context.Context, eventID, userID string) (bool, error) {
	n, err := s.collection.CountDocuments(ctx, bson.M{
		"event_id": eventID,
		"user_id":  userID,
		"status":   models.StatusSuccess,
	})
	if err != nil {
		return false, fmt.Errorf("count successful transactions: %w", err)
	}
	return n > 0, nil
}

// MarkTerminal transitions a pending transaction to the given terminal
// status. The pending precondition sits in the update filter, so under
// concurrent duplicate callbacks exactly one caller gets the updated row;
// every other caller gets the stored row with ErrInvalidTransition. A
// transition to success that would duplicate an existing success for the
// same (event, user) pair is rejected by the partial unique index and
// surfaces as ErrDuplicateSuccess.
func (s *TransactionStore) MarkTerminal(ctx context.Context, txRef string, status models.TxStatus, payload map[string]interface{}) (*models.PaymentTransaction, error) {
	if !status.Terminal() {
		return nil, fmt.Errorf("mark terminal: %q is not a terminal status", status)
	}

	now := time.Now().UTC()
	set := bson.M{
		"status":      status,
		"verified_at": now,
	}
	if payload != nil {
		set["verification_payload"] = payload
	}

	var tx models.PaymentTransaction
	err := s.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": txRef, "status": models.StatusPending},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&tx)
	if err == nil {
		return &tx, nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return nil, store.ErrDuplicateSuccess
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("mark transaction terminal: %w", err)
	}

	// No pending row matched: either the reference is unknown or the
	// transaction already reached a terminal state.
	existing, ferr := s.FindByTxRef(ctx, txRef)
	if ferr != nil {
		return nil, ferr
	}
	return existing, store.ErrInvalidTransition
}

// ReconciliationStore persists operator-facing reconciliation records.
type ReconciliationStore struct {
	collection *mongo.Collection
}

// NewReconciliationStore constructs a ReconciliationStore on the given database handle.
func NewReconciliationStore(db *mongo.Database) *ReconciliationStore {
	return &ReconciliationStore{collection: db.Collection("reconciliations")}
}

func (s *ReconciliationStore) Create(ctx context.Context, rec *models.Reconciliation) error {
	if _, err := s.collection.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("insert reconciliation: %w", err)
	}
	return nil
}

func (s *ReconciliationStore) List(ctx context.Context) ([]models.Reconciliation, error) {
	cur, err := s.collection.Find(ctx, bson.D{}, options.Find().SetSort(bson.M{"created_at": -1}))
	if err != nil {
		return nil, fmt.Errorf("list reconciliations: %w", err)
	}
	defer cur.Close(ctx)

	var recs []models.Reconciliation
	if err := cur.All(ctx, &recs); err != nil {
		return nil, fmt.Errorf("decode reconciliations: %w", err)
	}
	return recs, nil
}
