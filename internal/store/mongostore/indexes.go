package mongostore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/eventease/eventease-gobackend/internal/models"
)

// EnsureIndexes creates the indexes the subsystem relies on. The partial
// unique index on (event_id, user_id) where status == success is the
// storage-level guarantee that a pair can never hold two successful
// transactions, whatever the callers do.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	txIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "event_id", Value: 1}, {Key: "user_id", Value: 1}},
			Options: options.Index().
				SetName("uq_success_per_event_user").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": models.StatusSuccess}),
		},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "event_id", Value: 1}, {Key: "created_at", Value: -1}}},
	}
	if _, err := db.Collection("transactions").Indexes().CreateMany(ctx, txIndexes); err != nil {
		return fmt.Errorf("create transaction indexes: %w", err)
	}

	userIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	if _, err := db.Collection("users").Indexes().CreateMany(ctx, userIndexes); err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}

	recIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "tx_ref", Value: 1}}},
	}
	if _, err := db.Collection("reconciliations").Indexes().CreateMany(ctx, recIndexes); err != nil {
		return fmt.Errorf("create reconciliation indexes: %w", err)
	}
	return nil
}
