// Package mongostore implements the store contracts on MongoDB. Every
// concurrency-sensitive write is a single conditional update so correctness
// does not depend on application-level locking.
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

// EventStore persists events in the "events" collection.
type EventStore struct {
	collection *mongo.Collection
}

// NewEventStore constructs an EventStore on the given database handle.
func NewEventStore(db *mongo.Database) *EventStore {
	return &EventStore{collection: db.Collection("events")}
}

func (s *EventStore) Create(ctx context.Context, event *models.Event) error {
	if event.AttendeeIDs == nil {
		event.AttendeeIDs = []string{}
	}
	if _, err := s.collection.InsertOne(ctx, event); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (s *EventStore) GetByID(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	if err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&event); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("fetch event: %w", err)
	}
	return &event, nil
}

func (s *EventStore) List(ctx context.Context) ([]models.Event, error) {
	cur, err := s.collection.Find(ctx, bson.D{}, options.Find().SetSort(bson.M{"created_at": -1}))
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer cur.Close(ctx)

	var events []models.Event
	if err := cur.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}
	return events, nil
}

// TryAdmit adds userID to the attendee set if and only if the user is not
// already present and the set is below capacity. Both conditions live in the
// update filter, so the check and the write are one indivisible server-side
// operation: two concurrent calls for the last slot cannot both match.
func (s *EventStore) TryAdmit(ctx context.Context, eventID, userID string) (store.AdmitResult, error) {
	filter := bson.M{
		"_id":          eventID,
		"attendee_ids": bson.M{"$ne": userID},
		"$expr": bson.M{"$lt": bson.A{
			bson.M{"$size": bson.M{"$ifNull": bson.A{"$attendee_ids", bson.A{}}}},
			"$capacity",
		}},
	}
	update := bson.M{
		"$addToSet": bson.M{"attendee_ids": userID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	}

	res, err := s.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return store.AdmitResult{}, fmt.Errorf("admit attendee: %w", err)
	}
	if res.ModifiedCount == 1 {
		return store.AdmitResult{Admitted: true}, nil
	}

	// The guarded update did not match; read the document once to tell the
	// caller which condition failed.
	event, err := s.GetByID(ctx, eventID)
	if err != nil {
		return store.AdmitResult{}, err
	}
	for _, id := range event.AttendeeIDs {
		if id == userID {
			return store.AdmitResult{Admitted: false, Reason: store.ReasonAlreadyRegistered}, nil
		}
	}
	return store.AdmitResult{Admitted: false, Reason: store.ReasonEventFull}, nil
}

// Remove pulls userID from the attendee set. Idempotent; reports whether a
// removal actually happened.
func (s *EventStore) Remove(ctx context.Context, eventID, userID string) (bool, error) {
	res, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": eventID},
		bson.M{
			"$pull": bson.M{"attendee_ids": userID},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return false, fmt.Errorf("remove attendee: %w", err)
	}
	if res.MatchedCount == 0 {
		return false, store.ErrNotFound
	}
	return res.ModifiedCount == 1, nil
}

func (s *EventStore) AttendeeCount(ctx context.Context, eventID string) (int, error) {
	event, err := s.GetByID(ctx, eventID)
	if err != nil {
		return 0, err
	}
	return len(event.AttendeeIDs), nil
}

func (s *EventStore) CapacityRemaining(ctx context.Context, eventID string) (int, error) {
	event, err := s.GetByID(ctx, eventID)
	if err != nil {
		return 0, err
	}
	return event.Remaining(), nil
}
