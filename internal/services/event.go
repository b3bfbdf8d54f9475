package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/eventease/eventease-gobackend/internal/models"
	"github.com/eventease/eventease-gobackend/internal/store"
)

// EventService covers the organizer-facing subset of event CRUD needed to
// drive the registration subsystem.
type EventService struct {
	events store.EventStore
}

// NewEventService constructs an EventService.
func NewEventService(events store.EventStore) *EventService {
	return &EventService{events: events}
}

// CreateEvent validates and persists a new event. Malformed shapes are
// rejected here, before anything reaches the coordinator.
func (s *EventService) CreateEvent(ctx context.Context, title, description string, capacity int, priceAmount float64, priceCurrency string) (*models.Event, error) {
	title = strings.TrimSpace(title)
	priceCurrency = strings.ToUpper(strings.TrimSpace(priceCurrency))

	if title == "" {
		return nil, fmt.Errorf("title is required")
	}
	if capacity < 1 {
		return nil, fmt.Errorf("capacity must be at least 1")
	}
	if priceAmount < 0 {
		return nil, fmt.Errorf("price cannot be negative")
	}
	if priceAmount > 0 && priceCurrency == "" {
		return nil, fmt.Errorf("currency is required for paid events")
	}

	now := time.Now().UTC()
	event := &models.Event{
		ID:            uuid.NewString(),
		Title:         title,
		Description:   strings.TrimSpace(description),
		Capacity:      capacity,
		PriceAmount:   priceAmount,
		PriceCurrency: priceCurrency,
		AttendeeIDs:   []string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.events.Create(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// GetEvent returns a single event by ID.
func (s *EventService) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	if id == "" {
		return nil, store.ErrNotFound
	}
	return s.events.GetByID(ctx, id)
}

// ListEvents returns all events, newest first.
func (s *EventService) ListEvents(ctx context.Context) ([]models.Event, error) {
	return s.events.List(ctx)
}
