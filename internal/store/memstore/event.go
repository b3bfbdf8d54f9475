// Package memstore is an in-memory implementation of the store contracts.
// Each store guards its state with a mutex so every operation is atomic,
// mirroring the conditional updates mongostore gets from the server.
// Used by tests and local tooling.
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

// EventStore holds events in a process-local map.
type EventStore struct {
	mu     sync.Mutex
	events map[string]*models.Event
}

// NewEventStore returns an empty EventStore.
func NewEventStore() *EventStore {
	return &EventStore{events: make(map[string]*models.Event)}
}

func (s *EventStore) Create(ctx context.Context, event *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[event.ID]; ok {
		return fmt.Errorf("event %s already exists", event.ID)
	}
	if event.AttendeeIDs == nil {
		event.AttendeeIDs = []string{}
	}
	cp := *event
	cp.AttendeeIDs = append([]string(nil), event.AttendeeIDs...)
	s.events[event.ID] = &cp
	return nil
}

func (s *EventStore) GetByID(ctx context.Context, id string) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLocked(id)
}

func (s *EventStore) List(ctx context.Context) ([]models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := make([]models.Event, 0, len(s.events))
	for id := range s.events {
		e, _ := s.copyLocked(id)
		events = append(events, *e)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].CreatedAt.After(events[j].CreatedAt) })
	return events, nil
}

// TryAdmit performs the membership and capacity checks and the insertion
// under one lock, so concurrent calls for the last open slot admit exactly
// one caller.
func (s *EventStore) TryAdmit(ctx context.Context, eventID, userID string) (store.AdmitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.events[eventID]
	if !ok {
		return store.AdmitResult{}, store.ErrNotFound
	}
	for _, id := range event.AttendeeIDs {
		if id == userID {
			return store.AdmitResult{Admitted: false, Reason: store.ReasonAlreadyRegistered}, nil
		}
	}
	if len(event.AttendeeIDs) >= event.Capacity {
		return store.AdmitResult{Admitted: false, Reason: store.ReasonEventFull}, nil
	}
	event.AttendeeIDs = append(event.AttendeeIDs, userID)
	event.UpdatedAt = time.Now().UTC()
	return store.AdmitResult{Admitted: true}, nil
}

func (s *EventStore) Remove(ctx context.Context, eventID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.events[eventID]
	if !ok {
		return false, store.ErrNotFound
	}
	for i, id := range event.AttendeeIDs {
		if id == userID {
			event.AttendeeIDs = append(event.AttendeeIDs[:i], event.AttendeeIDs[i+1:]...)
			event.UpdatedAt = time.Now().UTC()
			return true, nil
		}
	}
	return false, nil
}

func (s *EventStore) AttendeeCount(ctx context.Context, eventID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[eventID]
	if !ok {
		return 0, store.ErrNotFound
	}
	return len(event.AttendeeIDs), nil
}

func (s *EventStore) CapacityRemaining(ctx context.Context, eventID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[eventID]
	if !ok {
		return 0, store.ErrNotFound
	}
	return event.Remaining(), nil
}

func (s *EventStore) copyLocked(id string) (*models.Event, error) {
	event, ok := s.events[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *event
	cp.AttendeeIDs = append([]string(nil), event.AttendeeIDs...)
	return &cp, nil
}
