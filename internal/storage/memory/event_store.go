package memory

import (
	"context"
	"sort"
	"sync"

	"solana-prediction/internal/domain"
	"solana-prediction/internal/storage"
)

// EventStore is an in-memory implementation of storage.EventStore.
type EventStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Event // keyed by event_id
}

// NewEventStore creates a new in-memory event store.
func NewEventStore() *EventStore {
	return &EventStore{
		data: make(map[string]*domain.Event),
	}
}

// InsertBulk adds events. Fails entire batch on any duplicate event_id.
func (s *EventStore) InsertBulk(_ context.Context, events []*domain.Event) error {
	if len(events) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, len(events))
	for _, e := range events {
		if e == nil || e.EventID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[e.EventID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := seen[e.EventID]; exists {
			return storage.ErrDuplicateKey
		}
		seen[e.EventID] = struct{}{}
	}

	for _, e := range events {
		eventCopy := *e
		s.data[e.EventID] = &eventCopy
	}
	return nil
}

// GetByProposal retrieves events of a proposal, ordered by timestamp ASC.
func (s *EventStore) GetByProposal(_ context.Context, proposal string) ([]*domain.Event, error) {
	return s.filter(func(e *domain.Event) bool { return e.Proposal == proposal }), nil
}

// GetByAccount retrieves events that touched account, ordered by timestamp ASC.
func (s *EventStore) GetByAccount(_ context.Context, account string) ([]*domain.Event, error) {
	return s.filter(func(e *domain.Event) bool { return e.Account == account }), nil
}

func (s *EventStore) filter(keep func(*domain.Event) bool) []*domain.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Event
	for _, e := range s.data {
		if keep(e) {
			eventCopy := *e
			result = append(result, &eventCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].TimestampMs != result[j].TimestampMs {
			return result[i].TimestampMs < result[j].TimestampMs
		}
		return result[i].EventID < result[j].EventID
	})

	return result
}

var _ storage.EventStore = (*EventStore)(nil)
