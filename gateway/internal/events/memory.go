package events

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is the Store used when no database is configured.
type MemoryStore struct {
	mu     sync.RWMutex
	events map[string]SourcingEvent
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{events: make(map[string]SourcingEvent)}
}

func (s *MemoryStore) Upsert(ctx context.Context, events []SourcingEvent) (int, error) {
	if err := validateAll(events); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ev := range events {
		if existing, ok := s.events[ev.ID]; ok {
			ev.Platform = existing.Platform
		}
		s.events[ev.ID] = ev
	}
	return len(events), nil
}

func (s *MemoryStore) List(ctx context.Context, tenantID string) ([]SourcingEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]SourcingEvent, 0)
	for _, ev := range s.events {
		if ev.TenantID == tenantID {
			result = append(result, ev)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*SourcingEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ev, ok := s.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &ev, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

func (s *MemoryStore) Close() {}
