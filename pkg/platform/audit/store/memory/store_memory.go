// Package memory is the audit store used by tests and by the server when no database is
// configured.
package memory

import (
	"context"
	"sync"

	audit "memberpanel/pkg/platform/audit"
)

type InMemoryStore struct {
	mu        sync.RWMutex
	bySubject map[string][]audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{bySubject: make(map[string][]audit.Event)}
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	s.bySubject[event.Subject] = append(s.bySubject[event.Subject], event)
	s.mu.Unlock()
	return nil
}

// ListBySubject returns a copy of the events recorded for one application, oldest first.
func (s *InMemoryStore) ListBySubject(_ context.Context, subject string) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	events := s.bySubject[subject]
	out := make([]audit.Event, len(events))
	copy(out, events)
	return out, nil
}
