// Package scope persists the geographic scopes attached to applications.
package scope

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"memberpanel/internal/application/models"
	id "memberpanel/pkg/domain"
	"memberpanel/pkg/requestcontext"
)

// InMemory keeps every scope row, including soft-deleted history.
type InMemory struct {
	mu   sync.RWMutex
	rows map[id.ApplicationID][]*models.ApplicationScope
}

func NewInMemory() *InMemory {
	return &InMemory{rows: make(map[id.ApplicationID][]*models.ApplicationScope)}
}

// CreateMany inserts one active row per scope, in order.
func (s *InMemory) CreateMany(ctx context.Context, applicationID id.ApplicationID, scopes []id.GeoScope) ([]*models.ApplicationScope, error) {
	now := requestcontext.Now(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.ApplicationScope, 0, len(scopes))
	for _, g := range scopes {
		row := &models.ApplicationScope{
			ID:            id.ScopeID(uuid.New()),
			ApplicationID: applicationID,
			ProvinceID:    g.ProvinceID,
			DistrictID:    g.DistrictID,
			CreatedAt:     now,
		}
		s.rows[applicationID] = append(s.rows[applicationID], row)
		c := *row
		out = append(out, &c)
	}
	return out, nil
}

// SoftDeleteAllForApplication stamps deleted_at on every active row.
func (s *InMemory) SoftDeleteAllForApplication(ctx context.Context, applicationID id.ApplicationID) error {
	now := requestcontext.Now(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, row := range s.rows[applicationID] {
		if row.DeletedAt == nil {
			deletedAt := now
			row.DeletedAt = &deletedAt
		}
	}
	return nil
}

func (s *InMemory) ListActiveForApplication(_ context.Context, applicationID id.ApplicationID) ([]*models.ApplicationScope, error) {
	return s.list(applicationID, true), nil
}

// ListHistory returns every row ever recorded for the application, oldest first.
func (s *InMemory) ListHistory(_ context.Context, applicationID id.ApplicationID) ([]*models.ApplicationScope, error) {
	return s.list(applicationID, false), nil
}

func (s *InMemory) list(applicationID id.ApplicationID, activeOnly bool) []*models.ApplicationScope {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.ApplicationScope, 0, len(s.rows[applicationID]))
	for _, row := range s.rows[applicationID] {
		if activeOnly && !row.IsActive() {
			continue
		}
		c := *row
		if row.DeletedAt != nil {
			deletedAt := *row.DeletedAt
			c.DeletedAt = &deletedAt
		}
		out = append(out, &c)
	}
	return out
}

