// Package application persists panel user applications.
package application

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"memberpanel/internal/application/models"
	id "memberpanel/pkg/domain"
	"memberpanel/pkg/platform/sentinel"
)

type entry struct {
	seq    int64
	record models.Record
}

// InMemory mirrors the Postgres constraints: one active application per member and
// review writes only against PENDING rows.
type InMemory struct {
	mu      sync.RWMutex
	seq     int64
	entries map[id.ApplicationID]*entry
}

func NewInMemory() *InMemory {
	return &InMemory{entries: make(map[id.ApplicationID]*entry)}
}

// Create assigns an id and stores the application. It returns sentinel.ErrAlreadyUsed
// if the member already has a PENDING or APPROVED application.
func (s *InMemory) Create(_ context.Context, app *models.Application) (*models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := app.Record()
	if app.IsActive() {
		for _, e := range s.entries {
			if e.record.MemberID == rec.MemberID && isActive(e.record.Status) {
				return nil, sentinel.ErrAlreadyUsed
			}
		}
	}

	rec.ID = id.ApplicationID(uuid.New())
	created, err := models.FromRecord(rec)
	if err != nil {
		return nil, err
	}
	s.seq++
	s.entries[rec.ID] = &entry{seq: s.seq, record: rec}
	return created, nil
}

// Save persists a review decision. The stored row must still be PENDING, otherwise
// sentinel.ErrInvalidState is returned and nothing changes.
func (s *InMemory) Save(_ context.Context, app *models.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[app.ID()]
	if !ok {
		return sentinel.ErrNotFound
	}
	if e.record.Status != models.StatusPending {
		return sentinel.ErrInvalidState
	}
	e.record = app.Record()
	return nil
}

func (s *InMemory) FindByID(_ context.Context, applicationID id.ApplicationID) (*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[applicationID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return models.FromRecord(e.record)
}

// FindByMemberID returns the member's most recent application.
func (s *InMemory) FindByMemberID(_ context.Context, memberID id.MemberID) (*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *entry
	for _, e := range s.entries {
		if e.record.MemberID != memberID {
			continue
		}
		if latest == nil || e.seq > latest.seq {
			latest = e
		}
	}
	if latest == nil {
		return nil, sentinel.ErrNotFound
	}
	return models.FromRecord(latest.record)
}

// FindAll lists applications newest first, optionally filtered by status.
func (s *InMemory) FindAll(_ context.Context, status *models.Status) ([]*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*entry, 0, len(s.entries))
	for _, e := range s.entries {
		if status != nil && e.record.Status != *status {
			continue
		}
		matched = append(matched, e)
	}
	slices.SortFunc(matched, func(a, b *entry) int {
		return int(b.seq - a.seq)
	})

	out := make([]*models.Application, 0, len(matched))
	for _, e := range matched {
		app, err := models.FromRecord(e.record)
		if err != nil {
			return nil, err
		}
		out = append(out, app)
	}
	return out, nil
}

func isActive(s models.Status) bool {
	return s == models.StatusPending || s == models.StatusApproved
}
