// Package store reads the member, role and province/district directory.
package store

import (
	"context"
	"sync"

	"memberpanel/internal/directory/models"
	id "memberpanel/pkg/domain"
	"memberpanel/pkg/platform/sentinel"
)

// InMemory is a directory for tests and local development. Put* methods seed it.
type InMemory struct {
	mu        sync.RWMutex
	members   map[id.MemberID]*models.Member
	roles     map[id.RoleID]*models.Role
	provinces map[id.ProvinceID]*models.Province
	districts map[id.DistrictID]*models.District
}

func NewInMemory() *InMemory {
	return &InMemory{
		members:   make(map[id.MemberID]*models.Member),
		roles:     make(map[id.RoleID]*models.Role),
		provinces: make(map[id.ProvinceID]*models.Province),
		districts: make(map[id.DistrictID]*models.District),
	}
}

func (s *InMemory) PutMember(m *models.Member) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *m
	s.members[m.ID] = &copied
}

func (s *InMemory) PutRole(r *models.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *r
	s.roles[r.ID] = &copied
}

func (s *InMemory) PutProvince(p *models.Province) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *p
	s.provinces[p.ID] = &copied
}

func (s *InMemory) PutDistrict(d *models.District) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *d
	s.districts[d.ID] = &copied
}

func (s *InMemory) FindMember(_ context.Context, memberID id.MemberID) (*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.members[memberID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *m
	return &copied, nil
}

func (s *InMemory) FindRole(_ context.Context, roleID id.RoleID) (*models.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.roles[roleID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *r
	return &copied, nil
}

func (s *InMemory) FindDistrict(_ context.Context, districtID id.DistrictID) (*models.District, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.districts[districtID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *d
	return &copied, nil
}

func (s *InMemory) UpsertMember(_ context.Context, m *models.Member) error {
	s.PutMember(m)
	return nil
}

func (s *InMemory) UpsertRole(_ context.Context, r *models.Role) error {
	s.PutRole(r)
	return nil
}

func (s *InMemory) UpsertProvince(_ context.Context, p *models.Province) error {
	s.PutProvince(p)
	return nil
}

func (s *InMemory) UpsertDistrict(_ context.Context, d *models.District) error {
	s.PutDistrict(d)
	return nil
}
