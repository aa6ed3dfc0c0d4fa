// Package store persists panel accounts.
package store

import (
	"context"
	"sync"

	"memberpanel/internal/account/models"
	id "memberpanel/pkg/domain"
	"memberpanel/pkg/email"
	"memberpanel/pkg/platform/sentinel"
)

// InMemory keeps accounts with the same uniqueness rules as the accounts table.
type InMemory struct {
	mu            sync.RWMutex
	accounts      map[id.UserID]*models.Account
	byEmail       map[string]id.UserID
	byMember      map[id.MemberID]id.UserID
	byApplication map[id.ApplicationID]id.UserID
}

func NewInMemory() *InMemory {
	return &InMemory{
		accounts:      make(map[id.UserID]*models.Account),
		byEmail:       make(map[string]id.UserID),
		byMember:      make(map[id.MemberID]id.UserID),
		byApplication: make(map[id.ApplicationID]id.UserID),
	}
}

func (s *InMemory) Create(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := email.Normalize(account.Email)
	if _, ok := s.byEmail[key]; ok {
		return ErrEmailTaken
	}
	if _, ok := s.byMember[account.MemberID]; ok {
		return ErrMemberLinked
	}
	if account.SourceApplicationID != nil {
		if _, ok := s.byApplication[*account.SourceApplicationID]; ok {
			return ErrApplicationLinked
		}
		s.byApplication[*account.SourceApplicationID] = account.ID
	}

	stored := *account
	s.accounts[account.ID] = &stored
	s.byEmail[key] = account.ID
	s.byMember[account.MemberID] = account.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, accountID id.UserID) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.get(accountID)
}

func (s *InMemory) FindByApplicationID(_ context.Context, applicationID id.ApplicationID) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	accountID, ok := s.byApplication[applicationID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.get(accountID)
}

func (s *InMemory) ExistsByEmail(_ context.Context, address string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byEmail[email.Normalize(address)]
	return ok, nil
}

func (s *InMemory) ExistsByMemberID(_ context.Context, memberID id.MemberID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byMember[memberID]
	return ok, nil
}

func (s *InMemory) get(accountID id.UserID) (*models.Account, error) {
	account, ok := s.accounts[accountID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *account
	return &copied, nil
}
