package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"memberpanel/internal/account/models"
	id "memberpanel/pkg/domain"
	"memberpanel/pkg/platform/sentinel"
)

type AccountStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestAccountStoreSuite(t *testing.T) {
	suite.Run(t, new(AccountStoreSuite))
}

func (s *AccountStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func (s *AccountStoreSuite) newAccount(address string, appID *id.ApplicationID) *models.Account {
	return &models.Account{
		ID:                  id.UserID(uuid.New()),
		MemberID:            id.MemberID(uuid.New()),
		SourceApplicationID: appID,
		Email:               address,
		PasswordHash:        "hash",
		RoleIDs:             []id.RoleID{id.RoleID(uuid.New())},
		CreatedAt:           time.Now(),
	}
}

func (s *AccountStoreSuite) TestCreateAndFind() {
	appID := id.ApplicationID(uuid.New())
	account := s.newAccount("ayse@example.org", &appID)
	s.Require().NoError(s.store.Create(s.ctx, account))

	s.Run("by id", func() {
		found, err := s.store.FindByID(s.ctx, account.ID)
		s.Require().NoError(err)
		s.Equal(account.MemberID, found.MemberID)
	})

	s.Run("by application", func() {
		found, err := s.store.FindByApplicationID(s.ctx, appID)
		s.Require().NoError(err)
		s.Equal(account.ID, found.ID)
	})

	s.Run("email and member existence", func() {
		exists, err := s.store.ExistsByEmail(s.ctx, " AYSE@example.org ")
		s.Require().NoError(err)
		s.True(exists)

		exists, err = s.store.ExistsByMemberID(s.ctx, account.MemberID)
		s.Require().NoError(err)
		s.True(exists)
	})

	s.Run("unknown application", func() {
		_, err := s.store.FindByApplicationID(s.ctx, id.ApplicationID(uuid.New()))
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *AccountStoreSuite) TestUniqueness() {
	appID := id.ApplicationID(uuid.New())
	first := s.newAccount("mehmet@example.org", &appID)
	s.Require().NoError(s.store.Create(s.ctx, first))

	s.Run("email is case-insensitive", func() {
		err := s.store.Create(s.ctx, s.newAccount("Mehmet@Example.org", nil))
		s.ErrorIs(err, ErrEmailTaken)
		s.ErrorIs(err, sentinel.ErrAlreadyUsed)
	})

	s.Run("one account per member", func() {
		dup := s.newAccount("other@example.org", nil)
		dup.MemberID = first.MemberID
		s.ErrorIs(s.store.Create(s.ctx, dup), ErrMemberLinked)
	})

	s.Run("one account per application", func() {
		s.ErrorIs(s.store.Create(s.ctx, s.newAccount("third@example.org", &appID)), ErrApplicationLinked)
	})
}
