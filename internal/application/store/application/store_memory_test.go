package application

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"memberpanel/internal/application/models"
	id "memberpanel/pkg/domain"
	"memberpanel/pkg/platform/sentinel"
)

type InMemorySuite struct {
	suite.Suite
	ctx   context.Context
	store *InMemory
	now   time.Time
}

func TestInMemorySuite(t *testing.T) {
	suite.Run(t, new(InMemorySuite))
}

func (s *InMemorySuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewInMemory()
	s.now = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
}

func (s *InMemorySuite) create(member id.MemberID) *models.Application {
	app, err := models.NewApplication(member, id.RoleID(uuid.New()), nil, s.now)
	s.Require().NoError(err)
	created, err := s.store.Create(s.ctx, app)
	s.Require().NoError(err)
	return created
}

func (s *InMemorySuite) TestCreateAssignsID() {
	created := s.create(id.MemberID(uuid.New()))
	s.False(created.ID().IsNil())

	found, err := s.store.FindByID(s.ctx, created.ID())
	s.Require().NoError(err)
	s.Equal(created.Record(), found.Record())
}

func (s *InMemorySuite) TestOneActiveApplicationPerMember() {
	member := id.MemberID(uuid.New())
	first := s.create(member)

	dup, err := models.NewApplication(member, id.RoleID(uuid.New()), nil, s.now)
	s.Require().NoError(err)
	_, err = s.store.Create(s.ctx, dup)
	s.ErrorIs(err, sentinel.ErrAlreadyUsed)

	s.Require().NoError(first.Reject(id.UserID(uuid.New()), nil, s.now))
	s.Require().NoError(s.store.Save(s.ctx, first))

	again := s.create(member)
	latest, err := s.store.FindByMemberID(s.ctx, member)
	s.Require().NoError(err)
	s.Equal(again.ID(), latest.ID())
}

func (s *InMemorySuite) TestSaveRequiresPendingRow() {
	app := s.create(id.MemberID(uuid.New()))
	stale, err := s.store.FindByID(s.ctx, app.ID())
	s.Require().NoError(err)

	s.Require().NoError(app.Approve(id.UserID(uuid.New()), nil, id.UserID(uuid.New()), s.now))
	s.Require().NoError(s.store.Save(s.ctx, app))

	s.Require().NoError(stale.Reject(id.UserID(uuid.New()), nil, s.now))
	s.ErrorIs(s.store.Save(s.ctx, stale), sentinel.ErrInvalidState)

	stored, err := s.store.FindByID(s.ctx, app.ID())
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, stored.Status())
}

func (s *InMemorySuite) TestNotFound() {
	_, err := s.store.FindByID(s.ctx, id.ApplicationID(uuid.New()))
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.FindByMemberID(s.ctx, id.MemberID(uuid.New()))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemorySuite) TestFindAllNewestFirstWithFilter() {
	a := s.create(id.MemberID(uuid.New()))
	b := s.create(id.MemberID(uuid.New()))
	c := s.create(id.MemberID(uuid.New()))
	s.Require().NoError(b.Reject(id.UserID(uuid.New()), nil, s.now))
	s.Require().NoError(s.store.Save(s.ctx, b))

	all, err := s.store.FindAll(s.ctx, nil)
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal([]id.ApplicationID{c.ID(), b.ID(), a.ID()}, []id.ApplicationID{all[0].ID(), all[1].ID(), all[2].ID()})

	pending := models.StatusPending
	filtered, err := s.store.FindAll(s.ctx, &pending)
	s.Require().NoError(err)
	s.Require().Len(filtered, 2)
	s.Equal(c.ID(), filtered[0].ID())
	s.Equal(a.ID(), filtered[1].ID())
}
