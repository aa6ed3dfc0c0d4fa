package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	accountservice "memberpanel/internal/account/service"
	accountstore "memberpanel/internal/account/store"
	"memberpanel/internal/application/adapters"
	"memberpanel/internal/application/models"
	appstore "memberpanel/internal/application/store/application"
	scopestore "memberpanel/internal/application/store/scope"
	dirmodels "memberpanel/internal/directory/models"
	dirstore "memberpanel/internal/directory/store"
	id "memberpanel/pkg/domain"
	dErrors "memberpanel/pkg/domain-errors"
	audit "memberpanel/pkg/platform/audit"
	"memberpanel/pkg/platform/audit/publishers/compliance"
	auditmemory "memberpanel/pkg/platform/audit/store/memory"
	"memberpanel/pkg/testutil"
)

type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "plain:" + password, nil }

// failingOnce fails the first event with the given action, then delegates.
type failingOnce struct {
	next   AuditPublisher
	action audit.AuditEvent
	failed atomic.Bool
}

func (f *failingOnce) Emit(ctx context.Context, event audit.Event) error {
	if event.Action == string(f.action) && f.failed.CompareAndSwap(false, true) {
		return errors.New("outbox write failed")
	}
	return f.next.Emit(ctx, event)
}

type world struct {
	service      *Service
	applications *appstore.InMemory
	scopes       *scopestore.InMemory
	accounts     *accountstore.InMemory
	auditLog     *auditmemory.InMemoryStore
	demo         *dirstore.Demo
	directory    *dirstore.InMemory
	reviewer     id.UserID
}

func newWorld(t *testing.T, wrapAudit func(AuditPublisher) AuditPublisher) *world {
	t.Helper()
	ctx := context.Background()
	w := &world{
		applications: appstore.NewInMemory(),
		scopes:       scopestore.NewInMemory(),
		accounts:     accountstore.NewInMemory(),
		auditLog:     auditmemory.NewInMemoryStore(),
		directory:    dirstore.NewInMemory(),
		reviewer:     id.UserID(uuid.New()),
	}
	demo, err := dirstore.SeedDemo(ctx, w.directory)
	require.NoError(t, err)
	w.demo = demo

	var publisher AuditPublisher = compliance.New(w.auditLog)
	if wrapAudit != nil {
		publisher = wrapAudit(publisher)
	}
	accounts := accountservice.New(w.accounts, accountservice.WithHasher(plainHasher{}))
	w.service = New(
		w.applications,
		w.scopes,
		adapters.NewMemberLookup(w.directory, w.accounts),
		w.directory,
		w.directory,
		adapters.NewAccountProvisioner(accounts),
		WithAuditPublisher(publisher),
	)
	return w
}

func (w *world) newMember(t *testing.T) id.MemberID {
	t.Helper()
	m := &dirmodels.Member{ID: id.MemberID(uuid.New()), FirstName: "Elif", LastName: "Sahin"}
	w.directory.PutMember(m)
	return m.ID
}

func (w *world) create(t *testing.T, member id.MemberID, role id.RoleID, scopes ...id.GeoScope) *models.Application {
	t.Helper()
	app, err := w.service.CreateApplication(context.Background(), &models.CreateApplicationRequest{
		MemberID: member, RequestedRoleID: role, Scopes: scopes, RequestedBy: w.reviewer,
	})
	require.NoError(t, err)
	return app
}

func (w *world) approve(app *models.Application, email string, scopes ...id.GeoScope) (*models.Application, error) {
	return w.service.ApproveApplication(context.Background(), &models.ApproveApplicationRequest{
		ApplicationID: app.ID(), Email: email, Password: "secret123", Scopes: scopes, ReviewedBy: w.reviewer,
	})
}

func (w *world) activeScopes(t *testing.T, app *models.Application) []id.GeoScope {
	t.Helper()
	rows, err := w.service.ListScopes(context.Background(), app.ID())
	require.NoError(t, err)
	return models.GeoScopes(rows)
}

func TestScenarios(t *testing.T) {
	t.Run("unrestricted role without scopes", func(t *testing.T) {
		w := newWorld(t, nil)
		app := w.create(t, w.newMember(t), w.demo.HeadOfficeRole)

		assert.Equal(t, models.StatusPending, app.Status())
		assert.Empty(t, w.activeScopes(t, app))
	})

	t.Run("restricted role with empty scopes", func(t *testing.T) {
		w := newWorld(t, nil)
		_, err := w.service.CreateApplication(context.Background(), &models.CreateApplicationRequest{
			MemberID: w.newMember(t), RequestedRoleID: w.demo.ProvincialRepRole, Scopes: []id.GeoScope{},
		})
		require.Error(t, err)
		assert.Equal(t, dErrors.CodeValidation, dErrors.CodeOf(err))
		assert.Equal(t, "scope selection is mandatory for this role", dErrors.Description(err))
	})

	t.Run("second application before review conflicts", func(t *testing.T) {
		w := newWorld(t, nil)
		member := w.newMember(t)
		w.create(t, member, w.demo.HeadOfficeRole)

		_, err := w.service.CreateApplication(context.Background(), &models.CreateApplicationRequest{
			MemberID: member, RequestedRoleID: w.demo.HeadOfficeRole,
		})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	t.Run("approval falls back to stored scopes", func(t *testing.T) {
		w := newWorld(t, nil)
		stored := id.GeoScope{ProvinceID: &w.demo.Ankara}
		app := w.create(t, w.newMember(t), w.demo.ProvincialRepRole, stored)

		approved, err := w.approve(app, "x@y.z")
		require.NoError(t, err)
		assert.Equal(t, models.StatusApproved, approved.Status())
		require.NotNil(t, approved.CreatedUserID())

		account, err := w.accounts.FindByID(context.Background(), *approved.CreatedUserID())
		require.NoError(t, err)
		assert.Equal(t, []id.GeoScope{stored}, account.Scopes)
		assert.Equal(t, []id.GeoScope{stored}, w.activeScopes(t, approved))
	})

	t.Run("second approval fails with invalid state", func(t *testing.T) {
		w := newWorld(t, nil)
		app := w.create(t, w.newMember(t), w.demo.HeadOfficeRole)
		_, err := w.approve(app, "first@example.org")
		require.NoError(t, err)

		_, err = w.approve(app, "second@example.org")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	t.Run("taken email conflicts and leaves the application pending", func(t *testing.T) {
		w := newWorld(t, nil)
		first := w.create(t, w.newMember(t), w.demo.HeadOfficeRole)
		_, err := w.approve(first, "shared@example.org")
		require.NoError(t, err)

		second := w.create(t, w.newMember(t), w.demo.HeadOfficeRole)
		_, err = w.approve(second, "Shared@Example.org")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))

		reloaded, err := w.service.FindByID(context.Background(), second.ID())
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, reloaded.Status())
	})
}

func TestScopePrecedenceOnApproval(t *testing.T) {
	w := newWorld(t, nil)
	app := w.create(t, w.newMember(t), w.demo.ProvincialRepRole, id.GeoScope{ProvinceID: &w.demo.Ankara})
	replacement := []id.GeoScope{
		{ProvinceID: &w.demo.Izmir, DistrictID: &w.demo.Konak},
		{ProvinceID: &w.demo.Izmir, DistrictID: &w.demo.Konak},
		{ProvinceID: &w.demo.Ankara, DistrictID: &w.demo.Cankaya},
	}

	_, err := w.approve(app, "rep@example.org", replacement...)
	require.NoError(t, err)

	active := w.activeScopes(t, app)
	require.Len(t, active, 2)
	assert.Equal(t, id.GeoScope{ProvinceID: &w.demo.Izmir, DistrictID: &w.demo.Konak}.Key(), active[0].Key())
	assert.Equal(t, id.GeoScope{ProvinceID: &w.demo.Ankara, DistrictID: &w.demo.Cankaya}.Key(), active[1].Key())

	history, err := w.scopes.ListHistory(context.Background(), app.ID())
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.NotNil(t, history[0].DeletedAt, "original scope is soft-deleted, not removed")
}

func TestApproveRejectsMismatchedReviewerScopes(t *testing.T) {
	w := newWorld(t, nil)
	app := w.create(t, w.newMember(t), w.demo.ProvincialRepRole, id.GeoScope{ProvinceID: &w.demo.Ankara})

	_, err := w.approve(app, "rep@example.org", id.GeoScope{ProvinceID: &w.demo.Ankara, DistrictID: &w.demo.Konak})
	require.Error(t, err)
	assert.Equal(t, "scope entry 1: district does not belong to the selected province", dErrors.Description(err))

	reloaded, err := w.service.FindByID(context.Background(), app.ID())
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, reloaded.Status())
}

func TestCreateDedupesScopes(t *testing.T) {
	w := newWorld(t, nil)
	ankara := id.GeoScope{ProvinceID: &w.demo.Ankara}
	app := w.create(t, w.newMember(t), w.demo.ProvincialRepRole, ankara, ankara, ankara)

	assert.Len(t, w.activeScopes(t, app), 1)
}

func TestRejectedMemberMayReapply(t *testing.T) {
	testutil.Given(t, "a member whose application was rejected", func(t *testing.T) {
		w := newWorld(t, nil)
		member := w.newMember(t)
		app := w.create(t, member, w.demo.HeadOfficeRole)
		_, err := w.service.RejectApplication(context.Background(), &models.RejectApplicationRequest{
			ApplicationID: app.ID(), ReviewedBy: w.reviewer,
		})
		require.NoError(t, err)

		testutil.When(t, "they apply again", func(t *testing.T) {
			again := w.create(t, member, w.demo.HeadOfficeRole)

			testutil.Then(t, "a new pending application is the only pending one", func(t *testing.T) {
				assert.NotEqual(t, app.ID(), again.ID())

				pending := models.StatusPending
				list, err := w.service.FindAll(context.Background(), &pending)
				require.NoError(t, err)
				require.Len(t, list, 1)
				assert.Equal(t, again.ID(), list[0].ID())
			})
		})
	})
}

func TestApprovedMemberCannotReapply(t *testing.T) {
	w := newWorld(t, nil)
	member := w.newMember(t)
	app := w.create(t, member, w.demo.HeadOfficeRole)
	_, err := w.approve(app, "panel@example.org")
	require.NoError(t, err)

	_, err = w.service.CreateApplication(context.Background(), &models.CreateApplicationRequest{
		MemberID: member, RequestedRoleID: w.demo.HeadOfficeRole,
	})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestAuditTrail(t *testing.T) {
	w := newWorld(t, nil)
	app := w.create(t, w.newMember(t), w.demo.HeadOfficeRole)
	approved, err := w.approve(app, "audited@example.org")
	require.NoError(t, err)

	events, err := w.auditLog.ListBySubject(context.Background(), app.ID().String())
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, string(audit.EventApplicationCreated), events[0].Action)
	assert.Equal(t, audit.CategoryOperations, events[0].Category)
	assert.Equal(t, string(audit.EventApplicationApproved), events[1].Action)
	assert.Equal(t, audit.CategoryCompliance, events[1].Category)
	assert.Equal(t, *approved.CreatedUserID(), events[2].UserID)
	assert.Equal(t, w.reviewer.String(), events[2].ActorID)
}

// A failure after provisioning leaves the account behind; the retry reuses it instead
// of tripping over its own email.
func TestApprovalRetryReusesProvisionedAccount(t *testing.T) {
	w := newWorld(t, func(next AuditPublisher) AuditPublisher {
		return &failingOnce{next: next, action: audit.EventApplicationApproved}
	})
	app := w.create(t, w.newMember(t), w.demo.HeadOfficeRole)

	_, err := w.approve(app, "retry@example.org")
	require.Error(t, err)

	approved, err := w.approve(app, "retry@example.org")
	require.NoError(t, err)

	account, err := w.accounts.FindByApplicationID(context.Background(), app.ID())
	require.NoError(t, err)
	assert.Equal(t, account.ID, *approved.CreatedUserID())
}

func TestApprovalRetryWithAnotherAccountsEmailConflicts(t *testing.T) {
	w := newWorld(t, func(next AuditPublisher) AuditPublisher {
		return &failingOnce{next: next, action: audit.EventApplicationApproved}
	})
	ctx := context.Background()
	app := w.create(t, w.newMember(t), w.demo.HeadOfficeRole)

	_, err := w.approve(app, "first@example.org")
	require.Error(t, err)

	other := w.create(t, w.newMember(t), w.demo.HeadOfficeRole)
	_, err = w.approve(other, "taken@example.org")
	require.NoError(t, err)

	_, err = w.approve(app, "taken@example.org")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))

	reloaded, err := w.service.FindByID(ctx, app.ID())
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, reloaded.Status())
	account, err := w.accounts.FindByApplicationID(ctx, app.ID())
	require.NoError(t, err)
	assert.Equal(t, "first@example.org", account.Email)

	t.Run("an unused email is refused too", func(t *testing.T) {
		_, err := w.approve(app, "fresh@example.org")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	t.Run("the original email completes the approval", func(t *testing.T) {
		approved, err := w.approve(app, "first@example.org")
		require.NoError(t, err)
		assert.Equal(t, account.ID, *approved.CreatedUserID())
	})
}

func TestConcurrentCreateKeepsOneActiveApplication(t *testing.T) {
	w := newWorld(t, nil)
	member := w.newMember(t)

	const attempts = 16
	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
		conflicts atomic.Int32
	)
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := w.service.CreateApplication(context.Background(), &models.CreateApplicationRequest{
				MemberID: member, RequestedRoleID: w.demo.HeadOfficeRole,
			})
			switch {
			case err == nil:
				succeeded.Add(1)
			case dErrors.HasCode(err, dErrors.CodeConflict):
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), succeeded.Load())
	assert.Equal(t, int32(attempts-1), conflicts.Load())
}

func TestConcurrentApprovalsProvisionOnce(t *testing.T) {
	w := newWorld(t, nil)
	app := w.create(t, w.newMember(t), w.demo.HeadOfficeRole)

	const attempts = 8
	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
	)
	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			email := "reviewer" + string(rune('a'+i)) + "@example.org"
			if _, err := w.approve(app, email); err == nil {
				succeeded.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), succeeded.Load())
	_, err := w.accounts.FindByApplicationID(context.Background(), app.ID())
	assert.NoError(t, err)
}

func TestShardedTxHonoursCancellation(t *testing.T) {
	tx := NewShardedTx(time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := tx.RunInTx(ctx, "key", func(context.Context) error {
		called = true
		return nil
	})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
	assert.False(t, called)
}

func TestShardFor(t *testing.T) {
	// FNV-1a offset basis 0x811c9dc5 leaves 0x45 in the low seven bits.
	assert.Equal(t, uint32(0x45), shardFor(""))
	key := memberLockKey(id.MemberID(uuid.New()))
	assert.Equal(t, shardFor(key), shardFor(key))
	assert.Less(t, shardFor(key), uint32(numTxShards))
}
