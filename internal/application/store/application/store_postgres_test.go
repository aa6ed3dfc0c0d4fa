package application

import (
	"context"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memberpanel/internal/application/models"
	id "memberpanel/pkg/domain"
	"memberpanel/pkg/platform/sentinel"
)

var applicationColumns = []string{
	"id", "member_id", "requested_role_id", "request_note", "status", "reviewed_by", "reviewed_at",
	"review_note", "created_user_id", "created_at", "updated_at",
}

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgres(db), mock
}

func pendingApplication(t *testing.T) *models.Application {
	t.Helper()
	note := "regional coordinator"
	app, err := models.NewApplication(id.MemberID(uuid.New()), id.RoleID(uuid.New()), &note, time.Now())
	require.NoError(t, err)
	return app
}

func TestPostgresStore_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("inserts and returns the application with an id", func(t *testing.T) {
		store, mock := newMockStore(t)
		app := pendingApplication(t)

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO panel_user_applications")).
			WithArgs(sqlmock.AnyArg(), uuid.UUID(app.MemberID()), uuid.UUID(app.RequestedRoleID()),
				"regional coordinator", "PENDING", nil, nil, nil, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		created, err := store.Create(ctx, app)
		require.NoError(t, err)
		assert.False(t, created.ID().IsNil())
		assert.Equal(t, app.MemberID(), created.MemberID())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps the active member index to ErrAlreadyUsed", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO panel_user_applications")).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "panel_user_applications_active_member_key"})

		_, err := store.Create(ctx, pendingApplication(t))
		assert.ErrorIs(t, err, sentinel.ErrAlreadyUsed)
	})
}

func TestPostgresStore_Save(t *testing.T) {
	ctx := context.Background()
	appID := id.ApplicationID(uuid.New())
	now := time.Now()
	app, err := models.FromRecord(models.Record{
		ID: appID, MemberID: id.MemberID(uuid.New()), RequestedRoleID: id.RoleID(uuid.New()),
		Status: models.StatusPending, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	require.NoError(t, app.Reject(id.UserID(uuid.New()), nil, now))

	t.Run("updates a pending row", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectExec(regexp.QuoteMeta("UPDATE panel_user_applications")).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, store.Save(ctx, app))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reviewed row is invalid state", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectExec(regexp.QuoteMeta("UPDATE panel_user_applications")).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
			WithArgs(uuid.UUID(appID)).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		assert.ErrorIs(t, store.Save(ctx, app), sentinel.ErrInvalidState)
	})

	t.Run("missing row is not found", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectExec(regexp.QuoteMeta("UPDATE panel_user_applications")).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		assert.ErrorIs(t, store.Save(ctx, app), sentinel.ErrNotFound)
	})
}

func TestPostgresStore_Find(t *testing.T) {
	ctx := context.Background()
	appID := uuid.New()
	memberID := uuid.New()
	reviewer := uuid.New()
	account := uuid.New()
	now := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

	approvedRow := []driver.Value{
		appID.String(), memberID.String(), uuid.New().String(), nil, "APPROVED", reviewer.String(), now,
		"ok", account.String(), now, now,
	}

	t.Run("by id scans nullable review fields", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM panel_user_applications")).
			WithArgs(appID).
			WillReturnRows(sqlmock.NewRows(applicationColumns).AddRow(approvedRow...))

		app, err := store.FindByID(ctx, id.ApplicationID(appID))
		require.NoError(t, err)
		assert.Equal(t, models.StatusApproved, app.Status())
		assert.Nil(t, app.RequestNote())
		assert.Equal(t, id.UserID(reviewer), *app.ReviewedBy())
		assert.Equal(t, id.UserID(account), *app.CreatedUserID())
		assert.Equal(t, "ok", *app.ReviewNote())
	})

	t.Run("by id not found", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM panel_user_applications")).
			WillReturnRows(sqlmock.NewRows(applicationColumns))

		_, err := store.FindByID(ctx, id.ApplicationID(appID))
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("latest by member", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(regexp.QuoteMeta("WHERE member_id = $1 ORDER BY created_at DESC LIMIT 1")).
			WithArgs(memberID).
			WillReturnRows(sqlmock.NewRows(applicationColumns).AddRow(approvedRow...))

		app, err := store.FindByMemberID(ctx, id.MemberID(memberID))
		require.NoError(t, err)
		assert.Equal(t, id.ApplicationID(appID), app.ID())
	})

	t.Run("all with status filter", func(t *testing.T) {
		store, mock := newMockStore(t)
		status := models.StatusApproved
		mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC")).
			WithArgs("APPROVED").
			WillReturnRows(sqlmock.NewRows(applicationColumns).AddRow(approvedRow...))

		apps, err := store.FindAll(ctx, &status)
		require.NoError(t, err)
		require.Len(t, apps, 1)
	})

	t.Run("all without filter passes NULL", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC")).
			WithArgs(nil).
			WillReturnRows(sqlmock.NewRows(applicationColumns))

		apps, err := store.FindAll(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, apps)
	})
}
