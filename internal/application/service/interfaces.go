package service

import (
	"context"

	"memberpanel/internal/application/models"
	"memberpanel/internal/application/scope"
	"memberpanel/internal/application/types"
	dirmodels "memberpanel/internal/directory/models"
	id "memberpanel/pkg/domain"
	audit "memberpanel/pkg/platform/audit"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks ApplicationStore,ScopeStore,MemberLookup,RoleLookup,AccountProvisioner,StoreTx,AuditPublisher

// ApplicationStore persists applications. Lookups return sentinel.ErrNotFound; Create
// returns sentinel.ErrAlreadyUsed when the member already has an active application.
type ApplicationStore interface {
	Create(ctx context.Context, app *models.Application) (*models.Application, error)
	Save(ctx context.Context, app *models.Application) error
	FindByID(ctx context.Context, applicationID id.ApplicationID) (*models.Application, error)
	FindByMemberID(ctx context.Context, memberID id.MemberID) (*models.Application, error)
	FindAll(ctx context.Context, status *models.Status) ([]*models.Application, error)
}

// ScopeStore persists the scope rows of an application.
type ScopeStore interface {
	CreateMany(ctx context.Context, applicationID id.ApplicationID, scopes []id.GeoScope) ([]*models.ApplicationScope, error)
	SoftDeleteAllForApplication(ctx context.Context, applicationID id.ApplicationID) error
	ListActiveForApplication(ctx context.Context, applicationID id.ApplicationID) ([]*models.ApplicationScope, error)
}

type MemberLookup interface {
	FindMember(ctx context.Context, memberID id.MemberID) (*dirmodels.Member, error)
}

type RoleLookup interface {
	FindRole(ctx context.Context, roleID id.RoleID) (*dirmodels.Role, error)
}

type DistrictLookup = scope.DistrictLookup

// AccountProvisioner creates login accounts. Provision must be idempotent per
// ApplicationID and must return a CodeConflict error when the email is taken.
// FindProvisioned returns a not-found error when the application has no account yet.
type AccountProvisioner interface {
	EmailExists(ctx context.Context, email string) (bool, error)
	FindProvisioned(ctx context.Context, applicationID id.ApplicationID) (*types.ProvisionedAccount, error)
	Provision(ctx context.Context, req types.ProvisionRequest) (*types.ProvisionedAccount, error)
}

// StoreTx runs fn as one unit of work, serialized with every other unit holding the
// same lock key. Stores called with the ctx passed to fn join the unit.
type StoreTx interface {
	RunInTx(ctx context.Context, lockKey string, fn func(ctx context.Context) error) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}
