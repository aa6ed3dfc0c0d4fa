// Package adapters connects the application service ports to the account and directory
// contexts.
package adapters

import (
	"context"

	accountmodels "memberpanel/internal/account/models"
	accountservice "memberpanel/internal/account/service"
	"memberpanel/internal/application/types"
	id "memberpanel/pkg/domain"
)

// AccountService is the subset of the account service used for provisioning.
type AccountService interface {
	EmailExists(ctx context.Context, address string) (bool, error)
	Create(ctx context.Context, req *accountservice.CreateAccountRequest) (*accountmodels.Account, error)
	FindByApplicationID(ctx context.Context, applicationID id.ApplicationID) (*accountmodels.Account, error)
}

// AccountProvisioner provisions panel accounts through the account service. Requests
// are keyed by application id, so repeating one returns the same account.
type AccountProvisioner struct {
	accounts AccountService
}

func NewAccountProvisioner(accounts AccountService) *AccountProvisioner {
	return &AccountProvisioner{accounts: accounts}
}

func (p *AccountProvisioner) EmailExists(ctx context.Context, email string) (bool, error) {
	return p.accounts.EmailExists(ctx, email)
}

func (p *AccountProvisioner) FindProvisioned(ctx context.Context, applicationID id.ApplicationID) (*types.ProvisionedAccount, error) {
	account, err := p.accounts.FindByApplicationID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	return &types.ProvisionedAccount{ID: account.ID, Email: account.Email}, nil
}

func (p *AccountProvisioner) Provision(ctx context.Context, req types.ProvisionRequest) (*types.ProvisionedAccount, error) {
	applicationID := req.ApplicationID
	account, err := p.accounts.Create(ctx, &accountservice.CreateAccountRequest{
		MemberID:      req.MemberID,
		ApplicationID: &applicationID,
		Email:         req.Email,
		Password:      req.Password,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		RoleIDs:       req.RoleIDs,
		Scopes:        req.Scopes,
	})
	if err != nil {
		return nil, err
	}
	return &types.ProvisionedAccount{ID: account.ID, Email: account.Email}, nil
}
