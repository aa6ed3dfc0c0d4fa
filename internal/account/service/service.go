// Package service provisions panel accounts for members.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"memberpanel/internal/account/models"
	"memberpanel/internal/account/secrets"
	accountstore "memberpanel/internal/account/store"
	id "memberpanel/pkg/domain"
	dErrors "memberpanel/pkg/domain-errors"
	"memberpanel/pkg/email"
	"memberpanel/pkg/platform/sentinel"
	"memberpanel/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, account *models.Account) error
	FindByApplicationID(ctx context.Context, applicationID id.ApplicationID) (*models.Account, error)
	ExistsByEmail(ctx context.Context, address string) (bool, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
}

// CreateAccountRequest carries everything needed to provision one panel account.
type CreateAccountRequest struct {
	MemberID id.MemberID
	// ApplicationID makes provisioning idempotent: a second request for the same
	// application returns the account already created for it.
	ApplicationID *id.ApplicationID
	Email         string
	Password      string
	FirstName     string
	LastName      string
	RoleIDs       []id.RoleID
	Scopes        []id.GeoScope
}

func (r *CreateAccountRequest) Normalize() {
	r.Email = email.Normalize(r.Email)
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
}

func (r *CreateAccountRequest) Validate() error {
	if r.MemberID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "member id is required")
	}
	if r.Email == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if !email.IsValid(r.Email) {
		return dErrors.New(dErrors.CodeValidation, "email must be a valid address")
	}
	if len(r.Password) < secrets.MinPasswordLength {
		return dErrors.New(dErrors.CodeValidation, "password must be at least 8 characters")
	}
	if len(r.RoleIDs) == 0 {
		return dErrors.New(dErrors.CodeValidation, "at least one role is required")
	}
	return nil
}

// Service creates panel accounts.
type Service struct {
	accounts Store
	hasher   PasswordHasher
	logger   *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithHasher(h PasswordHasher) Option {
	return func(s *Service) {
		s.hasher = h
	}
}

func New(accounts Store, opts ...Option) *Service {
	s := &Service{
		accounts: accounts,
		hasher:   secrets.NewHasher(0),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EmailExists reports whether an account already uses address (case-insensitive).
func (s *Service) EmailExists(ctx context.Context, address string) (bool, error) {
	exists, err := s.accounts.ExistsByEmail(ctx, email.Normalize(address))
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check email")
	}
	return exists, nil
}

// FindByApplicationID returns the account provisioned for an application.
func (s *Service) FindByApplicationID(ctx context.Context, applicationID id.ApplicationID) (*models.Account, error) {
	account, err := s.accounts.FindByApplicationID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "account not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up account")
	}
	return account, nil
}

// Create provisions an account linked to req.MemberID.
//
// When req.ApplicationID is set and an account already exists for that application,
// the existing account is returned unchanged, so a retried approval never creates a
// second account.
func (s *Service) Create(ctx context.Context, req *CreateAccountRequest) (*models.Account, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if req.ApplicationID != nil {
		existing, err := s.accounts.FindByApplicationID(ctx, *req.ApplicationID)
		switch {
		case err == nil:
			if existing.MemberID != req.MemberID {
				return nil, dErrors.New(dErrors.CodeConflict, "application is linked to another member's account")
			}
			if existing.Email != req.Email {
				return nil, dErrors.New(dErrors.CodeConflict, "application already has an account under another email")
			}
			s.logger.InfoContext(ctx, "account already provisioned for application",
				"application_id", req.ApplicationID.String(),
				"account_id", existing.ID.String(),
			)
			return existing, nil
		case !errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up provisioned account")
		}
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		if _, ok := dErrors.As(err); ok {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	account, err := models.NewAccount(
		id.UserID(uuid.New()),
		req.MemberID,
		req.ApplicationID,
		req.Email,
		hash,
		req.FirstName,
		req.LastName,
		req.RoleIDs,
		req.Scopes,
		requestcontext.Now(ctx),
	)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, dErrors.Description(err))
		}
		return nil, err
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		switch {
		case errors.Is(err, accountstore.ErrEmailTaken):
			return nil, dErrors.Wrap(err, dErrors.CodeConflict, "email is already in use")
		case errors.Is(err, accountstore.ErrMemberLinked):
			return nil, dErrors.Wrap(err, dErrors.CodeConflict, "member is already a panel user")
		case errors.Is(err, accountstore.ErrApplicationLinked):
			return nil, dErrors.Wrap(err, dErrors.CodeConflict, "application already has an account")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create account")
	}

	s.logger.InfoContext(ctx, "panel account provisioned",
		"account_id", account.ID.String(),
		"member_id", account.MemberID.String(),
	)
	return account, nil
}
