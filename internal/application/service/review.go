package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"memberpanel/internal/application/models"
	"memberpanel/internal/application/scope"
	"memberpanel/internal/application/types"
	id "memberpanel/pkg/domain"
	dErrors "memberpanel/pkg/domain-errors"
	audit "memberpanel/pkg/platform/audit"
	"memberpanel/pkg/requestcontext"
)

const (
	decisionApprove = "approve"
	decisionReject  = "reject"
)

// ApproveApplication provisions the member's panel account and moves the application
// to APPROVED.
//
// The effective scopes are the reviewer's list when non-empty, otherwise the scopes
// recorded on the application. Provisioning, scope replacement, the audit record and
// the state change run as one unit of work under the member's lock, with the state
// change written last. The application is re-read inside it, so two concurrent
// approvals cannot both provision. Provisioning is keyed by application id, so a retry
// after a partial failure reuses the account already created.
func (s *Service) ApproveApplication(ctx context.Context, req *models.ApproveApplicationRequest) (_ *models.Application, err error) {
	start := time.Now()
	ctx, span := s.startSpan(ctx, "application.approve",
		attribute.String("application_id", req.ApplicationID.String()),
	)
	defer func() {
		endSpan(span, err)
		s.observeReview(decisionApprove, start, err)
	}()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	app, err := s.loadApplication(ctx, req.ApplicationID)
	if err != nil {
		return nil, err
	}
	if err := app.CanReview(); err != nil {
		return nil, err
	}

	if err := s.ensureEmailAvailable(ctx, app.ID(), req.Email); err != nil {
		return nil, err
	}

	member, role, err := s.loadMemberAndRole(ctx, app.MemberID(), app.RequestedRoleID())
	if err != nil {
		return nil, err
	}

	replacement := models.DedupeScopes(req.Scopes)
	effective, err := s.effectiveScopes(ctx, app.ID(), replacement)
	if err != nil {
		return nil, err
	}
	if err := scope.Validate(ctx, role.HasScopeRestriction, effective, s.districts); err != nil {
		return nil, err
	}

	var (
		approved      *models.Application
		createdUserID id.UserID
	)
	err = s.tx.RunInTx(ctx, memberLockKey(app.MemberID()), func(ctx context.Context) error {
		current, err := s.loadApplication(ctx, app.ID())
		if err != nil {
			return err
		}
		if err := current.CanReview(); err != nil {
			return err
		}

		account, err := s.accounts.Provision(ctx, types.ProvisionRequest{
			ApplicationID: current.ID(),
			MemberID:      member.ID,
			Email:         req.Email,
			Password:      req.Password,
			FirstName:     member.FirstName,
			LastName:      member.LastName,
			RoleIDs:       []id.RoleID{role.ID},
			Scopes:        effective,
		})
		if err != nil {
			return s.provisioningError(ctx, current.ID(), err)
		}

		if len(replacement) > 0 {
			if err := s.supersedeScopes(ctx, current.ID(), replacement); err != nil {
				return err
			}
		}

		if err := current.Approve(req.ReviewedBy, req.ReviewNote, account.ID, requestcontext.Now(ctx)); err != nil {
			return fromModelError(err)
		}
		if err := s.emitAudit(ctx, audit.EventApplicationApproved, current, req.ReviewedBy, string(models.StatusApproved)); err != nil {
			return err
		}
		if err := s.emitAudit(ctx, audit.EventPanelUserCreated, current, req.ReviewedBy, ""); err != nil {
			return err
		}
		if err := s.saveReview(ctx, current); err != nil {
			return err
		}
		approved = current
		createdUserID = account.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "panel user application approved",
		"application_id", approved.ID().String(),
		"member_id", approved.MemberID().String(),
		"created_user_id", createdUserID.String(),
		"reviewed_by", req.ReviewedBy.String(),
		"scopes_replaced", len(replacement) > 0,
	)
	return approved, nil
}

// RejectApplication moves a PENDING application to REJECTED. Recorded scopes are kept.
func (s *Service) RejectApplication(ctx context.Context, req *models.RejectApplicationRequest) (_ *models.Application, err error) {
	start := time.Now()
	ctx, span := s.startSpan(ctx, "application.reject",
		attribute.String("application_id", req.ApplicationID.String()),
	)
	defer func() {
		endSpan(span, err)
		s.observeReview(decisionReject, start, err)
	}()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	app, err := s.loadApplication(ctx, req.ApplicationID)
	if err != nil {
		return nil, err
	}
	if err := app.CanReview(); err != nil {
		return nil, err
	}

	var rejected *models.Application
	err = s.tx.RunInTx(ctx, memberLockKey(app.MemberID()), func(ctx context.Context) error {
		current, err := s.loadApplication(ctx, app.ID())
		if err != nil {
			return err
		}
		if err := current.Reject(req.ReviewedBy, req.ReviewNote, requestcontext.Now(ctx)); err != nil {
			return fromModelError(err)
		}
		if err := s.emitAudit(ctx, audit.EventApplicationRejected, current, req.ReviewedBy, string(models.StatusRejected)); err != nil {
			return err
		}
		if err := s.saveReview(ctx, current); err != nil {
			return err
		}
		rejected = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "panel user application rejected",
		"application_id", rejected.ID().String(),
		"member_id", rejected.MemberID().String(),
		"reviewed_by", req.ReviewedBy.String(),
	)
	return rejected, nil
}

// ensureEmailAvailable fails with a conflict when another account uses email. The account
// an earlier failed attempt provisioned for this application does not count, but only
// when it holds this same email; Provision hands it back.
func (s *Service) ensureEmailAvailable(ctx context.Context, applicationID id.ApplicationID, email string) error {
	taken, err := s.accounts.EmailExists(ctx, email)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check email")
	}
	if !taken {
		return nil
	}
	provisioned, err := s.accounts.FindProvisioned(ctx, applicationID)
	switch {
	case err == nil && provisioned.Email == email:
		return nil
	case err == nil, isNotFound(err):
		return dErrors.New(dErrors.CodeConflict, "email is already in use")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up provisioned account")
}

// effectiveScopes returns replacement when non-empty, otherwise the application's
// active scopes.
func (s *Service) effectiveScopes(ctx context.Context, applicationID id.ApplicationID, replacement []id.GeoScope) ([]id.GeoScope, error) {
	if len(replacement) > 0 {
		return replacement, nil
	}
	stored, err := s.scopes.ListActiveForApplication(ctx, applicationID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load application scopes")
	}
	return models.GeoScopes(stored), nil
}

// supersedeScopes soft-deletes the active set and records scopes in its place.
func (s *Service) supersedeScopes(ctx context.Context, applicationID id.ApplicationID, scopes []id.GeoScope) error {
	if err := s.scopes.SoftDeleteAllForApplication(ctx, applicationID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to retire application scopes")
	}
	if _, err := s.scopes.CreateMany(ctx, applicationID, scopes); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save application scopes")
	}
	return nil
}

// provisioningError keeps conflicts (email or member already linked) visible to the
// caller and reports every other failure as a provisioning failure.
func (s *Service) provisioningError(ctx context.Context, applicationID id.ApplicationID, err error) error {
	if dErrors.HasCode(err, dErrors.CodeConflict) {
		return err
	}
	s.logger.ErrorContext(ctx, "panel account provisioning failed",
		"application_id", applicationID.String(),
		"error", err,
	)
	if s.metrics != nil {
		s.metrics.IncrementProvisioningFailure()
	}
	return dErrors.Wrap(err, dErrors.CodeProvisioningFailed, "failed to provision panel account")
}

func (s *Service) observeReview(decision string, start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	switch decision {
	case decisionApprove:
		s.metrics.ObserveApprove(start)
	case decisionReject:
		s.metrics.ObserveReject(start)
	}
	s.metrics.IncrementReviewed(decision, outcomeOf(err))
}

