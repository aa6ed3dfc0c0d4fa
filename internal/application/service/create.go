package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"memberpanel/internal/application/metrics"
	"memberpanel/internal/application/models"
	"memberpanel/internal/application/scope"
	id "memberpanel/pkg/domain"
	dErrors "memberpanel/pkg/domain-errors"
	audit "memberpanel/pkg/platform/audit"
	"memberpanel/pkg/platform/sentinel"
	"memberpanel/pkg/requestcontext"
)

// CreateApplication records a PENDING application for a member, together with the
// requested scopes.
//
// The active-application check and the insert run under the member's lock, and the
// store rejects a second active row, so a member never holds two PENDING or APPROVED
// applications.
func (s *Service) CreateApplication(ctx context.Context, req *models.CreateApplicationRequest) (_ *models.Application, err error) {
	start := time.Now()
	ctx, span := s.startSpan(ctx, "application.create",
		attribute.String("member_id", req.MemberID.String()),
		attribute.String("role_id", req.RequestedRoleID.String()),
	)
	defer func() {
		endSpan(span, err)
		s.observeCreate(start, err)
	}()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var created *models.Application
	err = s.tx.RunInTx(ctx, memberLockKey(req.MemberID), func(ctx context.Context) error {
		if err := s.ensureNoActiveApplication(ctx, req.MemberID); err != nil {
			return err
		}
		member, err := s.loadMember(ctx, req.MemberID)
		if err != nil {
			return err
		}
		if member.HasLinkedAccount {
			return dErrors.New(dErrors.CodeConflict, "member is already a panel user")
		}
		role, err := s.loadRole(ctx, req.RequestedRoleID)
		if err != nil {
			return err
		}
		if err := scope.Validate(ctx, role.HasScopeRestriction, req.Scopes, s.districts); err != nil {
			return err
		}

		app, err := models.NewApplication(req.MemberID, req.RequestedRoleID, req.RequestNote, requestcontext.Now(ctx))
		if err != nil {
			return fromModelError(err)
		}
		created, err = s.applications.Create(ctx, app)
		if err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return dErrors.New(dErrors.CodeConflict, "an application already exists for this member")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create application")
		}

		if scopes := models.DedupeScopes(req.Scopes); len(scopes) > 0 {
			if _, err := s.scopes.CreateMany(ctx, created.ID(), scopes); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save application scopes")
			}
		}
		return s.emitAudit(ctx, audit.EventApplicationCreated, created, req.RequestedBy, "")
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "panel user application created",
		"application_id", created.ID().String(),
		"member_id", created.MemberID().String(),
		"role_id", created.RequestedRoleID().String(),
		"scopes", len(req.Scopes),
	)
	return created, nil
}

// ensureNoActiveApplication fails with a conflict when the member's latest application
// is PENDING or APPROVED. A REJECTED application does not block a new one.
func (s *Service) ensureNoActiveApplication(ctx context.Context, memberID id.MemberID) error {
	existing, err := s.applications.FindByMemberID(ctx, memberID)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return nil
	case err != nil:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check existing applications")
	case existing.IsActive():
		return dErrors.New(dErrors.CodeConflict, "an application already exists for this member")
	}
	return nil
}

func (s *Service) observeCreate(start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveCreate(start)
	s.metrics.IncrementCreated(outcomeOf(err))
}

// outcomeOf separates caller-side refusals from failures.
func outcomeOf(err error) string {
	if err == nil {
		return metrics.OutcomeSuccess
	}
	switch dErrors.CodeOf(err) {
	case dErrors.CodeInternal, dErrors.CodeTimeout, dErrors.CodeProvisioningFailed:
		return metrics.OutcomeError
	}
	return metrics.OutcomeRejected
}
