// Package service implements the panel user application lifecycle: members apply for a
// back-office role, reviewers approve (provisioning a login account) or reject.
package service

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"memberpanel/internal/application/metrics"
	"memberpanel/internal/application/models"
	dirmodels "memberpanel/internal/directory/models"
	id "memberpanel/pkg/domain"
	dErrors "memberpanel/pkg/domain-errors"
	audit "memberpanel/pkg/platform/audit"
	"memberpanel/pkg/platform/sentinel"
	"memberpanel/pkg/requestcontext"
)

const tracerName = "memberpanel/internal/application/service"

// Service orchestrates application use cases over the store and lookup ports.
type Service struct {
	applications ApplicationStore
	scopes       ScopeStore
	members      MemberLookup
	roles        RoleLookup
	districts    DistrictLookup
	accounts     AccountProvisioner

	tx             StoreTx
	auditPublisher AuditPublisher
	logger         *slog.Logger
	metrics        *metrics.Metrics
	tracer         trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithTx replaces the in-memory sharded lock with a store-backed transaction.
func WithTx(tx StoreTx) Option {
	return func(s *Service) {
		s.tx = tx
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// New constructs a Service.
func New(
	applications ApplicationStore,
	scopes ScopeStore,
	members MemberLookup,
	roles RoleLookup,
	districts DistrictLookup,
	accounts AccountProvisioner,
	opts ...Option,
) *Service {
	s := &Service{
		applications: applications,
		scopes:       scopes,
		members:      members,
		roles:        roles,
		districts:    districts,
		accounts:     accounts,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tx == nil {
		s.tx = NewShardedTx(defaultTxTimeout)
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(tracerName)
	}
	return s
}

func memberLockKey(memberID id.MemberID) string {
	return "panel_application:member:" + memberID.String()
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
	}
	span.End()
}

func (s *Service) loadApplication(ctx context.Context, applicationID id.ApplicationID) (*models.Application, error) {
	app, err := s.applications.FindByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "application not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load application")
	}
	return app, nil
}

func (s *Service) loadMember(ctx context.Context, memberID id.MemberID) (*dirmodels.Member, error) {
	member, err := s.members.FindMember(ctx, memberID)
	if err != nil {
		if isNotFound(err) {
			return nil, dErrors.New(dErrors.CodeNotFound, "member not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load member")
	}
	return member, nil
}

func (s *Service) loadRole(ctx context.Context, roleID id.RoleID) (*dirmodels.Role, error) {
	role, err := s.roles.FindRole(ctx, roleID)
	if err != nil {
		if isNotFound(err) {
			return nil, dErrors.New(dErrors.CodeNotFound, "role not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load role")
	}
	return role, nil
}

// loadMemberAndRole fetches both concurrently; the first failure wins.
func (s *Service) loadMemberAndRole(ctx context.Context, memberID id.MemberID, roleID id.RoleID) (*dirmodels.Member, *dirmodels.Role, error) {
	var (
		member *dirmodels.Member
		role   *dirmodels.Role
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := s.loadMember(gctx, memberID)
		member = m
		return err
	})
	g.Go(func() error {
		r, err := s.loadRole(gctx, roleID)
		role = r
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return member, role, nil
}

// saveReview persists a transition made inside RunInTx.
func (s *Service) saveReview(ctx context.Context, app *models.Application) error {
	if err := s.applications.Save(ctx, app); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrInvalidState):
			return dErrors.New(dErrors.CodeInvalidState, "application already processed")
		case errors.Is(err, sentinel.ErrNotFound):
			return dErrors.New(dErrors.CodeNotFound, "application not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save application")
	}
	return nil
}

// emitAudit is fail-closed: an error aborts the enclosing unit of work.
func (s *Service) emitAudit(ctx context.Context, action audit.AuditEvent, app *models.Application, actor id.UserID, decision string) error {
	if s.auditPublisher == nil {
		return nil
	}
	event := audit.Event{
		Timestamp: requestcontext.Now(ctx),
		Subject:   app.ID().String(),
		Action:    string(action),
		MemberID:  app.MemberID().String(),
		Decision:  decision,
		ActorID:   actor.String(),
		RequestID: requestcontext.RequestID(ctx),
	}
	if app.CreatedUserID() != nil {
		event.UserID = *app.CreatedUserID()
	}
	if app.ReviewNote() != nil {
		event.Reason = *app.ReviewNote()
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record audit event")
	}
	return nil
}

// fromModelError turns entity invariant failures on caller input into validation errors.
func fromModelError(err error) error {
	if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
		return dErrors.New(dErrors.CodeValidation, dErrors.Description(err))
	}
	return err
}

func isNotFound(err error) bool {
	return errors.Is(err, sentinel.ErrNotFound) || dErrors.HasCode(err, dErrors.CodeNotFound)
}
