package service

import (
	"context"

	"memberpanel/internal/application/models"
	id "memberpanel/pkg/domain"
	dErrors "memberpanel/pkg/domain-errors"
)

// FindAll lists applications newest first. A nil status returns every application.
func (s *Service) FindAll(ctx context.Context, status *models.Status) ([]*models.Application, error) {
	apps, err := s.applications.FindAll(ctx, status)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list applications")
	}
	return apps, nil
}

func (s *Service) FindByID(ctx context.Context, applicationID id.ApplicationID) (*models.Application, error) {
	return s.loadApplication(ctx, applicationID)
}

// ListScopes returns the active scopes of an existing application.
func (s *Service) ListScopes(ctx context.Context, applicationID id.ApplicationID) ([]*models.ApplicationScope, error) {
	if _, err := s.loadApplication(ctx, applicationID); err != nil {
		return nil, err
	}
	scopes, err := s.scopes.ListActiveForApplication(ctx, applicationID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load application scopes")
	}
	return scopes, nil
}
