package jwttoken

import (
	authmw "memberpanel/pkg/platform/middleware/auth"
)

// MiddlewareValidator exposes a JWTService through the narrow interface the auth
// middleware consumes, so the middleware package does not depend on jwt types.
type MiddlewareValidator struct {
	service *JWTService
}

func NewMiddlewareValidator(service *JWTService) *MiddlewareValidator {
	return &MiddlewareValidator{service: service}
}

func (v *MiddlewareValidator) ValidateToken(token string) (*authmw.JWTClaims, error) {
	claims, err := v.service.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	return &authmw.JWTClaims{UserID: claims.Subject}, nil
}
