// Package domain holds typed identifiers and value objects shared across bounded contexts.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "memberpanel/pkg/domain-errors"
)

// Typed identifiers. Distinct types keep a member id from being passed where a role id is
// expected; conversions must be explicit.
type (
	ApplicationID uuid.UUID
	MemberID      uuid.UUID
	RoleID        uuid.UUID
	ProvinceID    uuid.UUID
	DistrictID    uuid.UUID
	UserID        uuid.UUID
	ScopeID       uuid.UUID
)

// maxIDLength bounds input before it reaches uuid.Parse. The longest accepted form is the
// urn:uuid: prefixed one.
const maxIDLength = 45

func parseID(raw, kind string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" is required")
	}
	if len(raw) > maxIDLength {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	return parsed, nil
}

func ParseApplicationID(raw string) (ApplicationID, error) {
	v, err := parseID(raw, "application id")
	return ApplicationID(v), err
}

func ParseMemberID(raw string) (MemberID, error) {
	v, err := parseID(raw, "member id")
	return MemberID(v), err
}

func ParseRoleID(raw string) (RoleID, error) {
	v, err := parseID(raw, "role id")
	return RoleID(v), err
}

func ParseProvinceID(raw string) (ProvinceID, error) {
	v, err := parseID(raw, "province id")
	return ProvinceID(v), err
}

func ParseDistrictID(raw string) (DistrictID, error) {
	v, err := parseID(raw, "district id")
	return DistrictID(v), err
}

func ParseUserID(raw string) (UserID, error) {
	v, err := parseID(raw, "user id")
	return UserID(v), err
}

func (id ApplicationID) String() string { return uuid.UUID(id).String() }
func (id ApplicationID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id MemberID) String() string { return uuid.UUID(id).String() }
func (id MemberID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id RoleID) String() string { return uuid.UUID(id).String() }
func (id RoleID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id ProvinceID) String() string { return uuid.UUID(id).String() }
func (id ProvinceID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id DistrictID) String() string { return uuid.UUID(id).String() }
func (id DistrictID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id UserID) String() string { return uuid.UUID(id).String() }
func (id UserID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id ScopeID) String() string { return uuid.UUID(id).String() }
