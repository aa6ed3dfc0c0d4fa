// Package models holds the read-only directory records the application lifecycle
// consults: members, roles and the province/district hierarchy.
package models

import (
	id "memberpanel/pkg/domain"
)

// Member is the association member a panel user account is bound to.
type Member struct {
	ID        id.MemberID
	FirstName string
	LastName  string
	// HasLinkedAccount is true once a panel account exists for the member.
	HasLinkedAccount bool
}

func (m *Member) FullName() string {
	return m.FirstName + " " + m.LastName
}

// Role is a panel role. Accounts holding a role with HasScopeRestriction must be
// assigned at least one geographic scope.
type Role struct {
	ID                  id.RoleID
	Name                string
	HasScopeRestriction bool
}

type Province struct {
	ID   id.ProvinceID
	Name string
}

// District belongs to exactly one province.
type District struct {
	ID         id.DistrictID
	ProvinceID id.ProvinceID
	Name       string
}
