// Package types holds the values exchanged between the application service and the
// account provisioning port.
package types

import id "memberpanel/pkg/domain"

// ProvisionRequest describes the panel account created on approval.
type ProvisionRequest struct {
	ApplicationID id.ApplicationID
	MemberID      id.MemberID
	Email         string
	Password      string
	FirstName     string
	LastName      string
	RoleIDs       []id.RoleID
	Scopes        []id.GeoScope
}

type ProvisionedAccount struct {
	ID    id.UserID
	Email string
}
