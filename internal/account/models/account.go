package models

import (
	"strings"
	"time"

	id "memberpanel/pkg/domain"
	dErrors "memberpanel/pkg/domain-errors"
	"memberpanel/pkg/email"
)

// Account is a panel (back-office) login bound to exactly one member.
//
// Invariants:
//   - MemberID is set and immutable; one account per member
//   - Email is normalized (trimmed, lower-cased) and syntactically valid
//   - PasswordHash is never empty; the cleartext password is never stored
//   - SourceApplicationID, when set, identifies the application that provisioned the
//     account; at most one account per application
type Account struct {
	ID                  id.UserID
	MemberID            id.MemberID
	SourceApplicationID *id.ApplicationID
	Email               string
	PasswordHash        string
	FirstName           string
	LastName            string
	RoleIDs             []id.RoleID
	Scopes              []id.GeoScope
	CreatedAt           time.Time
}

func NewAccount(
	accountID id.UserID,
	memberID id.MemberID,
	sourceApplicationID *id.ApplicationID,
	address, passwordHash, firstName, lastName string,
	roleIDs []id.RoleID,
	scopes []id.GeoScope,
	now time.Time,
) (*Account, error) {
	if accountID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "account id is required")
	}
	if memberID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "member id is required")
	}
	address = email.Normalize(address)
	if !email.IsValid(address) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "email is invalid")
	}
	if passwordHash == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "password hash is required")
	}
	if len(roleIDs) == 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "at least one role is required")
	}
	return &Account{
		ID:                  accountID,
		MemberID:            memberID,
		SourceApplicationID: sourceApplicationID,
		Email:               address,
		PasswordHash:        passwordHash,
		FirstName:           strings.TrimSpace(firstName),
		LastName:            strings.TrimSpace(lastName),
		RoleIDs:             append([]id.RoleID(nil), roleIDs...),
		Scopes:              append([]id.GeoScope(nil), scopes...),
		CreatedAt:           now,
	}, nil
}
