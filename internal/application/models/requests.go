package models

import (
	"strings"

	id "memberpanel/pkg/domain"
	dErrors "memberpanel/pkg/domain-errors"
	"memberpanel/pkg/email"
)

const minPasswordLength = 8

// CreateApplicationRequest submits a member for a panel role.
type CreateApplicationRequest struct {
	MemberID        id.MemberID
	RequestedRoleID id.RoleID
	RequestNote     *string
	Scopes          []id.GeoScope
	// RequestedBy is the acting panel user; it is audited, not stored on the application.
	RequestedBy id.UserID
}

func (r *CreateApplicationRequest) Normalize() {
	r.RequestNote = trimNote(r.RequestNote)
}

func (r *CreateApplicationRequest) Validate() error {
	if r.MemberID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "member id is required")
	}
	if r.RequestedRoleID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "requested role id is required")
	}
	return validateNote(r.RequestNote, "request note")
}

// ApproveApplicationRequest carries the reviewer's decision and the login for the
// account provisioned on approval.
type ApproveApplicationRequest struct {
	ApplicationID id.ApplicationID
	Email         string
	Password      string
	ReviewNote    *string
	// Scopes, when non-empty, replace the scopes recorded on the application.
	Scopes     []id.GeoScope
	ReviewedBy id.UserID
}

func (r *ApproveApplicationRequest) Normalize() {
	r.Email = email.Normalize(r.Email)
	r.ReviewNote = trimNote(r.ReviewNote)
}

func (r *ApproveApplicationRequest) Validate() error {
	if r.ApplicationID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "application id is required")
	}
	if r.ReviewedBy.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "reviewer is required")
	}
	if r.Email == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if !email.IsValid(r.Email) {
		return dErrors.New(dErrors.CodeValidation, "email must be a valid address")
	}
	if len(r.Password) < minPasswordLength {
		return dErrors.New(dErrors.CodeValidation, "password must be at least 8 characters")
	}
	return validateNote(r.ReviewNote, "review note")
}

type RejectApplicationRequest struct {
	ApplicationID id.ApplicationID
	ReviewNote    *string
	ReviewedBy    id.UserID
}

func (r *RejectApplicationRequest) Normalize() {
	r.ReviewNote = trimNote(r.ReviewNote)
}

func (r *RejectApplicationRequest) Validate() error {
	if r.ApplicationID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "application id is required")
	}
	if r.ReviewedBy.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "reviewer is required")
	}
	return validateNote(r.ReviewNote, "review note")
}

func trimNote(note *string) *string {
	if note == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*note)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func validateNote(note *string, field string) error {
	if note != nil && len(*note) > maxNoteLength {
		return dErrors.New(dErrors.CodeValidation, field+" must be 2000 characters or less")
	}
	return nil
}
