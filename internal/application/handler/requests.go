package handler

import (
	"memberpanel/internal/application/models"
	id "memberpanel/pkg/domain"
	dErrors "memberpanel/pkg/domain-errors"
)

// maxScopeEntries bounds the scope list accepted in one request body.
const maxScopeEntries = 200

// ScopeRequest is one geographic restriction on the wire. Either id may be omitted.
type ScopeRequest struct {
	ProvinceID *string `json:"province_id,omitempty"`
	DistrictID *string `json:"district_id,omitempty"`
}

// CreateApplicationRequest is the body of POST /admin/panel-applications.
type CreateApplicationRequest struct {
	MemberID        string         `json:"member_id"`
	RequestedRoleID string         `json:"requested_role_id"`
	RequestNote     *string        `json:"request_note,omitempty"`
	Scopes          []ScopeRequest `json:"scopes,omitempty"`

	parsedMemberID id.MemberID
	parsedRoleID   id.RoleID
	parsedScopes   []id.GeoScope
}

func (r *CreateApplicationRequest) Normalize() {}

// Validate parses identifiers. Business rules stay in the service.
func (r *CreateApplicationRequest) Validate() error {
	memberID, err := id.ParseMemberID(r.MemberID)
	if err != nil {
		return err
	}
	roleID, err := id.ParseRoleID(r.RequestedRoleID)
	if err != nil {
		return err
	}
	scopes, err := parseScopes(r.Scopes)
	if err != nil {
		return err
	}
	r.parsedMemberID = memberID
	r.parsedRoleID = roleID
	r.parsedScopes = scopes
	return nil
}

func (r *CreateApplicationRequest) toModel(actor id.UserID) *models.CreateApplicationRequest {
	return &models.CreateApplicationRequest{
		MemberID:        r.parsedMemberID,
		RequestedRoleID: r.parsedRoleID,
		RequestNote:     r.RequestNote,
		Scopes:          r.parsedScopes,
		RequestedBy:     actor,
	}
}

// ApproveApplicationRequest is the body of POST /admin/panel-applications/{id}/approve.
type ApproveApplicationRequest struct {
	Email      string         `json:"email"`
	Password   string         `json:"password"`
	ReviewNote *string        `json:"review_note,omitempty"`
	Scopes     []ScopeRequest `json:"scopes,omitempty"`

	parsedScopes []id.GeoScope
}

func (r *ApproveApplicationRequest) Normalize() {}

func (r *ApproveApplicationRequest) Validate() error {
	scopes, err := parseScopes(r.Scopes)
	if err != nil {
		return err
	}
	r.parsedScopes = scopes
	return nil
}

func (r *ApproveApplicationRequest) toModel(applicationID id.ApplicationID, actor id.UserID) *models.ApproveApplicationRequest {
	return &models.ApproveApplicationRequest{
		ApplicationID: applicationID,
		Email:         r.Email,
		Password:      r.Password,
		ReviewNote:    r.ReviewNote,
		Scopes:        r.parsedScopes,
		ReviewedBy:    actor,
	}
}

// RejectApplicationRequest is the body of POST /admin/panel-applications/{id}/reject.
// An empty body is accepted.
type RejectApplicationRequest struct {
	ReviewNote *string `json:"review_note,omitempty"`
}

func (r *RejectApplicationRequest) Normalize() {}

func (r *RejectApplicationRequest) Validate() error { return nil }

func (r *RejectApplicationRequest) toModel(applicationID id.ApplicationID, actor id.UserID) *models.RejectApplicationRequest {
	return &models.RejectApplicationRequest{
		ApplicationID: applicationID,
		ReviewNote:    r.ReviewNote,
		ReviewedBy:    actor,
	}
}

func parseScopes(in []ScopeRequest) ([]id.GeoScope, error) {
	if len(in) > maxScopeEntries {
		return nil, dErrors.New(dErrors.CodeValidation, "too many scope entries")
	}
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]id.GeoScope, 0, len(in))
	for _, s := range in {
		var scope id.GeoScope
		if s.ProvinceID != nil && *s.ProvinceID != "" {
			p, err := id.ParseProvinceID(*s.ProvinceID)
			if err != nil {
				return nil, err
			}
			scope.ProvinceID = &p
		}
		if s.DistrictID != nil && *s.DistrictID != "" {
			d, err := id.ParseDistrictID(*s.DistrictID)
			if err != nil {
				return nil, err
			}
			scope.DistrictID = &d
		}
		out = append(out, scope)
	}
	return out, nil
}
