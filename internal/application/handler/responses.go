package handler

import (
	"time"

	"memberpanel/internal/application/models"
	id "memberpanel/pkg/domain"
)

// ApplicationResponse is the wire form of an application.
type ApplicationResponse struct {
	ID              string          `json:"id"`
	MemberID        string          `json:"member_id"`
	RequestedRoleID string          `json:"requested_role_id"`
	RequestNote     *string         `json:"request_note,omitempty"`
	Status          string          `json:"status"`
	ReviewedBy      *string         `json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time      `json:"reviewed_at,omitempty"`
	ReviewNote      *string         `json:"review_note,omitempty"`
	CreatedUserID   *string         `json:"created_user_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Scopes          []ScopeResponse `json:"scopes,omitempty"`
}

type ScopeResponse struct {
	ProvinceID *string `json:"province_id,omitempty"`
	DistrictID *string `json:"district_id,omitempty"`
}

// ListApplicationsResponse is the body of GET /admin/panel-applications.
type ListApplicationsResponse struct {
	Applications []*ApplicationResponse `json:"applications"`
	Count        int                    `json:"count"`
}

func toApplicationResponse(app *models.Application) *ApplicationResponse {
	resp := &ApplicationResponse{
		ID:              app.ID().String(),
		MemberID:        app.MemberID().String(),
		RequestedRoleID: app.RequestedRoleID().String(),
		RequestNote:     app.RequestNote(),
		Status:          app.Status().String(),
		ReviewedAt:      app.ReviewedAt(),
		ReviewNote:      app.ReviewNote(),
		CreatedAt:       app.CreatedAt(),
		UpdatedAt:       app.UpdatedAt(),
	}
	if reviewer := app.ReviewedBy(); reviewer != nil {
		resp.ReviewedBy = stringPtr(reviewer.String())
	}
	if user := app.CreatedUserID(); user != nil {
		resp.CreatedUserID = stringPtr(user.String())
	}
	return resp
}

func toScopeResponses(rows []*models.ApplicationScope) []ScopeResponse {
	out := make([]ScopeResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, toScopeResponse(r.GeoScope()))
	}
	return out
}

func toScopeResponse(s id.GeoScope) ScopeResponse {
	var resp ScopeResponse
	if s.ProvinceID != nil {
		resp.ProvinceID = stringPtr(s.ProvinceID.String())
	}
	if s.DistrictID != nil {
		resp.DistrictID = stringPtr(s.DistrictID.String())
	}
	return resp
}

func stringPtr(s string) *string { return &s }
