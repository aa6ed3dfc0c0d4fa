package models

import (
	"time"

	id "memberpanel/pkg/domain"
	"memberpanel/pkg/platform/dedupe"
)

// ApplicationScope is one geographic restriction recorded against an application.
// Rows are never updated in place: a replacement soft-deletes the active set and
// inserts a new one, so DeletedAt marks superseded history.
type ApplicationScope struct {
	ID            id.ScopeID
	ApplicationID id.ApplicationID
	ProvinceID    *id.ProvinceID
	DistrictID    *id.DistrictID
	CreatedAt     time.Time
	DeletedAt     *time.Time
}

// GeoScope returns the value object carried by the row.
func (s ApplicationScope) GeoScope() id.GeoScope {
	return id.GeoScope{ProvinceID: s.ProvinceID, DistrictID: s.DistrictID}
}

func (s ApplicationScope) IsActive() bool {
	return s.DeletedAt == nil
}

// DedupeScopes keeps one entry per (province, district) pair, first occurrence first.
func DedupeScopes(scopes []id.GeoScope) []id.GeoScope {
	return dedupe.ByKey(scopes, id.GeoScope.Key)
}

// GeoScopes projects rows onto their value objects.
func GeoScopes(rows []*ApplicationScope) []id.GeoScope {
	out := make([]id.GeoScope, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.GeoScope())
	}
	return out
}
