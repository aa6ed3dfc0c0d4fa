package domain

// GeoScope restricts a panel user to a province, a district within it, or both.
// A nil field means "not set".
type GeoScope struct {
	ProvinceID *ProvinceID
	DistrictID *DistrictID
}

// IsEmpty reports whether neither a province nor a district is set.
func (g GeoScope) IsEmpty() bool {
	return g.ProvinceID == nil && g.DistrictID == nil
}

// Key identifies the (province, district) pair, using "null" for unset members.
func (g GeoScope) Key() string {
	province, district := "null", "null"
	if g.ProvinceID != nil {
		province = g.ProvinceID.String()
	}
	if g.DistrictID != nil {
		district = g.DistrictID.String()
	}
	return province + ":" + district
}
