// Package scope validates the geographic scopes requested for a panel role.
//
// Rules are applied in a fixed order and validation stops at the first violation, so
// callers always see the same error for the same input:
//
//  1. A role without scope restriction accepts an empty list; nothing else is checked.
//  2. A restricted role needs at least one entry.
//  3. Every entry names a province, a district, or both.
//  4. A district needs its province.
//  5. The district must belong to that province.
package scope

import (
	"context"
	"errors"
	"fmt"

	dirmodels "memberpanel/internal/directory/models"
	id "memberpanel/pkg/domain"
	dErrors "memberpanel/pkg/domain-errors"
	"memberpanel/pkg/platform/sentinel"
)

// DistrictLookup resolves a district to its parent province.
type DistrictLookup interface {
	FindDistrict(ctx context.Context, districtID id.DistrictID) (*dirmodels.District, error)
}

const (
	msgScopeMandatory   = "scope selection is mandatory for this role"
	msgTargetRequired   = "province or district is required"
	msgProvinceRequired = "district requires a province"
	msgDistrictMismatch = "district does not belong to the selected province"
)

// Validate checks scopes against the role's restriction flag. It returns nil or a single
// CodeValidation error; an unknown district is CodeNotFound.
func Validate(ctx context.Context, requiresScope bool, scopes []id.GeoScope, districts DistrictLookup) error {
	if !requiresScope && len(scopes) == 0 {
		return nil
	}
	if requiresScope && len(scopes) == 0 {
		return dErrors.New(dErrors.CodeValidation, msgScopeMandatory)
	}
	for i, s := range scopes {
		if err := validateEntry(ctx, i+1, s, districts); err != nil {
			return err
		}
	}
	return nil
}

func validateEntry(ctx context.Context, n int, s id.GeoScope, districts DistrictLookup) error {
	if s.IsEmpty() {
		return entryError(n, msgTargetRequired)
	}
	if s.DistrictID == nil {
		return nil
	}
	if s.ProvinceID == nil {
		return entryError(n, msgProvinceRequired)
	}

	district, err := districts.FindDistrict(ctx, *s.DistrictID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) || dErrors.HasCode(err, dErrors.CodeNotFound) {
			return dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("scope entry %d: district not found", n))
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load district")
	}
	if district.ProvinceID != *s.ProvinceID {
		return entryError(n, msgDistrictMismatch)
	}
	return nil
}

func entryError(n int, msg string) error {
	return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("scope entry %d: %s", n, msg))
}
