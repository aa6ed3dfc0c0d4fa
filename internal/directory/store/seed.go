package store

import (
	"context"

	"github.com/google/uuid"

	"memberpanel/internal/directory/models"
	id "memberpanel/pkg/domain"
)

// Writer is implemented by both directory stores.
type Writer interface {
	UpsertMember(ctx context.Context, m *models.Member) error
	UpsertRole(ctx context.Context, r *models.Role) error
	UpsertProvince(ctx context.Context, p *models.Province) error
	UpsertDistrict(ctx context.Context, d *models.District) error
}

// seedNamespace derives stable demo ids so repeated seeding is idempotent.
var seedNamespace = uuid.MustParse("6f1d9a52-3c0e-4b8e-9a61-2f4b7f0c9d11")

func seedID(name string) uuid.UUID {
	return uuid.NewSHA1(seedNamespace, []byte(name))
}

// Demo holds the ids of the seeded directory rows.
type Demo struct {
	HeadOfficeRole    id.RoleID
	ProvincialRepRole id.RoleID
	Ankara            id.ProvinceID
	Izmir             id.ProvinceID
	Cankaya           id.DistrictID
	Konak             id.DistrictID
	Members           []id.MemberID
}

// SeedDemo writes a small directory for local development: one unrestricted role, one
// scope-restricted role, two provinces with districts and three members.
func SeedDemo(ctx context.Context, w Writer) (*Demo, error) {
	d := &Demo{
		HeadOfficeRole:    id.RoleID(seedID("role:head-office")),
		ProvincialRepRole: id.RoleID(seedID("role:provincial-rep")),
		Ankara:            id.ProvinceID(seedID("province:ankara")),
		Izmir:             id.ProvinceID(seedID("province:izmir")),
		Cankaya:           id.DistrictID(seedID("district:cankaya")),
		Konak:             id.DistrictID(seedID("district:konak")),
	}

	roles := []*models.Role{
		{ID: d.HeadOfficeRole, Name: "Head Office Administrator"},
		{ID: d.ProvincialRepRole, Name: "Provincial Representative", HasScopeRestriction: true},
	}
	for _, r := range roles {
		if err := w.UpsertRole(ctx, r); err != nil {
			return nil, err
		}
	}

	provinces := []*models.Province{{ID: d.Ankara, Name: "Ankara"}, {ID: d.Izmir, Name: "Izmir"}}
	for _, p := range provinces {
		if err := w.UpsertProvince(ctx, p); err != nil {
			return nil, err
		}
	}

	districts := []*models.District{
		{ID: d.Cankaya, ProvinceID: d.Ankara, Name: "Cankaya"},
		{ID: d.Konak, ProvinceID: d.Izmir, Name: "Konak"},
	}
	for _, dist := range districts {
		if err := w.UpsertDistrict(ctx, dist); err != nil {
			return nil, err
		}
	}

	for _, name := range [][2]string{{"Ayse", "Yilmaz"}, {"Mehmet", "Kaya"}, {"Zeynep", "Demir"}} {
		m := &models.Member{
			ID:        id.MemberID(seedID("member:" + name[0] + "-" + name[1])),
			FirstName: name[0],
			LastName:  name[1],
		}
		if err := w.UpsertMember(ctx, m); err != nil {
			return nil, err
		}
		d.Members = append(d.Members, m.ID)
	}
	return d, nil
}
