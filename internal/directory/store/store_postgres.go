package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"memberpanel/internal/directory/models"
	id "memberpanel/pkg/domain"
	"memberpanel/pkg/platform/sentinel"
	txcontext "memberpanel/pkg/platform/tx"
)

// PostgresStore reads the directory tables. The linked-account flag on members is
// resolved by the caller from the account store.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindMember(ctx context.Context, memberID id.MemberID) (*models.Member, error) {
	var m models.Member
	err := txcontext.ExecutorFrom(ctx, s.db).QueryRowContext(ctx,
		`SELECT first_name, last_name FROM members WHERE id = $1`, uuid.UUID(memberID),
	).Scan(&m.FirstName, &m.LastName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find member: %w", err)
	}
	m.ID = memberID
	return &m, nil
}

func (s *PostgresStore) FindRole(ctx context.Context, roleID id.RoleID) (*models.Role, error) {
	var r models.Role
	err := txcontext.ExecutorFrom(ctx, s.db).QueryRowContext(ctx,
		`SELECT name, has_scope_restriction FROM roles WHERE id = $1`, uuid.UUID(roleID),
	).Scan(&r.Name, &r.HasScopeRestriction)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find role: %w", err)
	}
	r.ID = roleID
	return &r, nil
}

func (s *PostgresStore) FindDistrict(ctx context.Context, districtID id.DistrictID) (*models.District, error) {
	var (
		d          models.District
		provinceID uuid.UUID
	)
	err := txcontext.ExecutorFrom(ctx, s.db).QueryRowContext(ctx,
		`SELECT province_id, name FROM districts WHERE id = $1`, uuid.UUID(districtID),
	).Scan(&provinceID, &d.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find district: %w", err)
	}
	d.ID = districtID
	d.ProvinceID = id.ProvinceID(provinceID)
	return &d, nil
}

// UpsertMember, UpsertRole, UpsertProvince and UpsertDistrict back the demo seed.

func (s *PostgresStore) UpsertMember(ctx context.Context, m *models.Member) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO members (id, first_name, last_name) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET first_name = EXCLUDED.first_name, last_name = EXCLUDED.last_name
	`, uuid.UUID(m.ID), m.FirstName, m.LastName)
	if err != nil {
		return fmt.Errorf("upsert member: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpsertRole(ctx context.Context, r *models.Role) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO roles (id, name, has_scope_restriction) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, has_scope_restriction = EXCLUDED.has_scope_restriction
	`, uuid.UUID(r.ID), r.Name, r.HasScopeRestriction)
	if err != nil {
		return fmt.Errorf("upsert role: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpsertProvince(ctx context.Context, p *models.Province) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO provinces (id, name) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name
	`, uuid.UUID(p.ID), p.Name)
	if err != nil {
		return fmt.Errorf("upsert province: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpsertDistrict(ctx context.Context, d *models.District) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO districts (id, province_id, name) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET province_id = EXCLUDED.province_id, name = EXCLUDED.name
	`, uuid.UUID(d.ID), uuid.UUID(d.ProvinceID), d.Name)
	if err != nil {
		return fmt.Errorf("upsert district: %w", err)
	}
	return nil
}
