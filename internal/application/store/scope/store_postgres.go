package scope

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"memberpanel/internal/application/models"
	"memberpanel/internal/platform/postgres"
	id "memberpanel/pkg/domain"
	txcontext "memberpanel/pkg/platform/tx"
	"memberpanel/pkg/requestcontext"
)

// PostgresStore persists scopes in panel_user_application_scopes.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateMany(ctx context.Context, applicationID id.ApplicationID, scopes []id.GeoScope) ([]*models.ApplicationScope, error) {
	now := requestcontext.Now(ctx)
	exec := txcontext.ExecutorFrom(ctx, s.db)

	out := make([]*models.ApplicationScope, 0, len(scopes))
	for _, g := range scopes {
		row := &models.ApplicationScope{
			ID:            id.ScopeID(uuid.New()),
			ApplicationID: applicationID,
			ProvinceID:    g.ProvinceID,
			DistrictID:    g.DistrictID,
			CreatedAt:     now,
		}
		if _, err := exec.ExecContext(ctx, `
			INSERT INTO panel_user_application_scopes (id, application_id, province_id, district_id, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`, uuid.UUID(row.ID), uuid.UUID(applicationID), postgres.NullableUUID(g.ProvinceID),
			postgres.NullableUUID(g.DistrictID), now); err != nil {
			return nil, fmt.Errorf("insert application scope: %w", err)
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *PostgresStore) SoftDeleteAllForApplication(ctx context.Context, applicationID id.ApplicationID) error {
	_, err := txcontext.ExecutorFrom(ctx, s.db).ExecContext(ctx, `
		UPDATE panel_user_application_scopes
		SET deleted_at = $2
		WHERE application_id = $1 AND deleted_at IS NULL
	`, uuid.UUID(applicationID), requestcontext.Now(ctx))
	if err != nil {
		return fmt.Errorf("soft delete application scopes: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListActiveForApplication(ctx context.Context, applicationID id.ApplicationID) ([]*models.ApplicationScope, error) {
	return s.list(ctx, `WHERE application_id = $1 AND deleted_at IS NULL`, applicationID)
}

// ListHistory returns every row ever recorded for the application, oldest first.
func (s *PostgresStore) ListHistory(ctx context.Context, applicationID id.ApplicationID) ([]*models.ApplicationScope, error) {
	return s.list(ctx, `WHERE application_id = $1`, applicationID)
}

func (s *PostgresStore) list(ctx context.Context, where string, applicationID id.ApplicationID) ([]*models.ApplicationScope, error) {
	rows, err := txcontext.ExecutorFrom(ctx, s.db).QueryContext(ctx, `
		SELECT id, application_id, province_id, district_id, created_at, deleted_at
		FROM panel_user_application_scopes
		`+where+`
		ORDER BY created_at, id
	`, uuid.UUID(applicationID))
	if err != nil {
		return nil, fmt.Errorf("list application scopes: %w", err)
	}
	defer rows.Close()

	var out []*models.ApplicationScope
	for rows.Next() {
		var (
			scopeID, appID     uuid.UUID
			province, district uuid.NullUUID
			deletedAt          sql.NullTime
			row                models.ApplicationScope
		)
		if err := rows.Scan(&scopeID, &appID, &province, &district, &row.CreatedAt, &deletedAt); err != nil {
			return nil, fmt.Errorf("scan application scope: %w", err)
		}
		row.ID = id.ScopeID(scopeID)
		row.ApplicationID = id.ApplicationID(appID)
		g := postgres.GeoScopeFromNull(province, district)
		row.ProvinceID, row.DistrictID = g.ProvinceID, g.DistrictID
		if deletedAt.Valid {
			row.DeletedAt = &deletedAt.Time
		}
		out = append(out, &row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate application scopes: %w", err)
	}
	return out, nil
}
