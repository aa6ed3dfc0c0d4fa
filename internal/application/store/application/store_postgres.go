package application

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"memberpanel/internal/application/models"
	"memberpanel/internal/platform/postgres"
	id "memberpanel/pkg/domain"
	"memberpanel/pkg/platform/sentinel"
	txcontext "memberpanel/pkg/platform/tx"
)

const constraintActiveMember = "panel_user_applications_active_member_key"

// PostgresStore persists applications in panel_user_applications. Every statement joins
// the transaction carried by ctx when there is one.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const selectApplication = `
	SELECT id, member_id, requested_role_id, request_note, status, reviewed_by, reviewed_at,
	       review_note, created_user_id, created_at, updated_at
	FROM panel_user_applications
`

func (s *PostgresStore) Create(ctx context.Context, app *models.Application) (*models.Application, error) {
	rec := app.Record()
	rec.ID = id.ApplicationID(uuid.New())
	created, err := models.FromRecord(rec)
	if err != nil {
		return nil, err
	}

	_, err = txcontext.ExecutorFrom(ctx, s.db).ExecContext(ctx, `
		INSERT INTO panel_user_applications
			(id, member_id, requested_role_id, request_note, status, reviewed_by, reviewed_at,
			 review_note, created_user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, uuid.UUID(rec.ID), uuid.UUID(rec.MemberID), uuid.UUID(rec.RequestedRoleID), rec.RequestNote,
		string(rec.Status), postgres.NullableUUID(rec.ReviewedBy), rec.ReviewedAt, rec.ReviewNote,
		postgres.NullableUUID(rec.CreatedUserID), rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err, constraintActiveMember) {
			return nil, sentinel.ErrAlreadyUsed
		}
		return nil, fmt.Errorf("insert application: %w", err)
	}
	return created, nil
}

// Save writes a review decision. The update only matches a PENDING row, so a decision
// can never overwrite another one.
func (s *PostgresStore) Save(ctx context.Context, app *models.Application) error {
	rec := app.Record()
	exec := txcontext.ExecutorFrom(ctx, s.db)
	res, err := exec.ExecContext(ctx, `
		UPDATE panel_user_applications
		SET status = $2, reviewed_by = $3, reviewed_at = $4, review_note = $5,
		    created_user_id = $6, updated_at = $7
		WHERE id = $1 AND status = 'PENDING'
	`, uuid.UUID(rec.ID), string(rec.Status), postgres.NullableUUID(rec.ReviewedBy), rec.ReviewedAt,
		rec.ReviewNote, postgres.NullableUUID(rec.CreatedUserID), rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update application: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update application: %w", err)
	}
	if affected == 1 {
		return nil
	}

	var exists bool
	if err := exec.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM panel_user_applications WHERE id = $1)`, uuid.UUID(rec.ID),
	).Scan(&exists); err != nil {
		return fmt.Errorf("check application: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrInvalidState
}

func (s *PostgresStore) FindByID(ctx context.Context, applicationID id.ApplicationID) (*models.Application, error) {
	row := txcontext.ExecutorFrom(ctx, s.db).QueryRowContext(ctx,
		selectApplication+`WHERE id = $1`, uuid.UUID(applicationID))
	return scanApplication(row)
}

// FindByMemberID returns the member's most recent application.
func (s *PostgresStore) FindByMemberID(ctx context.Context, memberID id.MemberID) (*models.Application, error) {
	row := txcontext.ExecutorFrom(ctx, s.db).QueryRowContext(ctx,
		selectApplication+`WHERE member_id = $1 ORDER BY created_at DESC LIMIT 1`, uuid.UUID(memberID))
	return scanApplication(row)
}

// FindAll lists applications newest first, optionally filtered by status.
func (s *PostgresStore) FindAll(ctx context.Context, status *models.Status) ([]*models.Application, error) {
	var filter any
	if status != nil {
		filter = string(*status)
	}
	rows, err := txcontext.ExecutorFrom(ctx, s.db).QueryContext(ctx,
		selectApplication+`WHERE ($1::text IS NULL OR status = $1) ORDER BY created_at DESC, id`, filter)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	var out []*models.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applications: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanApplication(row scanner) (*models.Application, error) {
	var (
		appID, memberID, roleID   uuid.UUID
		status                    string
		requestNote, reviewNote   sql.NullString
		reviewedBy, createdUserID uuid.NullUUID
		reviewedAt                sql.NullTime
		rec                       models.Record
	)
	err := row.Scan(&appID, &memberID, &roleID, &requestNote, &status, &reviewedBy, &reviewedAt,
		&reviewNote, &createdUserID, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan application: %w", err)
	}

	rec.ID = id.ApplicationID(appID)
	rec.MemberID = id.MemberID(memberID)
	rec.RequestedRoleID = id.RoleID(roleID)
	rec.Status = models.Status(status)
	if requestNote.Valid {
		rec.RequestNote = &requestNote.String
	}
	if reviewNote.Valid {
		rec.ReviewNote = &reviewNote.String
	}
	if reviewedBy.Valid {
		u := id.UserID(reviewedBy.UUID)
		rec.ReviewedBy = &u
	}
	if reviewedAt.Valid {
		rec.ReviewedAt = &reviewedAt.Time
	}
	if createdUserID.Valid {
		u := id.UserID(createdUserID.UUID)
		rec.CreatedUserID = &u
	}
	return models.FromRecord(rec)
}
