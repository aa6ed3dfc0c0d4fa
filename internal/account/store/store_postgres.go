package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"memberpanel/internal/account/models"
	"memberpanel/internal/platform/postgres"
	id "memberpanel/pkg/domain"
	"memberpanel/pkg/email"
	"memberpanel/pkg/platform/sentinel"
	txcontext "memberpanel/pkg/platform/tx"
)

// Constraint names from the accounts migration.
const (
	constraintEmail       = "accounts_email_key"
	constraintMember      = "accounts_member_id_key"
	constraintApplication = "accounts_source_application_id_key"
)

// PostgresStore persists accounts in the accounts, account_roles and account_scopes tables.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create inserts the account with its roles and scopes. It joins the transaction in ctx,
// or opens its own so the three inserts land together.
func (s *PostgresStore) Create(ctx context.Context, account *models.Account) error {
	if tx, ok := txcontext.From(ctx); ok {
		return s.create(ctx, tx, account)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin account tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()
	if err := s.create(ctx, tx, account); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit account tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) create(ctx context.Context, exec txcontext.Executor, account *models.Account) error {
	var sourceApplication *uuid.UUID
	if account.SourceApplicationID != nil {
		v := uuid.UUID(*account.SourceApplicationID)
		sourceApplication = &v
	}
	_, err := exec.ExecContext(ctx, `
		INSERT INTO accounts (id, member_id, source_application_id, email, password_hash, first_name, last_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, uuid.UUID(account.ID), uuid.UUID(account.MemberID), sourceApplication,
		email.Normalize(account.Email), account.PasswordHash, account.FirstName, account.LastName, account.CreatedAt)
	if err != nil {
		switch {
		case postgres.IsUniqueViolation(err, constraintEmail):
			return ErrEmailTaken
		case postgres.IsUniqueViolation(err, constraintMember):
			return ErrMemberLinked
		case postgres.IsUniqueViolation(err, constraintApplication):
			return ErrApplicationLinked
		}
		return fmt.Errorf("insert account: %w", err)
	}

	roleIDs := make([]string, len(account.RoleIDs))
	for i, r := range account.RoleIDs {
		roleIDs[i] = r.String()
	}
	if _, err := exec.ExecContext(ctx, `
		INSERT INTO account_roles (account_id, role_id)
		SELECT $1, unnest($2::uuid[])
	`, uuid.UUID(account.ID), pq.Array(roleIDs)); err != nil {
		return fmt.Errorf("insert account roles: %w", err)
	}

	for _, sc := range account.Scopes {
		if _, err := exec.ExecContext(ctx, `
			INSERT INTO account_scopes (id, account_id, province_id, district_id)
			VALUES ($1, $2, $3, $4)
		`, uuid.New(), uuid.UUID(account.ID), postgres.NullableUUID(sc.ProvinceID), postgres.NullableUUID(sc.DistrictID)); err != nil {
			return fmt.Errorf("insert account scope: %w", err)
		}
	}
	return nil
}

const selectAccount = `
	SELECT a.id, a.member_id, a.source_application_id, a.email, a.password_hash,
	       a.first_name, a.last_name, a.created_at,
	       ARRAY(SELECT r.role_id::text FROM account_roles r WHERE r.account_id = a.id ORDER BY r.role_id)
	FROM accounts a
`

func (s *PostgresStore) FindByID(ctx context.Context, accountID id.UserID) (*models.Account, error) {
	return s.findOne(ctx, selectAccount+`WHERE a.id = $1`, uuid.UUID(accountID))
}

func (s *PostgresStore) FindByApplicationID(ctx context.Context, applicationID id.ApplicationID) (*models.Account, error) {
	return s.findOne(ctx, selectAccount+`WHERE a.source_application_id = $1`, uuid.UUID(applicationID))
}

func (s *PostgresStore) ExistsByEmail(ctx context.Context, address string) (bool, error) {
	var exists bool
	err := txcontext.ExecutorFrom(ctx, s.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM accounts WHERE LOWER(email) = $1)`, email.Normalize(address)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check account email: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) ExistsByMemberID(ctx context.Context, memberID id.MemberID) (bool, error) {
	var exists bool
	err := txcontext.ExecutorFrom(ctx, s.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM accounts WHERE member_id = $1)`, uuid.UUID(memberID)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check member account: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) findOne(ctx context.Context, query string, arg any) (*models.Account, error) {
	exec := txcontext.ExecutorFrom(ctx, s.db)

	var (
		account           models.Account
		accountID         uuid.UUID
		memberID          uuid.UUID
		sourceApplication uuid.NullUUID
		roleIDs           []string
	)
	err := exec.QueryRowContext(ctx, query, arg).Scan(
		&accountID, &memberID, &sourceApplication, &account.Email, &account.PasswordHash,
		&account.FirstName, &account.LastName, &account.CreatedAt, pq.Array(&roleIDs),
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	account.ID = id.UserID(accountID)
	account.MemberID = id.MemberID(memberID)
	if sourceApplication.Valid {
		appID := id.ApplicationID(sourceApplication.UUID)
		account.SourceApplicationID = &appID
	}
	for _, raw := range roleIDs {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse account role id: %w", err)
		}
		account.RoleIDs = append(account.RoleIDs, id.RoleID(parsed))
	}

	scopes, err := s.loadScopes(ctx, exec, account.ID)
	if err != nil {
		return nil, err
	}
	account.Scopes = scopes
	return &account, nil
}

func (s *PostgresStore) loadScopes(ctx context.Context, exec txcontext.Executor, accountID id.UserID) ([]id.GeoScope, error) {
	rows, err := exec.QueryContext(ctx,
		`SELECT province_id, district_id FROM account_scopes WHERE account_id = $1`, uuid.UUID(accountID))
	if err != nil {
		return nil, fmt.Errorf("query account scopes: %w", err)
	}
	defer rows.Close()

	var scopes []id.GeoScope
	for rows.Next() {
		var province, district uuid.NullUUID
		if err := rows.Scan(&province, &district); err != nil {
			return nil, fmt.Errorf("scan account scope: %w", err)
		}
		scopes = append(scopes, postgres.GeoScopeFromNull(province, district))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate account scopes: %w", err)
	}
	return scopes, nil
}
