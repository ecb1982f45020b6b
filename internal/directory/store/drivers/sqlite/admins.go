package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/campusreach/directory/internal/directory/domain"
	"github.com/campusreach/directory/internal/directory/store"
)

type adminsRepo struct {
	db dbtx
}

const adminColumns = `id, email, password_hash, entity_type, entity_id, role, is_active, last_login, created_at`

func (r *adminsRepo) GetAdminByID(ctx context.Context, id string) (domain.AdminIdentity, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+adminColumns+`
		FROM admin_identities
		WHERE id = ?`, id)
	return scanAdmin(row)
}

func (r *adminsRepo) GetAdminByEmail(ctx context.Context, email string) (domain.AdminIdentity, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+adminColumns+`
		FROM admin_identities
		WHERE email = ?`, email)
	return scanAdmin(row)
}

func (r *adminsRepo) CreateAdmin(ctx context.Context, a domain.AdminIdentity) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO admin_identities (`+adminColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID,
		a.Email,
		a.PasswordHash,
		string(a.EntityType),
		a.EntityID,
		string(a.Role),
		a.IsActive,
		mapOptionalTime(a.LastLogin),
		a.CreatedAt,
	)
	if err != nil && strings.Contains(err.Error(), "UNIQUE") {
		return store.ErrAlreadyExists
	}
	return err
}

func (r *adminsRepo) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE admin_identities
		SET last_login = ?
		WHERE id = ?`, at, id)
	return err
}

func scanAdmin(row rowScanner) (domain.AdminIdentity, error) {
	var (
		a          domain.AdminIdentity
		entityType string
		role       string
		lastLogin  sql.NullTime
	)
	err := row.Scan(
		&a.ID,
		&a.Email,
		&a.PasswordHash,
		&entityType,
		&a.EntityID,
		&role,
		&a.IsActive,
		&lastLogin,
		&a.CreatedAt,
	)
	if err != nil {
		return domain.AdminIdentity{}, mapNotFound(err)
	}
	a.EntityType = domain.EntityType(entityType)
	a.Role = domain.Role(role)
	a.LastLogin = mapNullTimePtr(lastLogin)
	return a, nil
}
