package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/campusreach/directory/internal/directory/domain"
	"github.com/campusreach/directory/internal/directory/store"
)

type invitationsRepo struct {
	db dbtx
}

const invitationColumns = `id, code, entity_type, entity_id, assigned_email, status, claimed_by, claimed_at, expires_at, created_by, created_at`

func (r *invitationsRepo) CreateInvitation(ctx context.Context, inv domain.Invitation) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO invitation_codes (`+invitationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID,
		inv.Code,
		string(inv.EntityType),
		inv.EntityID,
		mapOptionalString(ptrOrNil(inv.AssignedEmail)),
		string(inv.Status),
		mapOptionalString(ptrOrNil(inv.ClaimedBy)),
		mapOptionalTime(inv.ClaimedAt),
		inv.ExpiresAt,
		inv.CreatedBy,
		inv.CreatedAt,
	)
	if err != nil && strings.Contains(err.Error(), "UNIQUE") {
		return store.ErrAlreadyExists
	}
	return err
}

func (r *invitationsRepo) GetInvitationByCode(ctx context.Context, code string) (domain.Invitation, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+invitationColumns+`
		FROM invitation_codes
		WHERE code = ?`, code)
	return scanInvitation(row)
}

func (r *invitationsRepo) GetInvitationByID(ctx context.Context, id string) (domain.Invitation, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+invitationColumns+`
		FROM invitation_codes
		WHERE id = ?`, id)
	return scanInvitation(row)
}

// ClaimInvitation relies on a single conditional UPDATE so that under
// concurrent redemption exactly one caller observes RowsAffected == 1.
func (r *invitationsRepo) ClaimInvitation(ctx context.Context, code, claimedBy string, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE invitation_codes
		SET status = ?, claimed_by = ?, claimed_at = ?
		WHERE code = ? AND status = ? AND expires_at >= ?`,
		string(domain.InvitationClaimed),
		claimedBy,
		now,
		code,
		string(domain.InvitationPending),
		now,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *invitationsRepo) ExpireInvitation(ctx context.Context, id string, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE invitation_codes
		SET status = ?
		WHERE id = ? AND status = ? AND expires_at < ?`,
		string(domain.InvitationExpired),
		id,
		string(domain.InvitationPending),
		now,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *invitationsRepo) RevokeInvitation(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE invitation_codes
		SET status = ?
		WHERE id = ? AND status = ?`,
		string(domain.InvitationRevoked),
		id,
		string(domain.InvitationPending),
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *invitationsRepo) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE invitation_codes
		SET status = ?
		WHERE status = ? AND expires_at < ?`,
		string(domain.InvitationExpired),
		string(domain.InvitationPending),
		now,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *invitationsRepo) ListInvitations(ctx context.Context, status domain.InvitationStatus, limit int) ([]domain.Invitation, error) {
	if limit <= 0 {
		limit = 100
	}

	var (
		rows *sql.Rows
		err  error
	)
	if status == "" {
		rows, err = r.db.QueryContext(ctx, `
			SELECT `+invitationColumns+`
			FROM invitation_codes
			ORDER BY created_at DESC
			LIMIT ?`, limit)
	} else {
		rows, err = r.db.QueryContext(ctx, `
			SELECT `+invitationColumns+`
			FROM invitation_codes
			WHERE status = ?
			ORDER BY created_at DESC
			LIMIT ?`, string(status), limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvitation(row rowScanner) (domain.Invitation, error) {
	var (
		inv           domain.Invitation
		entityType    string
		status        string
		assignedEmail sql.NullString
		claimedBy     sql.NullString
		claimedAt     sql.NullTime
	)
	err := row.Scan(
		&inv.ID,
		&inv.Code,
		&entityType,
		&inv.EntityID,
		&assignedEmail,
		&status,
		&claimedBy,
		&claimedAt,
		&inv.ExpiresAt,
		&inv.CreatedBy,
		&inv.CreatedAt,
	)
	if err != nil {
		return domain.Invitation{}, mapNotFound(err)
	}
	inv.EntityType = domain.EntityType(entityType)
	inv.Status = domain.InvitationStatus(status)
	if assignedEmail.Valid {
		inv.AssignedEmail = assignedEmail.String
	}
	if claimedBy.Valid {
		inv.ClaimedBy = claimedBy.String
	}
	inv.ClaimedAt = mapNullTimePtr(claimedAt)
	return inv, nil
}

func ptrOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
