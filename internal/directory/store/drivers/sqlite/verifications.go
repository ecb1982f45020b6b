package sqlite

import (
	"context"
	"database/sql"

	"github.com/campusreach/directory/internal/directory/domain"
)

type verificationsRepo struct {
	db dbtx
}

func (r *verificationsRepo) AppendVerification(ctx context.Context, v domain.VerificationRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO verification_records (id, institution_id, field_name, old_value, new_value, verified_by, verified_at, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID,
		v.InstitutionID,
		v.FieldName,
		mapOptionalString(ptrOrNil(v.OldValue)),
		mapOptionalString(ptrOrNil(v.NewValue)),
		v.VerifiedBy,
		v.VerifiedAt,
		mapOptionalString(ptrOrNil(v.Notes)),
	)
	return err
}

func (r *verificationsRepo) ListVerifications(ctx context.Context, institutionID string, limit int) ([]domain.VerificationRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, institution_id, field_name, old_value, new_value, verified_by, verified_at, notes
		FROM verification_records
		WHERE institution_id = ?
		ORDER BY verified_at DESC
		LIMIT ?`, institutionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.VerificationRecord
	for rows.Next() {
		var (
			v        domain.VerificationRecord
			oldValue sql.NullString
			newValue sql.NullString
			notes    sql.NullString
		)
		if err := rows.Scan(&v.ID, &v.InstitutionID, &v.FieldName, &oldValue, &newValue, &v.VerifiedBy, &v.VerifiedAt, &notes); err != nil {
			return nil, err
		}
		if oldValue.Valid {
			v.OldValue = oldValue.String
		}
		if newValue.Valid {
			v.NewValue = newValue.String
		}
		if notes.Valid {
			v.Notes = notes.String
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *verificationsRepo) CountVerifications(ctx context.Context, institutionID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM verification_records
		WHERE institution_id = ?`, institutionID).Scan(&n)
	return n, err
}

func (r *verificationsRepo) VerifiedFieldNames(ctx context.Context, institutionID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT field_name
		FROM verification_records
		WHERE institution_id = ?
		ORDER BY field_name`, institutionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}
