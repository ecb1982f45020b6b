package sqlite

import (
	"context"

	"github.com/campusreach/directory/internal/directory/domain"
)

type scholarshipsRepo struct {
	db dbtx
}

func (r *scholarshipsRepo) GetScholarshipByID(ctx context.Context, id string) (domain.Scholarship, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, title
		FROM scholarships
		WHERE id = ?`, id)

	var s domain.Scholarship
	if err := row.Scan(&s.ID, &s.Title); err != nil {
		return domain.Scholarship{}, mapNotFound(err)
	}
	return s, nil
}

func (r *scholarshipsRepo) CreateScholarship(ctx context.Context, s domain.Scholarship) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO scholarships (id, title)
		VALUES (?, ?)`, s.ID, s.Title)
	return err
}
