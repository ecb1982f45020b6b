package sqlite

import (
	"context"

	"github.com/campusreach/directory/internal/directory/domain"
	"github.com/campusreach/directory/pkg/idx"
)

type imagesRepo struct {
	db dbtx
}

func (r *imagesRepo) CountEntityImages(ctx context.Context, entityType domain.EntityType, entityID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM entity_images
		WHERE entity_type = ? AND entity_id = ?`, string(entityType), entityID).Scan(&n)
	return n, err
}

func (r *imagesRepo) AddEntityImage(ctx context.Context, entityType domain.EntityType, entityID, url string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO entity_images (id, entity_type, entity_id, url)
		VALUES (?, ?, ?, ?)`,
		idx.New().String(), string(entityType), entityID, url)
	return err
}
