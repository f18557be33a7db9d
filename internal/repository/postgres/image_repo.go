package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/picshelf/picshelf/internal/domain"
)

type ImageRepo struct {
	pool *pgxpool.Pool
}

func NewImageRepo(pool *pgxpool.Pool) *ImageRepo {
	return &ImageRepo{pool: pool}
}

func (r *ImageRepo) Create(ctx context.Context, image *domain.Image) error {
	query := `
		INSERT INTO images (id, user_id, key, created_at)
		VALUES ($1, $2, $3, $4)`

	_, err := r.pool.Exec(ctx, query, image.ID, image.UserID, image.Key, image.CreatedAt)
	return err
}

func (r *ImageRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Image, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT id, user_id, key, created_at FROM images WHERE user_id = $1 ORDER BY created_at DESC",
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []domain.Image
	for rows.Next() {
		var img domain.Image
		if err := rows.Scan(&img.ID, &img.UserID, &img.Key, &img.CreatedAt); err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}
