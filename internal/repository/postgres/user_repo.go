package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/picshelf/picshelf/internal/domain"
	"github.com/picshelf/picshelf/internal/repository"
)

const uniqueViolation = "23505"

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, username, profile_image_url, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query,
		user.ID, user.Username, user.ProfileImageURL,
		user.PasswordHash, user.CreatedAt, user.UpdatedAt,
	)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return repository.ErrDuplicateUsername
	}
	return err
}

// GetByUsernameWithHash loads the full record including the password
// hash. Login verification is its only caller.
func (r *UserRepo) GetByUsernameWithHash(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	err := r.pool.QueryRow(ctx,
		"SELECT id, username, profile_image_url, password_hash, created_at, updated_at FROM users WHERE username = $1",
		username,
	).Scan(&u.ID, &u.Username, &u.ProfileImageURL, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.SafeUser, error) {
	return r.scanSafeUser(ctx, "SELECT id, username, profile_image_url FROM users WHERE username = $1", username)
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.SafeUser, error) {
	return r.scanSafeUser(ctx, "SELECT id, username, profile_image_url FROM users WHERE id = $1", id)
}

func (r *UserRepo) scanSafeUser(ctx context.Context, query string, arg any) (*domain.SafeUser, error) {
	var u domain.SafeUser
	err := r.pool.QueryRow(ctx, query, arg).Scan(&u.ID, &u.Username, &u.ProfileImageURL)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
