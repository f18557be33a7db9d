package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/picshelf/picshelf/internal/domain"
)

// ErrDuplicateUsername is returned by UserRepository.Create when the
// username unique index rejects the insert. Uniqueness is enforced by
// the database, not by a read-then-write check, so two concurrent
// signups cannot both succeed.
var ErrDuplicateUsername = errors.New("username already taken")

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	// GetByUsernameWithHash is the one lookup that includes the password
	// hash. It exists solely for login verification.
	GetByUsernameWithHash(ctx context.Context, username string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.SafeUser, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.SafeUser, error)
}

type ImageRepository interface {
	Create(ctx context.Context, image *domain.Image) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Image, error)
}

// TokenRevocationList remembers logged-out token ids until their natural
// expiry, so a cleared cookie cannot be replayed.
type TokenRevocationList interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}
