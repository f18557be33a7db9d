package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/picshelf/picshelf/internal/domain"
	"github.com/picshelf/picshelf/internal/repository"
	"github.com/picshelf/picshelf/internal/token"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUsernameTaken = errors.New("username already taken")
	// ErrInvalidCreds is returned for unknown usernames and wrong
	// passwords alike, so a caller cannot probe which usernames exist.
	ErrInvalidCreds = errors.New("invalid username or password")
)

type AuthService struct {
	userRepo repository.UserRepository
	revoked  repository.TokenRevocationList
	issuer   *token.Issuer
	logger   *slog.Logger
}

func NewAuthService(userRepo repository.UserRepository, revoked repository.TokenRevocationList, issuer *token.Issuer, logger *slog.Logger) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		revoked:  revoked,
		issuer:   issuer,
		logger:   logger,
	}
}

type SignupInput struct {
	Username        string  `json:"username"`
	Password        string  `json:"password"`
	ProfileImageURL *string `json:"profileImageUrl"`
}

type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Session is the outcome of a successful signup or login: the safe user
// projection plus the token to place in the session cookie.
type Session struct {
	User   *domain.SafeUser
	Token  string
	Expiry time.Time
}

func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*Session, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now()
	user := &domain.User{
		ID:              uuid.New(),
		Username:        input.Username,
		ProfileImageURL: input.ProfileImageURL,
		PasswordHash:    string(hash),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	return s.startSession(user.Safe())
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*Session, error) {
	user, err := s.userRepo.GetByUsernameWithHash(ctx, input.Username)
	if err != nil {
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCreds
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)) != nil {
		return nil, ErrInvalidCreds
	}

	return s.startSession(user.Safe())
}

// Restore resolves the token from the session cookie to a current user.
// Every failure mode — missing token, bad signature, expiry, revocation,
// deleted user — resolves to (nil, nil): restore is a best-effort
// bootstrap check, never a user-facing error.
func (s *AuthService) Restore(ctx context.Context, tokenStr string) (*domain.SafeUser, error) {
	if tokenStr == "" {
		return nil, nil
	}

	v, err := s.issuer.Verify(tokenStr)
	if err != nil {
		return nil, nil
	}

	revoked, err := s.revoked.IsRevoked(ctx, v.JTI)
	if err != nil {
		return nil, fmt.Errorf("checking revocation list: %w", err)
	}
	if revoked {
		return nil, nil
	}

	user, err := s.userRepo.GetByID(ctx, v.UserID)
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}
	return user, nil
}

// Logout revokes the presented token until its natural expiry. It is
// idempotent and tolerant: a missing or invalid token is a no-op, and a
// revocation list fault is logged but does not fail the logout — the
// cookie is cleared by the handler regardless.
func (s *AuthService) Logout(ctx context.Context, tokenStr string) {
	if tokenStr == "" {
		return
	}

	v, err := s.issuer.Verify(tokenStr)
	if err != nil {
		return
	}

	// Deny the jti for exactly the token's remaining lifetime.
	if err := s.revoked.Revoke(ctx, v.JTI, v.ExpiresAt); err != nil {
		s.logger.Error("revoking session token", "error", err)
	}
}

func (s *AuthService) startSession(user *domain.SafeUser) (*Session, error) {
	tok, _, expiry, err := s.issuer.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issuing token: %w", err)
	}
	return &Session{User: user, Token: tok, Expiry: expiry}, nil
}
