// Package token issues and verifies the signed session tokens carried in
// the session cookie. Tokens are self-contained: user id, a jti used by
// the revocation list, and a fixed expiry from issuance.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalid covers malformed tokens, bad signatures and bad claims.
	ErrInvalid = errors.New("invalid session token")
	// ErrExpired is returned when the token's expiry has elapsed.
	ErrExpired = errors.New("session token expired")
)

type Claims struct {
	jwt.RegisteredClaims
}

// Issuer mints and verifies session tokens under a single HMAC secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl}
}

// Issue signs a token binding userID and an expiry ttl from now. The
// returned jti identifies the token on the revocation list.
func (i *Issuer) Issue(userID uuid.UUID) (token string, jti string, expiry time.Time, err error) {
	jti = uuid.NewString()
	expiry = time.Now().Add(i.ttl)

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiry),
		},
	})

	token, err = t.SignedString(i.secret)
	if err != nil {
		return "", "", time.Time{}, err
	}
	return token, jti, expiry, nil
}

// Verified is the decoded identity claim of a good token.
type Verified struct {
	UserID    uuid.UUID
	JTI       string
	ExpiresAt time.Time
}

// Verify checks signature and expiry and returns the decoded claim.
// Expired tokens yield ErrExpired; anything else wrong with the token
// yields ErrInvalid. Both mean "no session" to callers.
func (i *Issuer) Verify(tokenStr string) (*Verified, error) {
	claims := &Claims{}

	t, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalid
	}
	if !t.Valid {
		return nil, ErrInvalid
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalid
	}
	return &Verified{UserID: userID, JTI: claims.ID, ExpiresAt: claims.ExpiresAt.Time}, nil
}
