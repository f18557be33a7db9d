package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is the full identity record as stored. The password hash never
// leaves the repository layer except through the login lookup, and is
// excluded from JSON regardless.
type User struct {
	ID              uuid.UUID `json:"id"`
	Username        string    `json:"username"`
	ProfileImageURL *string   `json:"profileImageUrl,omitempty"`
	PasswordHash    string    `json:"-"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// SafeUser is the projection exposed to clients. It has no hash field at
// all, so leaking credentials through this type is a compile error, not
// a serialization accident.
type SafeUser struct {
	ID              uuid.UUID `json:"id"`
	Username        string    `json:"username"`
	ProfileImageURL *string   `json:"profileImageUrl"`
}

// Safe returns the externally visible projection of u.
func (u *User) Safe() *SafeUser {
	return &SafeUser{
		ID:              u.ID,
		Username:        u.Username,
		ProfileImageURL: u.ProfileImageURL,
	}
}
