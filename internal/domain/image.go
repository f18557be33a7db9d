package domain

import (
	"time"

	"github.com/google/uuid"
)

// Image is a stored image record. Key is the blob storage key and stays
// server-side; clients get a short-lived presigned URL instead.
type Image struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	Key       string    `json:"-"`
	URL       string    `json:"url,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
