package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/picshelf/picshelf/internal/domain"
	"github.com/picshelf/picshelf/internal/repository"
	"github.com/picshelf/picshelf/internal/storage"
)

// ErrNotAllowed is returned when a caller asks for images owned by a
// different account. There is no sharing model: owner-only access.
var ErrNotAllowed = errors.New("not allowed to access these images")

type ImageService struct {
	imageRepo repository.ImageRepository
	storage   storage.ImageStorage
}

func NewImageService(imageRepo repository.ImageRepository, storage storage.ImageStorage) *ImageService {
	return &ImageService{imageRepo: imageRepo, storage: storage}
}

// ListByOwner returns ownerID's images with presigned download URLs.
// callerID must equal ownerID.
func (s *ImageService) ListByOwner(ctx context.Context, callerID, ownerID uuid.UUID) ([]domain.Image, error) {
	if callerID != ownerID {
		return nil, ErrNotAllowed
	}

	images, err := s.imageRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing images: %w", err)
	}

	for i := range images {
		url, err := s.storage.PresignGet(ctx, images[i].Key)
		if err != nil {
			return nil, fmt.Errorf("presigning image %s: %w", images[i].ID, err)
		}
		images[i].URL = url
	}
	return images, nil
}

// RequestUpload reserves a storage key for a new image owned by ownerID,
// persists the record, and returns it with the URL to PUT the bytes to.
func (s *ImageService) RequestUpload(ctx context.Context, callerID, ownerID uuid.UUID) (*domain.Image, string, error) {
	if callerID != ownerID {
		return nil, "", ErrNotAllowed
	}

	key, uploadURL, err := s.storage.PresignPut(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("presigning upload: %w", err)
	}

	image := &domain.Image{
		ID:        uuid.New(),
		UserID:    ownerID,
		Key:       key,
		CreatedAt: time.Now(),
	}
	if err := s.imageRepo.Create(ctx, image); err != nil {
		return nil, "", fmt.Errorf("creating image record: %w", err)
	}

	return image, uploadURL, nil
}
