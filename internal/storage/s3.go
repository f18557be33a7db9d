// Package storage abstracts the image blob store. The application only
// ever hands out presigned URLs; bytes never pass through the server.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// ImageStorage is the external collaborator that holds image bytes.
type ImageStorage interface {
	// PresignPut returns a fresh storage key and a URL the client can
	// PUT the image bytes to.
	PresignPut(ctx context.Context) (key string, url string, err error)
	// PresignGet returns a short-lived download URL for key.
	PresignGet(ctx context.Context, key string) (string, error)
}

const presignExpiry = 15 * time.Minute

type S3Config struct {
	Region       string
	Bucket       string
	Endpoint     string
	AccessKey    string
	SecretAccess string
}

// S3Storage implements ImageStorage against S3 or any S3-compatible
// store (MinIO in development).
type S3Storage struct {
	cfg     S3Config
	presign *s3.PresignClient
}

func NewS3Storage(ctx context.Context, cfg S3Config) (*S3Storage, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey, cfg.SecretAccess, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Storage{cfg: cfg, presign: s3.NewPresignClient(client)}, nil
}

func storageKey() string {
	now := time.Now()
	return fmt.Sprintf("images/%d/%02d/%02d/%s", now.Year(), now.Month(), now.Day(), uuid.New())
}

func (s *S3Storage) PresignPut(ctx context.Context) (string, string, error) {
	key := storageKey()

	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", "", fmt.Errorf("presigning put: %w", err)
	}

	return key, req.URL, nil
}

func (s *S3Storage) PresignGet(ctx context.Context, key string) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", fmt.Errorf("presigning get: %w", err)
	}

	return req.URL, nil
}
