package blob

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/princekumarofficial/ingest-service/internal/config"
)

// Service stores file bytes in MinIO and hands out signed GET URLs.
type Service struct {
	client  *minio.Client
	buckets []string
	region  string
}

// NewService creates a MinIO client for the configured endpoint. It does not
// touch the network; call EnsureBuckets before serving traffic.
func NewService(cfg config.MinIO) (*Service, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &Service{
		client:  client,
		buckets: []string{cfg.RawBucket, cfg.ProcessedBucket},
		region:  cfg.Region,
	}, nil
}

// EnsureBuckets creates the raw and processed buckets if they don't exist.
func (s *Service) EnsureBuckets(ctx context.Context) error {
	for _, name := range s.buckets {
		exists, err := s.client.BucketExists(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to check if bucket %s exists: %w", name, err)
		}
		if exists {
			continue
		}
		if err := s.client.MakeBucket(ctx, name, minio.MakeBucketOptions{Region: s.region}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", name, err)
		}
	}
	return nil
}

// Put uploads data under key.
func (s *Service) Put(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", bucket, key, err)
	}
	return nil
}

// Remove deletes an object. Missing objects are not an error.
func (s *Service) Remove(ctx context.Context, bucket, key string) error {
	return s.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{})
}

// SignedURL returns a presigned GET URL valid for ttl.
func (s *Service) SignedURL(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, bucket, key, ttl, nil)
	if err != nil {
		return "", fmt.Errorf("presign %s/%s: %w", bucket, key, err)
	}
	return u.String(), nil
}

// Ping checks that the processed bucket is reachable.
func (s *Service) Ping(ctx context.Context) error {
	name := s.buckets[len(s.buckets)-1]
	ok, err := s.client.BucketExists(ctx, name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("bucket %s does not exist", name)
	}
	return nil
}
