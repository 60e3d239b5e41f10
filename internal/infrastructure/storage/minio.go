package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"product-importer-backend/internal/config"
)

// MinIOFileSource stores uploaded CSV files in a MinIO bucket.
// Used when multiple API/worker instances don't share a filesystem.
type MinIOFileSource struct {
	client *minio.Client
	bucket string
}

func NewMinIOFileSource(cfg config.MinIOConfig) (*MinIOFileSource, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &MinIOFileSource{client: client, bucket: cfg.Bucket}, nil
}

var _ FileSource = (*MinIOFileSource)(nil)

func (s *MinIOFileSource) Save(ctx context.Context, key string, r io.Reader, maxSize int64) (int64, error) {
	src := r
	if maxSize > 0 {
		src = io.LimitReader(r, maxSize+1)
	}

	// Size -1 lets minio-go stream with multipart upload.
	info, err := s.client.PutObject(ctx, s.bucket, key, src, -1, minio.PutObjectOptions{
		ContentType: "text/csv",
	})
	if err != nil {
		return 0, fmt.Errorf("failed to upload to minio: %w", err)
	}

	if maxSize > 0 && info.Size > maxSize {
		s.Remove(ctx, key)
		return 0, ErrFileTooLarge
	}

	return info.Size, nil
}

func (s *MinIOFileSource) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	object, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", key, err)
	}

	// GetObject is lazy; probe so a missing key surfaces here, not mid-read.
	if _, err := object.Stat(); err != nil {
		object.Close()
		var resp minio.ErrorResponse
		if errors.As(err, &resp) && resp.Code == "NoSuchKey" {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to stat object %s: %w", key, err)
	}

	return object, nil
}

func (s *MinIOFileSource) Remove(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}
