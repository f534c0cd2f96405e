package file

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIO provides an S3-compatible file storage.
// Paths are object names inside a single bucket.
type MinIO struct {
	client     *minio.Client
	bucketName string
}

// NewMinIO creates a MinIO storage connected to the specified server.
// If the bucket does not exist, it will be created automatically.
func NewMinIO(ctx context.Context, endpoint, accessKey, secretKey, bucketName string, useSSL bool) (*MinIO, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check if bucket exists: %w", err)
	}

	if !exists {
		if err := client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &MinIO{
		client:     client,
		bucketName: bucketName,
	}, nil
}

// Load returns a reader over the object at path.
func (s *MinIO) Load(ctx context.Context, path string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucketName, path, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to load object %s: %w", path, err)
	}

	// GetObject is lazy; Stat surfaces a missing object here instead of on first read.
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, fmt.Errorf("failed to load object %s: %w", path, err)
	}

	return obj, nil
}

// Save uploads src as the object at path, replacing any existing object.
// Returns the object name within the bucket.
func (s *MinIO) Save(ctx context.Context, path string, src io.Reader, contentType string) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := s.client.PutObject(ctx, s.bucketName, path, src, -1, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to save object %s: %w", path, err)
	}

	return path, nil
}
