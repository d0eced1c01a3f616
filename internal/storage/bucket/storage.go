// Package bucket stores processed images in an S3-compatible bucket.
package bucket

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/aliskhannn/image-filter/internal/model"
)

// Storage provides an S3-compatible storage backend using MinIO.
// The dir argument of Save is used as the object key prefix.
type Storage struct {
	client     *minio.Client
	bucketName string
}

// NewStorage creates a new Storage instance connected to the specified MinIO server.
// If the bucket does not exist, it will be created automatically.
func NewStorage(ctx context.Context, endpoint, accessKey, secretKey, bucketName string, useSSL bool) (*Storage, error) {
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

	return &Storage{
		client:     client,
		bucketName: bucketName,
	}, nil
}

// ObjectName joins a key prefix and a file name with forward slashes.
func ObjectName(dir, filename string) string {
	return path.Join(filepath.ToSlash(dir), filename)
}

// Save uploads src as dir/filename and returns the object key. Without
// overwrite an existing object yields model.ErrDestinationExists.
func (s *Storage) Save(ctx context.Context, dir, filename string, src io.Reader, overwrite bool) (string, error) {
	objectName := ObjectName(dir, filename)

	if !overwrite {
		exists, err := s.exists(ctx, objectName)
		if err != nil {
			return "", err
		}
		if exists {
			return "", fmt.Errorf("%w: %s/%s", model.ErrDestinationExists, s.bucketName, objectName)
		}
	}

	_, err := s.client.PutObject(ctx, s.bucketName, objectName, src, -1, minio.PutObjectOptions{
		ContentType: contentType(filename),
	})
	if err != nil {
		return "", fmt.Errorf("%w: failed to save file: %v", model.ErrIO, err)
	}

	return objectName, nil
}

func (s *Storage) exists(ctx context.Context, objectName string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucketName, objectName, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}

	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return false, nil
	}

	return false, fmt.Errorf("%w: failed to stat object: %v", model.ErrIO, err)
}

func contentType(filename string) string {
	if ct := mime.TypeByExtension(filepath.Ext(filename)); ct != "" {
		return ct
	}

	return "application/octet-stream"
}
