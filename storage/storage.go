// Package storage wraps the MinIO client behind the small surface the video
// handlers need: upload, best-effort delete and presigned streaming URLs.
package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
)

// Store is a bucket-scoped blob store backed by MinIO.
type Store struct {
	client *minio.Client
	bucket string
}

func New(client *minio.Client, bucket string) *Store {
	return &Store{client: client, bucket: bucket}
}

// EnsureBucket creates the bucket if it does not exist yet.
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
		log.Printf("created bucket: %s", s.bucket)
	}
	return nil
}

// Upload streams an object into the bucket under the given key.
func (s *Store) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size,
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

// Remove deletes an object from the bucket.
func (s *Store) Remove(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s: %w", key, err)
	}
	return nil
}

// PresignedGet returns a time-limited browser-facing URL for an object.
func (s *Store) PresignedGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, key, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return BrowserURL(presigned.String())
}

// ObjectURL returns the stable browser path for an object.
// The reverse proxy rewrites /storage/{bucket}/{key} to the MinIO endpoint.
func (s *Store) ObjectURL(key string) string {
	return "/storage/" + s.bucket + "/" + key
}

// BrowserURL rewrites a presigned MinIO URL to the /storage path served by
// the reverse proxy, keeping the signature query intact.
func BrowserURL(presigned string) (string, error) {
	u, err := url.Parse(presigned)
	if err != nil || u.Path == "" {
		return "", fmt.Errorf("invalid presigned URL")
	}

	path := "/storage" + u.EscapedPath()
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return path, nil
}
