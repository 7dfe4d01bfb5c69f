package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
)

// GCSConfig captures the parameters required to connect to GCS.
type GCSConfig struct {
	Bucket string
}

// GCSStore writes uploads to a configured GCS bucket.
type GCSStore struct {
	client *storage.Client
	bucket string
}

// NewGCSStore creates a GCS-backed blob store.
func NewGCSStore(client *storage.Client, cfg GCSConfig) (*GCSStore, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	return &GCSStore{
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

// Put uploads data to the configured bucket and returns the gs:// path plus
// the public object URL.
func (s *GCSStore) Put(ctx context.Context, name, contentType string, data []byte) (string, string, error) {
	if strings.TrimSpace(name) == "" {
		return "", "", fmt.Errorf("name is required")
	}
	writer := s.client.Bucket(s.bucket).Object(name).NewWriter(ctx)
	if contentType != "" {
		writer.ContentType = contentType
	}
	if _, err := io.Copy(writer, bytes.NewReader(data)); err != nil {
		closeErr := writer.Close()
		if closeErr != nil {
			return "", "", fmt.Errorf("copy object: %w (close writer: %v)", err, closeErr)
		}
		return "", "", fmt.Errorf("copy object: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", "", fmt.Errorf("close writer: %w", err)
	}
	storedPath := fmt.Sprintf("gs://%s/%s", s.bucket, name)
	publicURL := fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, name)
	return storedPath, publicURL, nil
}

// Delete removes an object from the bucket.
func (s *GCSStore) Delete(ctx context.Context, name string) error {
	if err := s.client.Bucket(s.bucket).Object(name).Delete(ctx); err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}
