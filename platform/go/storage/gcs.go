package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// GCSStore writes media to Google Cloud Storage.
type GCSStore struct {
	client        *gcs.Client
	publicBaseURL string
}

// NewGCSStore wraps client. Objects are served from publicBaseURL, or the
// storage.googleapis.com host when empty.
func NewGCSStore(client *gcs.Client, publicBaseURL string) *GCSStore {
	if client == nil {
		panic("storage client is required")
	}
	if publicBaseURL == "" {
		publicBaseURL = "https://storage.googleapis.com"
	}
	return &GCSStore{client: client, publicBaseURL: publicBaseURL}
}

func (s *GCSStore) Put(ctx context.Context, loc ObjectLocation, contentType string, body io.Reader) (string, error) {
	if err := validate(loc); err != nil {
		return "", err
	}

	w := s.client.Bucket(loc.Bucket).Object(loc.Key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, body); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write gcs object %s: %w", loc.Key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize gcs object %s: %w", loc.Key, err)
	}

	return joinURL(s.publicBaseURL, loc.Bucket, loc.Key), nil
}

func (s *GCSStore) Delete(ctx context.Context, loc ObjectLocation) error {
	if err := validate(loc); err != nil {
		return err
	}
	err := s.client.Bucket(loc.Bucket).Object(loc.Key).Delete(ctx)
	if err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
		return fmt.Errorf("delete gcs object %s: %w", loc.Key, err)
	}
	return nil
}

// Check lists at most one object to verify read access to bucket.
func (s *GCSStore) Check(ctx context.Context, bucket string) error {
	it := s.client.Bucket(bucket).Objects(ctx, &gcs.Query{})
	if _, err := it.Next(); err != nil && !errors.Is(err, iterator.Done) {
		return fmt.Errorf("list gcs bucket %s: %w", bucket, err)
	}
	return nil
}

var _ Blobs = (*GCSStore)(nil)
