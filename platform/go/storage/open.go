package storage

import (
	"context"
	"fmt"
	"strings"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// Backend names accepted by Open.
const (
	BackendGCS   = "gcs"
	BackendS3    = "s3"
	BackendLocal = "local"
)

// Config selects and configures a backend.
type Config struct {
	Backend       string
	LocalDir      string
	PublicBaseURL string
	S3            S3Config
	GCSOptions    []option.ClientOption
}

// Open builds the configured backend. The close func releases client resources.
func Open(ctx context.Context, cfg Config) (Blobs, func() error, error) {
	noop := func() error { return nil }

	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case BackendGCS:
		client, err := gcs.NewClient(ctx, cfg.GCSOptions...)
		if err != nil {
			return nil, noop, fmt.Errorf("create gcs client: %w", err)
		}
		return NewGCSStore(client, cfg.PublicBaseURL), client.Close, nil
	case BackendS3:
		if cfg.S3.PublicBaseURL == "" {
			cfg.S3.PublicBaseURL = cfg.PublicBaseURL
		}
		store, err := NewS3Store(ctx, cfg.S3)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil
	case BackendLocal, "":
		store, err := NewLocalStore(cfg.LocalDir, cfg.PublicBaseURL)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil
	default:
		return nil, noop, fmt.Errorf("unsupported storage backend %q", cfg.Backend)
	}
}
