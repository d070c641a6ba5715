package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalStore writes media below a directory. Used for development and tests.
type LocalStore struct {
	root          string
	publicBaseURL string
}

func NewLocalStore(root, publicBaseURL string) (*LocalStore, error) {
	if root == "" {
		return nil, errors.New("local storage directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	if publicBaseURL == "" {
		publicBaseURL = "/media"
	}
	return &LocalStore{root: root, publicBaseURL: publicBaseURL}, nil
}

// Root is the directory served under the public base URL.
func (s *LocalStore) Root() string {
	return s.root
}

func (s *LocalStore) Put(ctx context.Context, loc ObjectLocation, contentType string, body io.Reader) (string, error) {
	if err := validate(loc); err != nil {
		return "", err
	}
	target := s.path(loc)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create object dir: %w", err)
	}

	f, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("create object %s: %w", loc.Key, err)
	}
	if _, err := io.Copy(f, body); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write object %s: %w", loc.Key, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close object %s: %w", loc.Key, err)
	}

	return joinURL(s.publicBaseURL, loc.Bucket, loc.Key), nil
}

func (s *LocalStore) Delete(ctx context.Context, loc ObjectLocation) error {
	if err := validate(loc); err != nil {
		return err
	}
	if err := os.Remove(s.path(loc)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete object %s: %w", loc.Key, err)
	}
	return nil
}

func (s *LocalStore) Check(ctx context.Context, bucket string) error {
	info, err := os.Stat(s.root)
	if err != nil {
		return fmt.Errorf("stat storage dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("storage path %s is not a directory", s.root)
	}
	return nil
}

func (s *LocalStore) path(loc ObjectLocation) string {
	return filepath.Join(s.root, loc.Bucket, filepath.FromSlash(loc.Key))
}

var _ Blobs = (*LocalStore)(nil)
