// Package storage puts uploaded media at profile-scoped keys and hands back
// the public URL pages embed.
package storage

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultBucket holds all tenant media unless STORAGE_BUCKET overrides it.
const DefaultBucket = "mc-media"

// Folder groups media under a profile prefix.
type Folder string

const (
	FolderGallery Folder = "gallery"
	FolderVideos  Folder = "videos"
	FolderReviews Folder = "reviews"
)

// ErrInvalidLocation reports a bucket/key pair that cannot be written.
var ErrInvalidLocation = errors.New("invalid object location")

// ObjectLocation describes where a blob lives.
type ObjectLocation struct {
	Bucket string
	Key    string
}

// Blobs is implemented by every backend.
type Blobs interface {
	Put(ctx context.Context, loc ObjectLocation, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, loc ObjectLocation) error
	Check(ctx context.Context, bucket string) error
}

// ResolveObjectLocation builds "<profileId>/<folder>/<unix-millis>-<hex>.<ext>".
// The extension comes from the uploaded file name and defaults to "bin".
func ResolveObjectLocation(bucket string, profileID uuid.UUID, folder Folder, filename string, now time.Time) (ObjectLocation, error) {
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return ObjectLocation{}, fmt.Errorf("%w: bucket is required", ErrInvalidLocation)
	}
	if profileID == uuid.Nil {
		return ObjectLocation{}, fmt.Errorf("%w: profile id is required", ErrInvalidLocation)
	}
	switch folder {
	case FolderGallery, FolderVideos, FolderReviews:
	default:
		return ObjectLocation{}, fmt.Errorf("%w: unknown folder %q", ErrInvalidLocation, folder)
	}

	suffix, err := randomSuffix()
	if err != nil {
		return ObjectLocation{}, err
	}

	key := fmt.Sprintf("%s/%s/%d-%s.%s", profileID, folder, now.UnixMilli(), suffix, Extension(filename))
	return ObjectLocation{Bucket: bucket, Key: key}, nil
}

// Extension returns the lowercased extension of filename without the dot.
func Extension(filename string) string {
	ext := strings.TrimPrefix(path.Ext(strings.TrimSpace(filename)), ".")
	ext = strings.ToLower(ext)
	if ext == "" || strings.ContainsAny(ext, `/\ `) {
		return "bin"
	}
	return ext
}

func randomSuffix() (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate object suffix: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func validate(loc ObjectLocation) error {
	if strings.TrimSpace(loc.Bucket) == "" || strings.TrimSpace(loc.Key) == "" {
		return ErrInvalidLocation
	}
	if strings.Contains(loc.Key, "..") || strings.HasPrefix(loc.Key, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidLocation, loc.Key)
	}
	return nil
}

func joinURL(base string, parts ...string) string {
	out := strings.TrimRight(base, "/")
	for _, p := range parts {
		out += "/" + strings.Trim(p, "/")
	}
	return out
}
