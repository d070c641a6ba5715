package storage

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestResolveObjectLocation(t *testing.T) {
	t.Parallel()

	profileID := uuid.New()
	now := time.UnixMilli(1700000000123)

	loc, err := ResolveObjectLocation(DefaultBucket, profileID, FolderVideos, "First Dance.MP4", now)
	require.NoError(t, err)
	require.Equal(t, "mc-media", loc.Bucket)
	pattern := regexp.MustCompile(`^` + profileID.String() + `/videos/1700000000123-[0-9a-f]{12}\.mp4$`)
	require.Regexp(t, pattern, loc.Key)

	other, err := ResolveObjectLocation(DefaultBucket, profileID, FolderVideos, "First Dance.MP4", now)
	require.NoError(t, err)
	require.NotEqual(t, loc.Key, other.Key)
}

func TestResolveObjectLocationValidates(t *testing.T) {
	t.Parallel()

	_, err := ResolveObjectLocation(" ", uuid.New(), FolderGallery, "a.png", time.Now())
	require.ErrorIs(t, err, ErrInvalidLocation)

	_, err = ResolveObjectLocation("b", uuid.Nil, FolderGallery, "a.png", time.Now())
	require.ErrorIs(t, err, ErrInvalidLocation)

	_, err = ResolveObjectLocation("b", uuid.New(), Folder("avatars"), "a.png", time.Now())
	require.ErrorIs(t, err, ErrInvalidLocation)
}

func TestExtension(t *testing.T) {
	t.Parallel()

	require.Equal(t, "png", Extension("shot.PNG"))
	require.Equal(t, "bin", Extension("README"))
	require.Equal(t, "gz", Extension("archive.tar.gz"))
	require.Equal(t, "bin", Extension(""))
}

func TestLocalStorePutAndDelete(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store, err := NewLocalStore(root, "http://localhost:8080/media")
	require.NoError(t, err)
	require.NoError(t, store.Check(context.Background(), DefaultBucket))

	loc, err := ResolveObjectLocation(DefaultBucket, uuid.New(), FolderGallery, "photo.jpg", time.Now())
	require.NoError(t, err)

	url, err := store.Put(context.Background(), loc, "image/jpeg", strings.NewReader("jpeg-bytes"))
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8080/media/mc-media/"+loc.Key, url)

	data, err := os.ReadFile(filepath.Join(root, loc.Bucket, filepath.FromSlash(loc.Key)))
	require.NoError(t, err)
	require.Equal(t, "jpeg-bytes", string(data))

	require.NoError(t, store.Delete(context.Background(), loc))
	require.NoError(t, store.Delete(context.Background(), loc))

	_, err = store.Put(context.Background(), ObjectLocation{Bucket: "b", Key: "../escape"}, "", strings.NewReader("x"))
	require.ErrorIs(t, err, ErrInvalidLocation)
}

func TestS3PublicURL(t *testing.T) {
	t.Parallel()

	loc := ObjectLocation{Bucket: "mc-media", Key: "p/gallery/1-a.png"}

	require.Equal(t, "https://cdn.example.com/p/gallery/1-a.png", (&S3Store{publicBaseURL: "https://cdn.example.com/"}).PublicURL(loc))
	require.Equal(t, "http://minio:9000/mc-media/p/gallery/1-a.png", (&S3Store{endpoint: "http://minio:9000"}).PublicURL(loc))
	require.Equal(t, "https://mc-media.s3.eu-west-1.amazonaws.com/p/gallery/1-a.png", (&S3Store{region: "eu-west-1"}).PublicURL(loc))
}

func TestOpenLocalAndUnknown(t *testing.T) {
	t.Parallel()

	blobs, closeFn, err := Open(context.Background(), Config{Backend: "local", LocalDir: t.TempDir()})
	require.NoError(t, err)
	require.IsType(t, &LocalStore{}, blobs)
	require.NoError(t, closeFn())

	_, _, err = Open(context.Background(), Config{Backend: "ftp"})
	require.Error(t, err)
}
