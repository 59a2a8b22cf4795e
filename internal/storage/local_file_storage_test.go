package storage_test

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"filedepot/internal/storage"

	"github.com/stretchr/testify/require"
)

// stage writes payload to a temp file outside the storage root and returns
// its path.
func stage(t *testing.T, payload []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "staged")
	require.NoError(t, os.WriteFile(path, payload, 0o644), "writing staged file")
	return path
}

func TestLocalFileStorageEnsureAreaIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dataDir := t.TempDir()
	engine := storage.NewLocalFileStorage(dataDir)

	require.NoError(t, engine.EnsureArea(ctx, "files"), "first EnsureArea")

	existing := filepath.Join(dataDir, "files", "keep.txt")
	require.NoError(t, os.WriteFile(existing, []byte("keep"), 0o644))

	require.NoError(t, engine.EnsureArea(ctx, "files"), "second EnsureArea")

	data, err := os.ReadFile(existing)
	require.NoError(t, err, "existing file should survive bootstrap")
	require.Equal(t, "keep", string(data))
}

func TestLocalFileStoragePutAndOpen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dataDir := t.TempDir()
	engine := storage.NewLocalFileStorage(dataDir)
	require.NoError(t, engine.EnsureArea(ctx, "files"))

	payload := []byte("hello local storage")
	tempPath := stage(t, payload)

	require.NoError(t, engine.PutFromFile(ctx, "files", "hello.txt", tempPath, int64(len(payload))), "PutFromFile error")

	_, err := os.Stat(tempPath)
	require.True(t, os.IsNotExist(err), "staged file should be consumed")

	info, err := os.Stat(filepath.Join(dataDir, "files", "hello.txt"))
	require.NoError(t, err, "expected file to exist")
	require.False(t, info.IsDir(), "stored path should be a file")

	obj, err := engine.Open(ctx, "files", "hello.txt")
	require.NoError(t, err, "Open error")
	defer obj.Body.Close()

	got, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	require.Equal(t, payload, got, "payload mismatch")
	require.Equal(t, int64(len(payload)), obj.Size)
}

func TestLocalFileStoragePutNeverOverwrites(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dataDir := t.TempDir()
	engine := storage.NewLocalFileStorage(dataDir)
	require.NoError(t, engine.EnsureArea(ctx, "files"))

	require.NoError(t, engine.PutFromFile(ctx, "files", "a.txt", stage(t, []byte("first")), 5))

	err := engine.PutFromFile(ctx, "files", "a.txt", stage(t, []byte("second")), 6)
	require.ErrorIs(t, err, fs.ErrExist)

	data, err := os.ReadFile(filepath.Join(dataDir, "files", "a.txt"))
	require.NoError(t, err)
	require.Equal(t, "first", string(data), "original content must be untouched")
}

func TestLocalFileStorageExistsAndList(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dataDir := t.TempDir()
	engine := storage.NewLocalFileStorage(dataDir)
	require.NoError(t, engine.EnsureArea(ctx, "forms"))

	ok, err := engine.Exists(ctx, "forms", "sig.png")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, engine.PutFromFile(ctx, "forms", "sig.png", stage(t, []byte("png")), 3))
	require.NoError(t, os.Mkdir(filepath.Join(dataDir, "forms", "nested"), 0o755))

	ok, err = engine.Exists(ctx, "forms", "sig.png")
	require.NoError(t, err)
	require.True(t, ok)

	// A directory still blocks the name even though it is not listed.
	ok, err = engine.Exists(ctx, "forms", "nested")
	require.NoError(t, err)
	require.True(t, ok)

	names, err := engine.List(ctx, "forms")
	require.NoError(t, err)
	require.Equal(t, []string{"sig.png"}, names)
}

func TestLocalFileStorageListMissingArea(t *testing.T) {
	t.Parallel()

	engine := storage.NewLocalFileStorage(t.TempDir())

	_, err := engine.List(context.Background(), "avatars")
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestLocalFileStorageRename(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dataDir := t.TempDir()
	engine := storage.NewLocalFileStorage(dataDir)
	require.NoError(t, engine.EnsureArea(ctx, "files"))

	require.NoError(t, engine.PutFromFile(ctx, "files", "a.txt", stage(t, []byte("A")), 1))
	require.NoError(t, engine.PutFromFile(ctx, "files", "b.txt", stage(t, []byte("B")), 1))

	err := engine.Rename(ctx, "files", "a.txt", "b.txt")
	require.ErrorIs(t, err, fs.ErrExist, "rename must not replace an existing file")

	require.NoError(t, engine.Rename(ctx, "files", "a.txt", "c.txt"))

	names, err := engine.List(ctx, "files")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"b.txt", "c.txt"}, names)

	err = engine.Rename(ctx, "files", "missing.txt", "d.txt")
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestLocalFileStorageDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	engine := storage.NewLocalFileStorage(t.TempDir())
	require.NoError(t, engine.EnsureArea(ctx, "files"))

	require.NoError(t, engine.PutFromFile(ctx, "files", "a.txt", stage(t, []byte("A")), 1))
	require.NoError(t, engine.Delete(ctx, "files", "a.txt"))

	_, err := engine.Open(ctx, "files", "a.txt")
	require.ErrorIs(t, err, fs.ErrNotExist)

	err = engine.Delete(ctx, "files", "a.txt")
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestLocalFileStorageRejectsTraversal(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	engine := storage.NewLocalFileStorage(t.TempDir())

	_, err := engine.FilePath("files", "../secret")
	require.ErrorIs(t, err, storage.ErrInvalidName)

	_, err = engine.Open(ctx, "..", "secret")
	require.ErrorIs(t, err, storage.ErrInvalidName)

	err = engine.EnsureArea(ctx, "a/b")
	require.ErrorIs(t, err, storage.ErrInvalidName)
}

func TestPlaceFileMovesPayload(t *testing.T) {
	t.Parallel()

	src := stage(t, []byte("payload"))
	dest := filepath.Join(t.TempDir(), "dest")

	require.NoError(t, storage.PlaceFile(src, dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, "payload", string(data))

	_, err = os.Stat(src)
	require.True(t, os.IsNotExist(err), "source should be removed after placing")
}
