package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrInvalidName is returned for filenames that cannot live flat inside an
// area: empty names, "." and "..", names containing a path separator or a NUL
// byte.
var ErrInvalidName = errors.New("invalid filename")

// Object is an open stored file.
type Object struct {
	Body    io.ReadSeekCloser
	Size    int64
	ModTime time.Time
}

// StorageEngine is the capability set the depot needs from a backing store.
// Files are addressed by area name and a flat filename. A missing file is
// reported with an error satisfying errors.Is(err, fs.ErrNotExist).
type StorageEngine interface {
	// EnsureArea makes sure the area can accept files. It must be idempotent
	// and must never alter files already stored in the area.
	EnsureArea(ctx context.Context, area string) error

	// Exists reports whether a file with the given name is present.
	Exists(ctx context.Context, area string, name string) (bool, error)

	// List returns the names of the files directly inside the area.
	List(ctx context.Context, area string) ([]string, error)

	// Open returns the stored file for reading.
	Open(ctx context.Context, area string, name string) (*Object, error)

	// PutFromFile stores the staged payload at tempPath under name. It never
	// replaces an existing file.
	PutFromFile(ctx context.Context, area string, name string, tempPath string, size int64) error

	// Rename moves oldName to newName within the area.
	Rename(ctx context.Context, area string, oldName string, newName string) error

	// Delete removes the named file.
	Delete(ctx context.Context, area string, name string) error
}
