package storage

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalFileStorage is a StorageEngine implementation that keeps each area as
// a flat directory under dataDir. A stored file lives at
// <dataDir>/<area>/<name>; the directory listing is the only index.
type LocalFileStorage struct {
	dataDir string
}

// NewLocalFileStorage creates a new LocalFileStorage rooted at dataDir.
func NewLocalFileStorage(dataDir string) *LocalFileStorage {
	return &LocalFileStorage{dataDir: dataDir}
}

// AreaDir returns the directory backing the given area.
func (s *LocalFileStorage) AreaDir(area string) string {
	return filepath.Join(s.dataDir, area)
}

// FilePath computes the full filesystem path for name within area.
func (s *LocalFileStorage) FilePath(area string, name string) (string, error) {
	if err := ValidateName(area); err != nil {
		return "", fmt.Errorf("area: %w", err)
	}
	if err := ValidateName(name); err != nil {
		return "", err
	}
	return filepath.Join(s.dataDir, area, name), nil
}

func (s *LocalFileStorage) EnsureArea(_ context.Context, area string) error {
	if err := ValidateName(area); err != nil {
		return fmt.Errorf("area: %w", err)
	}
	return os.MkdirAll(s.AreaDir(area), 0o755)
}

func (s *LocalFileStorage) Exists(_ context.Context, area string, name string) (bool, error) {
	path, err := s.FilePath(area, name)
	if err != nil {
		return false, err
	}

	// Any entry blocks the name, including directories and dangling links
	// created behind our back.
	if _, err := os.Lstat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *LocalFileStorage) List(_ context.Context, area string) ([]string, error) {
	if err := ValidateName(area); err != nil {
		return nil, fmt.Errorf("area: %w", err)
	}

	entries, err := os.ReadDir(s.AreaDir(area))
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

func (s *LocalFileStorage) Open(_ context.Context, area string, name string) (*Object, error) {
	path, err := s.FilePath(area, name)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if !info.Mode().IsRegular() {
		_ = f.Close()
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}

	return &Object{Body: f, Size: info.Size(), ModTime: info.ModTime()}, nil
}

// PutFromFile moves the staged payload into the area. The size is not needed
// locally; the staged file already has it.
func (s *LocalFileStorage) PutFromFile(_ context.Context, area string, name string, tempPath string, _ int64) error {
	path, err := s.FilePath(area, name)
	if err != nil {
		return err
	}
	return PlaceFile(tempPath, path)
}

func (s *LocalFileStorage) Rename(_ context.Context, area string, oldName string, newName string) error {
	oldPath, err := s.FilePath(area, oldName)
	if err != nil {
		return err
	}
	newPath, err := s.FilePath(area, newName)
	if err != nil {
		return err
	}

	if oldPath == newPath {
		return nil
	}

	// os.Rename silently replaces the target on POSIX systems.
	if _, err := os.Lstat(newPath); err == nil {
		return &os.LinkError{Op: "rename", Old: oldPath, New: newPath, Err: fs.ErrExist}
	}

	return os.Rename(oldPath, newPath)
}

func (s *LocalFileStorage) Delete(_ context.Context, area string, name string) error {
	path, err := s.FilePath(area, name)
	if err != nil {
		return err
	}
	return os.Remove(path)
}
