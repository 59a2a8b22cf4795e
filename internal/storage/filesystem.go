package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"syscall"
)

// copyFileExclusive copies srcPath to destPath, failing with fs.ErrExist if
// destPath is already present. A partially written destination is removed.
func copyFileExclusive(srcPath string, destPath string) error {
	srcFile, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	destFile, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}

	if _, err := destFile.ReadFrom(srcFile); err != nil {
		_ = destFile.Close()
		_ = os.Remove(destPath)
		return err
	}

	if err := destFile.Sync(); err != nil {
		_ = destFile.Close()
		_ = os.Remove(destPath)
		return err
	}

	return destFile.Close()
}

// PlaceFile moves the file at srcPath to destPath without ever replacing an
// existing destination. It hard links the payload into place and drops the
// source name; when linking is not possible (another filesystem, or a
// filesystem without hard links) it falls back to an exclusive copy.
func PlaceFile(srcPath string, destPath string) error {
	if srcPath == destPath {
		return nil
	}

	err := os.Link(srcPath, destPath)
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrExist):
		return fmt.Errorf("place %s: %w", destPath, fs.ErrExist)
	default:
		// EXDEV is the common case here: a staging directory mounted on
		// another volume than the storage root.
		var linkErr *os.LinkError
		if errors.As(err, &linkErr) && linkErr.Err != syscall.EXDEV {
			slog.Debug("Hard link failed, copying instead", "src", srcPath, "dest", destPath, "err", err)
		}
		if copyErr := copyFileExclusive(srcPath, destPath); copyErr != nil {
			return copyErr
		}
	}

	// Best-effort cleanup of the source file; ignore ENOENT in case
	// it was moved or removed already.
	if rmErr := os.Remove(srcPath); rmErr != nil && !os.IsNotExist(rmErr) {
		return rmErr
	}
	return nil
}
