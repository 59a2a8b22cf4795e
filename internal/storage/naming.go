package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// MaxNameAttempts bounds the number of disambiguated candidates UniqueName
// tries before giving up.
const MaxNameAttempts = 10000

// ErrNoFreeName is returned when every candidate up to MaxNameAttempts is
// already taken.
var ErrNoFreeName = errors.New("no free filename")

// CleanName reduces a client supplied filename to its final path element and
// validates it. Browsers on some platforms send full paths for file inputs.
func CleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	if err := ValidateName(name); err != nil {
		return "", err
	}
	return name, nil
}

// ValidateName checks that name can be stored as a flat file.
func ValidateName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidName, name)
	case strings.ContainsRune(name, 0):
		return fmt.Errorf("%w: %q contains a NUL byte", ErrInvalidName, name)
	case name != filepath.Base(name):
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// SplitName splits name into a stem and an extension. The extension starts at
// the last dot; a dot in first position does not start one, so ".env" has no
// extension.
func SplitName(name string) (stem string, ext string) {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 {
		return name, ""
	}
	return name[:i], name[i:]
}

// UniqueName returns requested if exists reports it free, otherwise the first
// free "stem (n).ext" for n counting up from 1. Counting always restarts at 1,
// so a number freed by a delete is handed out again.
//
// The result is only free at the time of the call; callers that need the
// name to stay free must hold a lock around UniqueName and the write.
func UniqueName(requested string, exists func(name string) (bool, error)) (string, error) {
	taken, err := exists(requested)
	if err != nil {
		return "", err
	}
	if !taken {
		return requested, nil
	}

	stem, ext := SplitName(requested)
	for n := 1; n <= MaxNameAttempts; n++ {
		candidate := fmt.Sprintf("%s (%d)%s", stem, n, ext)
		taken, err := exists(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%w for %q after %d attempts", ErrNoFreeName, requested, MaxNameAttempts)
}
