package depot

import (
	"errors"
	"fmt"

	"filedepot/internal/storage"
)

var (
	// ErrMissingContent is returned when an upload carries no payload.
	ErrMissingContent = errors.New("no file content supplied")

	// ErrInvalidName is returned for filenames that cannot be stored.
	ErrInvalidName = storage.ErrInvalidName

	// ErrUnknownArea is returned for an area that is not registered.
	ErrUnknownArea = errors.New("unknown storage area")

	// ErrNotFound is returned when the addressed file does not exist.
	ErrNotFound = errors.New("file not found")
)

// OpError records a failed depot operation together with the file it
// addressed.
type OpError struct {
	Op   string
	Area string
	Name string
	Err  error
}

func (e *OpError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Area, e.Err)
	}
	return fmt.Sprintf("%s %s/%s: %v", e.Op, e.Area, e.Name, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// IsClientError reports whether err was caused by the request rather than by
// the server.
func IsClientError(err error) bool {
	return errors.Is(err, ErrMissingContent) || errors.Is(err, ErrInvalidName)
}
