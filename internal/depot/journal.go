package depot

import (
	"context"
	"time"
)

// Operation names recorded in events.
const (
	OpUpload = "upload"
	OpRename = "rename"
	OpDelete = "delete"
)

// Event describes one completed mutation of an area.
type Event struct {
	ID        int64     `json:"id"`
	At        time.Time `json:"at"`
	Area      string    `json:"area"`
	Op        string    `json:"op"`
	Name      string    `json:"name"`
	NewName   string    `json:"newName,omitempty"`
	Size      int64     `json:"size,omitempty"`
	RequestID string    `json:"requestId,omitempty"`
}

// Journal receives an Event after every successful upload, rename and
// delete. It is an audit trail only; listing and existence checks never
// consult it.
type Journal interface {
	Record(ctx context.Context, e Event) error
}

type requestIDKey struct{}

// WithRequestID returns a context carrying the request id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request id carried by ctx, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
