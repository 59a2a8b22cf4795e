package server

import "filedepot/internal/depot"

// FileField is the multipart form field carrying an upload.
const FileField = "file"

// Error codes carried by MessageResponse.Code.
const (
	CodeMissingContent = "missing_content"
	CodeInvalidName    = "invalid_name"
	CodeInvalidRequest = "invalid_request"
	CodeUnknownArea    = "unknown_area"
	CodeNotFound       = "not_found"
	CodeTooLarge       = "too_large"
	CodeDisabled       = "disabled"
	CodeInternal       = "internal_error"
)

// MessageResponse is the body of every error and of successful deletes.
// Errors also carry a stable Code.
type MessageResponse struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// UploadResponse is returned by POST /{area}.
type UploadResponse struct {
	Message  string `json:"message"`
	Filename string `json:"filename"`
}

// RenameRequest is the body of PUT /{area}/{filename}.
type RenameRequest struct {
	NewFilename string `json:"newFilename"`
}

// RenameResponse is returned by PUT /{area}/{filename}.
type RenameResponse struct {
	Message     string `json:"message"`
	NewFilename string `json:"newFilename"`
}

// HealthResponse is returned by GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

// JournalResponse is returned by GET /_journal.
type JournalResponse struct {
	Events []depot.Event `json:"events"`
}
