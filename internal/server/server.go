package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"slices"
	"strconv"

	"filedepot/internal/depot"
)

// DefaultMaxUploadBytes is used when Config.MaxUploadBytes is not set.
const DefaultMaxUploadBytes = 32 << 20

// reservedPaths are first path segments routed to something other than an
// area.
var reservedPaths = []string{"ui", "healthz", "_journal"}

// EventLister reads back journaled events.
type EventLister interface {
	Recent(ctx context.Context, area string, limit int) ([]depot.Event, error)
}

type Config struct {
	Service        *depot.Service
	MaxUploadBytes int64
	// Events serves GET /_journal; nil disables the endpoint.
	Events EventLister
}

// Server exposes a depot.Service over HTTP.
type Server struct {
	cfg Config
}

// NewServer returns a new Server for cfg.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Service == nil {
		return nil, errors.New("Service must not be nil")
	}

	for _, a := range cfg.Service.Areas() {
		if slices.Contains(reservedPaths, a.Name) {
			return nil, fmt.Errorf("area name %q is reserved", a.Name)
		}
	}

	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}

	return &Server{cfg: cfg}, nil
}

// writeJSON encodes v as JSON with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("Encode JSON response", "err", err)
	}
}

// writeMessage writes a {"message": ...} body. code is empty for successes.
func writeMessage(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, MessageResponse{Code: code, Message: message})
}

// classifyError maps a depot error onto a status code, an error code and a
// message that is safe to show to the caller.
func classifyError(err error) (int, string, string) {
	var maxErr *http.MaxBytesError

	switch {
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge, CodeTooLarge, fmt.Sprintf("File too large (limit %d bytes)", maxErr.Limit)
	case errors.Is(err, depot.ErrMissingContent):
		return http.StatusBadRequest, CodeMissingContent, "No file uploaded"
	case errors.Is(err, depot.ErrInvalidName):
		return http.StatusBadRequest, CodeInvalidName, "Invalid filename"
	case errors.Is(err, depot.ErrUnknownArea):
		return http.StatusNotFound, CodeUnknownArea, "Unknown storage area"
	case errors.Is(err, depot.ErrNotFound):
		return http.StatusNotFound, CodeNotFound, "File not found"
	}

	var opErr *depot.OpError
	if errors.As(err, &opErr) {
		switch opErr.Op {
		case "list":
			return http.StatusInternalServerError, CodeInternal, "Unable to scan directory"
		case "fetch":
			return http.StatusInternalServerError, CodeInternal, "Error reading file"
		default:
			return http.StatusInternalServerError, CodeInternal, fmt.Sprintf("Error during %s", opErr.Op)
		}
	}

	return http.StatusInternalServerError, CodeInternal, "Internal server error"
}

// writeError logs err and writes the matching JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message := classifyError(err)
	if status >= 500 {
		slog.Error("Request failed", "method", r.Method, "path", r.URL.Path, "request_id", depot.RequestID(r.Context()), "err", err)
	} else {
		slog.Debug("Request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "err", err)
	}
	writeMessage(w, status, code, message)
}

// checkArea writes a 404 and returns false if area is not registered.
func (s *Server) checkArea(w http.ResponseWriter, r *http.Request, area string) bool {
	if _, ok := s.cfg.Service.Area(area); !ok {
		writeError(w, r, fmt.Errorf("%w: %q", depot.ErrUnknownArea, area))
		return false
	}
	return true
}

// uploadFromRequest streams the first file part of a multipart request into
// area. The request body is capped at MaxUploadBytes.
func (s *Server) uploadFromRequest(ctx context.Context, w http.ResponseWriter, r *http.Request, area string) (string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	mr, err := r.MultipartReader()
	if err != nil {
		return "", fmt.Errorf("%w: %w", depot.ErrMissingContent, err)
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return "", depot.ErrMissingContent
		}
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				return "", err
			}
			return "", fmt.Errorf("%w: %w", depot.ErrMissingContent, err)
		}

		if !partIsFile(part) {
			_ = part.Close()
			continue
		}

		name, err := s.cfg.Service.Upload(ctx, area, part.FileName(), part)
		_ = part.Close()
		return name, err
	}
}

// handleAreas implements GET / listing the storage areas.
func (s *Server) handleAreas(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cfg.Service.Areas())
}

// handleHealth implements GET /healthz.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// handleUpload implements POST /{area}.
func (s *Server) handleUpload(ctx context.Context, w http.ResponseWriter, r *http.Request, area string) {
	if !s.checkArea(w, r, area) {
		return
	}

	name, err := s.uploadFromRequest(ctx, w, r, area)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, UploadResponse{
		Message:  "File uploaded successfully",
		Filename: name,
	})
}

// handleList implements GET /{area}.
func (s *Server) handleList(ctx context.Context, w http.ResponseWriter, r *http.Request, area string) {
	names, err := s.cfg.Service.List(ctx, area)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, names)
}

// handleFetch implements GET /{area}/{filename}, streaming the stored bytes.
func (s *Server) handleFetch(ctx context.Context, w http.ResponseWriter, r *http.Request, area string, name string) {
	obj, err := s.cfg.Service.Open(ctx, area, name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer obj.Body.Close()

	// Files are always served whole.
	r.Header.Del("Range")
	r.Header.Del("If-Range")

	w.Header().Set("X-Content-Type-Options", "nosniff")
	http.ServeContent(w, r, name, obj.ModTime, obj.Body)
}

// handleRename implements PUT /{area}/{filename} with a JSON RenameRequest.
func (s *Server) handleRename(ctx context.Context, w http.ResponseWriter, r *http.Request, area string, name string) {
	if !s.checkArea(w, r, area) {
		return
	}

	var req RenameRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 64<<10)).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, CodeInvalidRequest, "Invalid request body")
		return
	}

	newName, err := s.cfg.Service.Rename(ctx, area, name, req.NewFilename)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, RenameResponse{
		Message:     "File renamed successfully",
		NewFilename: newName,
	})
}

// handleDelete implements DELETE /{area}/{filename}.
func (s *Server) handleDelete(ctx context.Context, w http.ResponseWriter, r *http.Request, area string, name string) {
	if err := s.cfg.Service.Delete(ctx, area, name); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "", "File deleted successfully")
}

// handleJournal implements GET /_journal?area=&limit=.
func (s *Server) handleJournal(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	if s.cfg.Events == nil {
		writeMessage(w, http.StatusNotFound, CodeDisabled, "Journal is disabled")
		return
	}

	q := r.URL.Query()
	area := q.Get("area")
	if area != "" && !s.checkArea(w, r, area) {
		return
	}

	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 1000 {
			writeMessage(w, http.StatusBadRequest, CodeInvalidRequest, "The limit query parameter is invalid")
			return
		}
		limit = n
	}

	events, err := s.cfg.Events.Recent(ctx, area, limit)
	if err != nil {
		slog.Error("Read journal", "area", area, "err", err)
		writeMessage(w, http.StatusInternalServerError, CodeInternal, "Unable to read journal")
		return
	}

	writeJSON(w, http.StatusOK, JournalResponse{Events: events})
}

// partIsFile reports whether a multipart part carries a file upload.
func partIsFile(p *multipart.Part) bool {
	return p.FormName() == FileField && p.FileName() != ""
}
