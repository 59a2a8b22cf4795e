package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"filedepot/internal/depot"
	"filedepot/internal/ui"

	"github.com/a-h/templ"
)

// render writes a templ component as an HTML page.
func render(ctx context.Context, w http.ResponseWriter, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.Render(ctx, w); err != nil {
		slog.Error("Render page", "err", err)
	}
}

// uiError reports err as a plain text response for browser clients.
func uiError(w http.ResponseWriter, r *http.Request, err error) {
	status, _, message := classifyError(err)
	if status >= 500 {
		slog.Error("UI request failed", "method", r.Method, "path", r.URL.Path, "request_id", depot.RequestID(r.Context()), "err", err)
	}
	http.Error(w, message, status)
}

// redirectToArea sends the browser back to the area page with a flash message.
func redirectToArea(w http.ResponseWriter, r *http.Request, area string, flash string) {
	target := "/ui/" + url.PathEscape(area) + "?msg=" + url.QueryEscape(flash)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (s *Server) handleUIAreas(w http.ResponseWriter, r *http.Request) {
	areas := s.cfg.Service.Areas()

	items := make([]ui.Area, 0, len(areas))
	for _, a := range areas {
		items = append(items, ui.Area{Name: a.Name, Description: a.Description})
	}

	render(r.Context(), w, ui.AreasPage(items))
}

func (s *Server) handleUIArea(ctx context.Context, w http.ResponseWriter, r *http.Request, area string) {
	a, ok := s.cfg.Service.Area(area)
	if !ok {
		http.Error(w, "Unknown storage area", http.StatusNotFound)
		return
	}

	names, err := s.cfg.Service.List(ctx, area)
	if err != nil {
		uiError(w, r, err)
		return
	}

	render(ctx, w, ui.AreaPage(ui.Area{Name: a.Name, Description: a.Description}, names, r.URL.Query().Get("msg")))
}

func (s *Server) handleUIUpload(ctx context.Context, w http.ResponseWriter, r *http.Request, area string) {
	if _, ok := s.cfg.Service.Area(area); !ok {
		http.Error(w, "Unknown storage area", http.StatusNotFound)
		return
	}

	name, err := s.uploadFromRequest(ctx, w, r, area)
	if err != nil {
		uiError(w, r, err)
		return
	}

	redirectToArea(w, r, area, fmt.Sprintf("Uploaded %s", name))
}

func (s *Server) handleUIRename(ctx context.Context, w http.ResponseWriter, r *http.Request, area string, name string) {
	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	newName, err := s.cfg.Service.Rename(ctx, area, name, r.PostForm.Get("newFilename"))
	if err != nil {
		uiError(w, r, err)
		return
	}

	redirectToArea(w, r, area, fmt.Sprintf("Renamed %s to %s", name, newName))
}

func (s *Server) handleUIDelete(ctx context.Context, w http.ResponseWriter, r *http.Request, area string, name string) {
	if err := s.cfg.Service.Delete(ctx, area, name); err != nil {
		uiError(w, r, err)
		return
	}

	redirectToArea(w, r, area, fmt.Sprintf("Deleted %s", name))
}
