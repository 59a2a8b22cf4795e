package server

import (
	"net/http"
)

// Handler returns an http.Handler serving the JSON API and the browser UI.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleAreas)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /_journal", func(w http.ResponseWriter, r *http.Request) {
		s.handleJournal(r.Context(), w, r)
	})

	// Browser UI
	mux.HandleFunc("GET /ui", s.handleUIAreas)
	mux.HandleFunc("GET /ui/{area}", func(w http.ResponseWriter, r *http.Request) {
		s.handleUIArea(r.Context(), w, r, r.PathValue("area"))
	})
	mux.HandleFunc("POST /ui/{area}", func(w http.ResponseWriter, r *http.Request) {
		s.handleUIUpload(r.Context(), w, r, r.PathValue("area"))
	})
	mux.HandleFunc("POST /ui/{area}/{filename}/rename", func(w http.ResponseWriter, r *http.Request) {
		s.handleUIRename(r.Context(), w, r, r.PathValue("area"), r.PathValue("filename"))
	})
	mux.HandleFunc("POST /ui/{area}/{filename}/delete", func(w http.ResponseWriter, r *http.Request) {
		s.handleUIDelete(r.Context(), w, r, r.PathValue("area"), r.PathValue("filename"))
	})

	// Area-level operations
	mux.HandleFunc("POST /{area}", func(w http.ResponseWriter, r *http.Request) {
		area := r.PathValue("area")
		s.handleUpload(r.Context(), w, r, area)
	})
	mux.HandleFunc("GET /{area}", func(w http.ResponseWriter, r *http.Request) {
		area := r.PathValue("area")
		s.handleList(r.Context(), w, r, area)
	})

	// File-level operations
	mux.HandleFunc("GET /{area}/{filename}", func(w http.ResponseWriter, r *http.Request) {
		area := r.PathValue("area")
		name := r.PathValue("filename")
		s.handleFetch(r.Context(), w, r, area, name)
	})
	mux.HandleFunc("PUT /{area}/{filename}", func(w http.ResponseWriter, r *http.Request) {
		area := r.PathValue("area")
		name := r.PathValue("filename")
		s.handleRename(r.Context(), w, r, area, name)
	})
	mux.HandleFunc("DELETE /{area}/{filename}", func(w http.ResponseWriter, r *http.Request) {
		area := r.PathValue("area")
		name := r.PathValue("filename")
		s.handleDelete(r.Context(), w, r, area, name)
	})

	return Recoverer(RequestID(LogRequest(SlashFix(mux))))
}
