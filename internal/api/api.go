// Package api exposes the tracked entries over a small JSON HTTP surface.
package api

import (
	"encoding/json"
	"log"
	"net/http"

	"solardelta/internal/entry"
	"solardelta/internal/model"
)

// Server serves entry snapshots and accepts reset actions.
type Server struct {
	reg *entry.Registry
}

func New(reg *entry.Registry) *Server {
	return &Server{reg: reg}
}

// Register installs the routes on mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.health)
	mux.HandleFunc("GET /api/entries", s.listEntries)
	mux.HandleFunc("GET /api/entries/{name}", s.getEntry)
	mux.HandleFunc("POST /api/entries/{name}/reset/{target}", s.reset)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listEntries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.reg.Snapshots())
}

func (s *Server) getEntry(w http.ResponseWriter, r *http.Request) {
	e, ok := s.reg.Get(r.PathValue("name"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown entry")
		return
	}
	writeJSON(w, http.StatusOK, e.Snapshot())
}

func (s *Server) reset(w http.ResponseWriter, r *http.Request) {
	e, ok := s.reg.Get(r.PathValue("name"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown entry")
		return
	}

	target, err := model.ParseResetTarget(r.PathValue("target"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// The reset is queued behind any in-flight update cycle of the entry.
	e.EnqueueReset(target)
	writeJSON(w, http.StatusAccepted, map[string]string{
		"entry":  e.Name(),
		"target": string(target),
		"status": "queued",
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[ERROR] api: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
