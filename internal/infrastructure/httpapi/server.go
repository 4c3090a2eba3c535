// Package httpapi exposes the planning backend over HTTP. Handlers translate
// between JSON payloads and the engines; all status-code policy lives in
// respond.go.
package httpapi

import (
	"net/http"

	"github.com/planflow/planflow/internal/ports"
	"github.com/planflow/planflow/internal/services"
)

// Server bundles the engines behind the HTTP surface.
type Server struct {
	Charter  *services.CharterService
	Releases *services.ReleaseService
	Repo     ports.ProjectRepository
	Logger   ports.Logger
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /api/v1/charter/validate", s.handleCharterValidate)
	mux.HandleFunc("POST /api/v1/charter/suggestions", s.handleCharterSuggestions)
	mux.HandleFunc("POST /api/v1/charter/apply-suggestions", s.handleCharterApply)
	mux.HandleFunc("GET /api/v1/charter/format", s.handleCharterFormat)
	mux.HandleFunc("GET /api/v1/charter/status", s.handleCharterStatus)

	mux.HandleFunc("GET /api/v1/projects", s.handleListProjects)
	mux.HandleFunc("POST /api/v1/projects", s.handleCreateProject)
	mux.HandleFunc("GET /api/v1/projects/{id}", s.handleGetProject)
	mux.HandleFunc("PUT /api/v1/projects/{id}", s.handleUpdateProject)
	mux.HandleFunc("DELETE /api/v1/projects/{id}", s.handleDeleteProject)
	mux.HandleFunc("POST /api/v1/projects/{id}/update-progress", s.handleUpdateProjectProgress)

	mux.HandleFunc("GET /api/v1/projects/{id}/releases", s.handleListReleases)
	mux.HandleFunc("POST /api/v1/projects/{id}/releases", s.handleCreateRelease)
	mux.HandleFunc("GET /api/v1/projects/{id}/releases/{rid}", s.handleGetRelease)
	mux.HandleFunc("PUT /api/v1/projects/{id}/releases/{rid}", s.handleUpdateRelease)
	mux.HandleFunc("DELETE /api/v1/projects/{id}/releases/{rid}", s.handleDeleteRelease)
	mux.HandleFunc("POST /api/v1/projects/{id}/releases/extract", s.handleExtractReleases)
	mux.HandleFunc("POST /api/v1/projects/{id}/releases/create-from-extraction", s.handleCreateFromExtraction)
	mux.HandleFunc("POST /api/v1/projects/{id}/releases/{rid}/update-progress", s.handleUpdateProgress)

	return s.logRequests(mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
		if s.Logger != nil {
			s.Logger.Debug("request handled", map[string]interface{}{
				"method": r.Method,
				"path":   r.URL.Path,
			})
		}
	})
}
