package httpapi

import (
	"net/http"
	"strconv"

	"github.com/planflow/planflow/internal/domain"
)

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	return id, err == nil && id > 0
}

type projectRequest struct {
	Name               string               `json:"name"`
	Description        string               `json:"description"`
	Vision             string               `json:"vision"`
	ProblemBeingSolved string               `json:"problem_being_solved"`
	Status             domain.ProjectStatus `json:"status"`
	Charter            domain.Charter       `json:"charter"`
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		badRequest(w, "name is required")
		return
	}
	project := domain.Project{
		Name:               req.Name,
		Description:        req.Description,
		Vision:             req.Vision,
		ProblemBeingSolved: req.ProblemBeingSolved,
		Status:             req.Status,
		Charter:            req.Charter,
	}
	if err := s.Repo.CreateProject(r.Context(), &project); err != nil {
		writeError(w, s.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	projects, total, err := s.Repo.ListProjects(r.Context(), limit, offset)
	if err != nil {
		writeError(w, s.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"projects": projects,
		"total":    total,
	})
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		badRequest(w, "invalid project id")
		return
	}
	project, err := s.Repo.GetProject(r.Context(), id)
	if err != nil {
		writeError(w, s.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		badRequest(w, "invalid project id")
		return
	}
	project, err := s.Repo.GetProject(r.Context(), id)
	if err != nil {
		writeError(w, s.Logger, err)
		return
	}
	var req projectRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name != "" {
		project.Name = req.Name
	}
	if req.Description != "" {
		project.Description = req.Description
	}
	if req.Vision != "" {
		project.Vision = req.Vision
	}
	if req.ProblemBeingSolved != "" {
		project.ProblemBeingSolved = req.ProblemBeingSolved
	}
	if req.Status != "" {
		project.Status = req.Status
	}
	if req.Charter != nil {
		project.Charter = req.Charter
	}
	if err := s.Repo.UpdateProject(r.Context(), &project); err != nil {
		writeError(w, s.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (s *Server) handleUpdateProjectProgress(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		badRequest(w, "invalid project id")
		return
	}
	project, err := s.Releases.UpdateProjectProgress(r.Context(), id)
	if err != nil {
		writeError(w, s.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		badRequest(w, "invalid project id")
		return
	}
	if err := s.Repo.DeleteProject(r.Context(), id); err != nil {
		writeError(w, s.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
