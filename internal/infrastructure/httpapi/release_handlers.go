package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/planflow/planflow/internal/domain"
)

type releaseRequest struct {
	Name         string               `json:"name"`
	Description  string               `json:"description"`
	Version      string               `json:"version"`
	StartDate    string               `json:"start_date"`
	EndDate      string               `json:"end_date"`
	ScopeModules []string             `json:"scope_modules"`
	Goals        []string             `json:"goals"`
	Status       domain.ReleaseStatus `json:"status"`
}

func (s *Server) handleCreateRelease(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathID(r, "id")
	if !ok {
		badRequest(w, "invalid project id")
		return
	}
	if _, err := s.Repo.GetProject(r.Context(), projectID); err != nil {
		writeError(w, s.Logger, err)
		return
	}
	var req releaseRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		badRequest(w, "name is required")
		return
	}
	release := domain.Release{
		ProjectID:    projectID,
		Name:         req.Name,
		Description:  req.Description,
		Version:      req.Version,
		ScopeModules: req.ScopeModules,
		Goals:        req.Goals,
		Status:       req.Status,
	}
	var err error
	if release.StartDate, err = parseOptionalDate(req.StartDate); err != nil {
		badRequest(w, "start_date must be YYYY-MM-DD")
		return
	}
	if release.EndDate, err = parseOptionalDate(req.EndDate); err != nil {
		badRequest(w, "end_date must be YYYY-MM-DD")
		return
	}
	if err := s.Repo.CreateRelease(r.Context(), &release); err != nil {
		writeError(w, s.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, release)
}

func (s *Server) handleListReleases(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathID(r, "id")
	if !ok {
		badRequest(w, "invalid project id")
		return
	}
	if _, err := s.Repo.GetProject(r.Context(), projectID); err != nil {
		writeError(w, s.Logger, err)
		return
	}
	releases, err := s.Repo.ListReleases(r.Context(), projectID)
	if err != nil {
		writeError(w, s.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"releases": releases})
}

func (s *Server) handleGetRelease(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathID(r, "id")
	releaseID, ok2 := pathID(r, "rid")
	if !ok || !ok2 {
		badRequest(w, "invalid id")
		return
	}
	release, err := s.Repo.GetRelease(r.Context(), projectID, releaseID)
	if err != nil {
		writeError(w, s.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, release)
}

func (s *Server) handleUpdateRelease(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathID(r, "id")
	releaseID, ok2 := pathID(r, "rid")
	if !ok || !ok2 {
		badRequest(w, "invalid id")
		return
	}
	release, err := s.Repo.GetRelease(r.Context(), projectID, releaseID)
	if err != nil {
		writeError(w, s.Logger, err)
		return
	}
	var req releaseRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name != "" {
		release.Name = req.Name
	}
	if req.Description != "" {
		release.Description = req.Description
	}
	if req.Version != "" {
		release.Version = req.Version
	}
	if req.ScopeModules != nil {
		release.ScopeModules = req.ScopeModules
	}
	if req.Goals != nil {
		release.Goals = req.Goals
	}
	if req.Status != "" {
		release.Status = req.Status
	}
	if req.StartDate != "" {
		if release.StartDate, err = parseOptionalDate(req.StartDate); err != nil {
			badRequest(w, "start_date must be YYYY-MM-DD")
			return
		}
	}
	if req.EndDate != "" {
		if release.EndDate, err = parseOptionalDate(req.EndDate); err != nil {
			badRequest(w, "end_date must be YYYY-MM-DD")
			return
		}
	}
	if err := s.Repo.UpdateRelease(r.Context(), &release); err != nil {
		writeError(w, s.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, release)
}

func (s *Server) handleDeleteRelease(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathID(r, "id")
	releaseID, ok2 := pathID(r, "rid")
	if !ok || !ok2 {
		badRequest(w, "invalid id")
		return
	}
	if err := s.Repo.DeleteRelease(r.Context(), projectID, releaseID); err != nil {
		writeError(w, s.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleExtractReleases runs the extraction engine over the project's stored
// charter, or over a charter supplied in the request body.
func (s *Server) handleExtractReleases(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathID(r, "id")
	if !ok {
		badRequest(w, "invalid project id")
		return
	}
	project, err := s.Repo.GetProject(r.Context(), projectID)
	if err != nil {
		writeError(w, s.Logger, err)
		return
	}

	// the body is optional; only a genuinely absent one may be skipped
	var req struct {
		Charter domain.Charter `json:"charter"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}
	charter := req.Charter
	if len(charter) == 0 {
		charter = project.Charter
	}

	extraction, err := s.Releases.ExtractFromCharter(r.Context(), charter)
	if err != nil {
		writeError(w, s.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, extraction)
}

type createFromExtractionRequest struct {
	ExtractedReleases []domain.ExtractedRelease `json:"extracted_releases"`
	Selected          []int                     `json:"selected"`
}

func (s *Server) handleCreateFromExtraction(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathID(r, "id")
	if !ok {
		badRequest(w, "invalid project id")
		return
	}
	var req createFromExtractionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.ExtractedReleases) == 0 {
		badRequest(w, "extracted_releases is required")
		return
	}
	created, itemErrors, err := s.Releases.CreateFromExtraction(r.Context(), projectID, req.ExtractedReleases, req.Selected)
	if err != nil {
		writeError(w, s.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"created": created,
		"errors":  itemErrors,
	})
}

func (s *Server) handleUpdateProgress(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathID(r, "id")
	releaseID, ok2 := pathID(r, "rid")
	if !ok || !ok2 {
		badRequest(w, "invalid id")
		return
	}
	release, err := s.Releases.UpdateReleaseProgress(r.Context(), projectID, releaseID)
	if err != nil {
		writeError(w, s.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, release)
}

func parseOptionalDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
