package httpapi

import (
	"net/http"

	"github.com/planflow/planflow/internal/domain"
)

type validateRequest struct {
	CharterText string `json:"charter_text"`
}

func (s *Server) handleCharterValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.CharterText == "" {
		badRequest(w, "charter_text is required")
		return
	}
	result, err := s.Charter.Validate(r.Context(), req.CharterText)
	if err != nil {
		writeError(w, s.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type suggestionsRequest struct {
	Charter        domain.Charter           `json:"charter"`
	ExistingIssues []domain.ValidationIssue `json:"existing_issues"`
}

func (s *Server) handleCharterSuggestions(w http.ResponseWriter, r *http.Request) {
	var req suggestionsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Charter) == 0 {
		writeError(w, s.Logger, domain.ErrMissingCharter)
		return
	}
	issues, err := s.Charter.GenerateSuggestions(r.Context(), req.Charter, req.ExistingIssues)
	if err != nil {
		writeError(w, s.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"suggestions": issues})
}

type applyRequest struct {
	Charter             domain.Charter           `json:"charter"`
	AcceptedSuggestions []domain.ValidationIssue `json:"accepted_suggestions"`
}

func (s *Server) handleCharterApply(w http.ResponseWriter, r *http.Request) {
	var req applyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Charter) == 0 {
		writeError(w, s.Logger, domain.ErrMissingCharter)
		return
	}
	result, err := s.Charter.ApplySuggestions(r.Context(), req.Charter, req.AcceptedSuggestions)
	if err != nil {
		writeError(w, s.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCharterFormat(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"format": s.Charter.FormatExample()})
}

func (s *Server) handleCharterStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Charter.ProviderStatus())
}
