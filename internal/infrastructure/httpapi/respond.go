package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/planflow/planflow/internal/domain"
	"github.com/planflow/planflow/internal/ports"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError maps domain errors onto HTTP status codes. Decode failures get a
// generic message; the raw model text never leaves the process.
func writeError(w http.ResponseWriter, logger ports.Logger, err error) {
	var (
		providerErr   *domain.ProviderError
		configErr     *domain.ConfigurationError
		malformedErr  *domain.MalformedResponseError
		incompleteErr *domain.IncompleteResponseError
		tooLargeErr   *domain.PromptTooLargeError
		missingVar    *domain.MissingVariableError
		notFoundTmpl  *domain.TemplateNotFoundError
	)

	switch {
	case errors.Is(err, domain.ErrMissingCharter),
		errors.Is(err, domain.ErrInvalidSelection),
		errors.As(err, &tooLargeErr),
		errors.As(err, &missingVar):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, domain.ErrNotFound), errors.As(err, &notFoundTmpl):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.As(err, &providerErr):
		writeJSON(w, http.StatusBadGateway, errorBody{Error: err.Error()})
	case errors.As(err, &configErr):
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: err.Error()})
	case errors.As(err, &malformedErr), errors.As(err, &incompleteErr):
		if logger != nil {
			logger.Error("model response could not be used", err, nil)
		}
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "failed to interpret model response"})
	default:
		if logger != nil {
			logger.Error("request failed", err, nil)
		}
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: message})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return false
	}
	return true
}
