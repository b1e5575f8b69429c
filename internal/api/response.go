package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/compendium/internal/review"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(w http.ResponseWriter, r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(target)
}

// pathID parses the {id} path value.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// reviewError maps lifecycle errors to HTTP responses.
func reviewError(w http.ResponseWriter, err error) {
	var verr *review.ValidationError
	var perr *review.PartialApprovalError

	switch {
	case errors.As(err, &verr):
		jsonResponse(w, http.StatusBadRequest, map[string]any{
			"error":  "validation failed",
			"fields": verr.Fields,
		})
	case errors.As(err, &perr):
		jsonResponse(w, http.StatusInternalServerError, map[string]any{
			"error":         "analysis saved but suggestion not marked approved",
			"inconsistent":  true,
			"suggestion_id": perr.SuggestionID,
			"analysis_id":   perr.AnalysisID,
		})
	case errors.Is(err, review.ErrNotFound):
		jsonError(w, http.StatusNotFound, "suggestion not found")
	case errors.Is(err, review.ErrAnalysisNotFound):
		jsonError(w, http.StatusNotFound, "analysis not found")
	case errors.Is(err, review.ErrNotPending):
		jsonError(w, http.StatusConflict, "suggestion is not pending")
	default:
		jsonError(w, http.StatusInternalServerError, "internal error")
	}
}
