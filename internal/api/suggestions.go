package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/compendium/internal/metrics"
	"github.com/erazemk/compendium/internal/model"
	"github.com/erazemk/compendium/internal/notify"
	"github.com/erazemk/compendium/internal/review"
)

// SuggestionsHandler handles suggestion submission and review.
type SuggestionsHandler struct {
	Manager  *review.Manager
	Notifier *notify.Notifier
	Metrics  *metrics.Metrics
}

type submitSuggestionRequest struct {
	Type     string         `json:"type"`
	Analysis model.Analysis `json:"analysis"`
	review.Author
	Captcha string `json:"captcha"`
}

type submitSuggestionResponse struct {
	Suggestion *model.Suggestion `json:"suggestion"`
	Notified   bool              `json:"notified"`
}

// Submit handles POST /api/suggestions.
func (h *SuggestionsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitSuggestionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Notifier.VerifyToken(req.Captcha); err != nil {
		jsonError(w, http.StatusBadRequest, "incorrect captcha")
		return
	}

	s, err := h.Manager.Submit(r.Context(), review.SubmitRequest{
		Type:     req.Type,
		Analysis: req.Analysis,
		Author:   req.Author,
	})
	if err != nil {
		reviewError(w, err)
		return
	}
	h.Metrics.SuggestionEvent("submitted")

	notice := notify.SuggestionNotice{
		Type:            s.Type,
		Name:            s.Analysis.Name,
		Laboratory:      s.Analysis.Laboratory,
		SampleType:      s.Analysis.SampleType,
		Device:          s.Analysis.Device,
		Frequency:       s.Analysis.Frequency,
		TAT:             s.Analysis.TAT,
		Units:           s.Analysis.Units,
		ReferenceValues: s.Analysis.ReferenceValues,
		Stability:       s.Analysis.Stability,
		InamiCode:       s.Analysis.InamiCode,
		AuthorName:      s.AuthorName,
		AuthorEmail:     s.AuthorEmail,
	}
	notified := true
	if err := h.Notifier.SendSuggestionNotice(r.Context(), notice, req.Captcha); err != nil {
		slog.Warn("suggestion stored but notice not sent", "id", s.ID, "error", err)
		notified = false
	}

	jsonResponse(w, http.StatusCreated, submitSuggestionResponse{Suggestion: s, Notified: notified})
}

// List handles GET /api/admin/suggestions.
func (h *SuggestionsHandler) List(w http.ResponseWriter, r *http.Request) {
	suggestions, err := h.Manager.List(r.Context())
	if err != nil {
		reviewError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, suggestions)
}

// Get handles GET /api/admin/suggestions/{id}.
func (h *SuggestionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid suggestion id")
		return
	}

	s, err := h.Manager.Get(r.Context(), id)
	if err != nil {
		reviewError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, s)
}

// Amend handles PUT /api/admin/suggestions/{id}.
func (h *SuggestionsHandler) Amend(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid suggestion id")
		return
	}

	var analysis model.Analysis
	if err := decodeJSON(w, r, &analysis); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s, err := h.Manager.Amend(r.Context(), id, analysis)
	if err != nil {
		reviewError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, s)
}

// Approve handles POST /api/admin/suggestions/{id}/approve.
func (h *SuggestionsHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid suggestion id")
		return
	}

	analysisID, err := h.Manager.Approve(r.Context(), id)
	if err != nil {
		var perr *review.PartialApprovalError
		if errors.As(err, &perr) {
			h.Metrics.SuggestionEvent("partially_approved")
		}
		reviewError(w, err)
		return
	}
	h.Metrics.SuggestionEvent("approved")

	jsonResponse(w, http.StatusOK, map[string]any{
		"id":          id,
		"status":      model.SuggestionStatusApproved,
		"analysis_id": analysisID,
	})
}

// Reject handles POST /api/admin/suggestions/{id}/reject.
func (h *SuggestionsHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid suggestion id")
		return
	}

	if err := h.Manager.Reject(r.Context(), id); err != nil {
		reviewError(w, err)
		return
	}
	h.Metrics.SuggestionEvent("rejected")

	jsonResponse(w, http.StatusOK, map[string]any{"id": id, "status": model.SuggestionStatusRejected})
}

// Delete handles DELETE /api/admin/suggestions/{id}.
func (h *SuggestionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid suggestion id")
		return
	}

	if err := h.Manager.Delete(r.Context(), id); err != nil {
		reviewError(w, err)
		return
	}
	h.Metrics.SuggestionEvent("deleted")

	w.WriteHeader(http.StatusNoContent)
}
