package api

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/compendium/internal/db"
	"github.com/erazemk/compendium/internal/filter"
	"github.com/erazemk/compendium/internal/model"
	"github.com/erazemk/compendium/internal/store"
)

// AnalysesHandler serves the read-only catalog.
type AnalysesHandler struct {
	DB *db.DB
}

// List handles GET /api/analyses.
func (h *AnalysesHandler) List(w http.ResponseWriter, r *http.Request) {
	analyses, ok := h.catalog(w, r)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, analyses)
}

// Get handles GET /api/analyses/{id}.
func (h *AnalysesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid analysis id")
		return
	}

	analysis, err := store.GetAnalysis(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("getting analysis", "id", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if analysis == nil {
		jsonError(w, http.StatusNotFound, "analysis not found")
		return
	}
	jsonResponse(w, http.StatusOK, analysis)
}

// Search handles GET /api/analyses/search and its admin twin.
func (h *AnalysesHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	criteria := filter.Criteria{
		Query:      q.Get("q"),
		Sector:     q.Get("sector"),
		Laboratory: q.Get("laboratory"),
	}
	if criteria.Empty() {
		jsonResponse(w, http.StatusOK, []model.Analysis{})
		return
	}

	analyses, ok := h.catalog(w, r)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, filter.Filter(analyses, criteria))
}

// Lookup handles GET /api/analyses/lookup, a relevance-ordered name search.
func (h *AnalysesHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	analyses, err := store.SearchAnalysesByName(r.Context(), h.DB, r.URL.Query().Get("q"), filter.MaxResults)
	if err != nil {
		slog.Error("looking up analyses", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	jsonResponse(w, http.StatusOK, analyses)
}

type facetsResponse struct {
	Sectors      []string `json:"sectors"`
	Laboratories []string `json:"laboratories"`
}

// Facets handles GET /api/analyses/facets.
func (h *AnalysesHandler) Facets(w http.ResponseWriter, r *http.Request) {
	analyses, ok := h.catalog(w, r)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, facetsResponse{
		Sectors:      filter.Sectors(analyses),
		Laboratories: filter.Laboratories(analyses),
	})
}

func (h *AnalysesHandler) catalog(w http.ResponseWriter, r *http.Request) ([]model.Analysis, bool) {
	analyses, err := store.ListAnalyses(r.Context(), h.DB)
	if err != nil {
		slog.Error("listing analyses", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return nil, false
	}
	if analyses == nil {
		analyses = []model.Analysis{}
	}
	return analyses, true
}
