package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/erazemk/compendium/internal/db"
	"github.com/erazemk/compendium/internal/export"
	"github.com/erazemk/compendium/internal/model"
	"github.com/erazemk/compendium/internal/store"
)

// Exporter uploads catalog snapshots.
type Exporter interface {
	Export(ctx context.Context, analyses []model.Analysis) (*export.Result, error)
}

// ExportHandler triggers catalog exports.
type ExportHandler struct {
	DB       *db.DB
	Exporter Exporter
}

// Export handles POST /api/admin/export.
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	if h.Exporter == nil {
		jsonError(w, http.StatusServiceUnavailable, "export is not configured")
		return
	}

	analyses, err := store.ListAnalyses(r.Context(), h.DB)
	if err != nil {
		slog.Error("listing analyses for export", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	res, err := h.Exporter.Export(r.Context(), analyses)
	if err != nil {
		slog.Error("exporting catalog", "error", err)
		jsonError(w, http.StatusBadGateway, "export failed")
		return
	}

	slog.Info("catalog exported", "bucket", res.Bucket, "key", res.Key, "count", res.Count)
	jsonResponse(w, http.StatusCreated, res)
}
