package api

import (
	"net/http"

	"github.com/erazemk/compendium/internal/auth"
	"github.com/erazemk/compendium/internal/db"
	"github.com/erazemk/compendium/internal/metrics"
	"github.com/erazemk/compendium/internal/notify"
	"github.com/erazemk/compendium/internal/review"
)

// Services are the dependencies of the API.
type Services struct {
	DB        *db.DB
	JWTSecret string
	Gate      *auth.Gate
	Manager   *review.Manager
	Notifier  *notify.Notifier
	// Exporter is nil when export is not configured.
	Exporter       Exporter
	Metrics        *metrics.Metrics
	AllowedOrigins []string
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(svc Services) http.Handler {
	mux := http.NewServeMux()

	analysesHandler := &AnalysesHandler{DB: svc.DB}
	suggestionsHandler := &SuggestionsHandler{Manager: svc.Manager, Notifier: svc.Notifier, Metrics: svc.Metrics}
	contactHandler := &ContactHandler{DB: svc.DB, Notifier: svc.Notifier}
	adminHandler := &AdminHandler{DB: svc.DB, Gate: svc.Gate, JWTSecret: svc.JWTSecret}
	exportHandler := &ExportHandler{DB: svc.DB, Exporter: svc.Exporter}

	authMW := AuthMiddleware(svc.JWTSecret, svc.DB)

	handle := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, countRequests(svc.Metrics, pattern, h))
	}
	admin := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, countRequests(svc.Metrics, pattern, authMW(h)))
	}

	// Public catalog.
	handle("GET /api/analyses", analysesHandler.List)
	handle("GET /api/analyses/search", analysesHandler.Search)
	handle("GET /api/analyses/lookup", analysesHandler.Lookup)
	handle("GET /api/analyses/facets", analysesHandler.Facets)
	handle("GET /api/analyses/{id}", analysesHandler.Get)

	// Public submissions.
	handle("POST /api/suggestions", suggestionsHandler.Submit)
	handle("POST /api/contact", contactHandler.Submit)

	// Admin gate.
	handle("POST /api/admin/login", adminHandler.Login)
	admin("POST /api/admin/logout", adminHandler.Logout)

	// Admin review.
	admin("GET /api/admin/analyses/search", analysesHandler.Search)
	admin("GET /api/admin/suggestions", suggestionsHandler.List)
	admin("GET /api/admin/suggestions/{id}", suggestionsHandler.Get)
	admin("PUT /api/admin/suggestions/{id}", suggestionsHandler.Amend)
	admin("POST /api/admin/suggestions/{id}/approve", suggestionsHandler.Approve)
	admin("POST /api/admin/suggestions/{id}/reject", suggestionsHandler.Reject)
	admin("DELETE /api/admin/suggestions/{id}", suggestionsHandler.Delete)
	admin("GET /api/admin/contacts", contactHandler.List)
	admin("DELETE /api/admin/contacts/{id}", contactHandler.Delete)
	admin("POST /api/admin/export", exportHandler.Export)

	// Operations.
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := svc.DB.PingContext(r.Context()); err != nil {
			jsonError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if svc.Metrics != nil {
		mux.Handle("GET /metrics", svc.Metrics.Handler())
	}

	var handler http.Handler = mux
	if len(svc.AllowedOrigins) > 0 {
		handler = corsMiddleware(svc.AllowedOrigins)(handler)
	}
	return handler
}
