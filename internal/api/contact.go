package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/compendium/internal/db"
	"github.com/erazemk/compendium/internal/model"
	"github.com/erazemk/compendium/internal/notify"
	"github.com/erazemk/compendium/internal/store"
)

// ContactHandler handles the public contact form and its admin inbox.
type ContactHandler struct {
	DB       *db.DB
	Notifier *notify.Notifier
}

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
	Captcha string `json:"captcha"`
}

// Submit handles POST /api/contact.
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Notifier.VerifyToken(req.Captcha); err != nil {
		jsonError(w, http.StatusBadRequest, "incorrect captcha")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Message = strings.TrimSpace(req.Message)

	var fields []string
	if req.Name == "" {
		fields = append(fields, "name")
	}
	if req.Email == "" {
		fields = append(fields, "email")
	}
	if req.Message == "" {
		fields = append(fields, "message")
	}
	if len(fields) > 0 {
		jsonResponse(w, http.StatusBadRequest, map[string]any{"error": "validation failed", "fields": fields})
		return
	}

	contact, err := store.CreateContact(r.Context(), h.DB, req.Name, req.Email, req.Message)
	if err != nil {
		slog.Error("storing contact", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	notified := true
	notice := notify.ContactNotice{Name: req.Name, Email: req.Email, Message: req.Message}
	if err := h.Notifier.SendContact(r.Context(), notice, req.Captcha); err != nil {
		slog.Warn("contact stored but notice not sent", "id", contact.ID, "error", err)
		notified = false
	}

	slog.Info("contact received", "id", contact.ID)
	jsonResponse(w, http.StatusCreated, map[string]any{"id": contact.ID, "notified": notified})
}

// List handles GET /api/admin/contacts.
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	contacts, err := store.ListContacts(r.Context(), h.DB)
	if err != nil {
		slog.Error("listing contacts", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if contacts == nil {
		contacts = []model.ContactMessage{}
	}
	jsonResponse(w, http.StatusOK, contacts)
}

// Delete handles DELETE /api/admin/contacts/{id}.
func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid contact id")
		return
	}

	err := store.DeleteContact(r.Context(), h.DB, id)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, http.StatusNotFound, "contact not found")
		return
	}
	if err != nil {
		slog.Error("deleting contact", "id", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	slog.Info("contact deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}
